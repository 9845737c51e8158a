package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quiescentConfig = `
version: "1"
models:
  - name: ctr1
    class: counter
    input_ports: ["in"]
    output_ports: []
views:
  - id: v1
    kind: event
    subscriptions:
      - model: top.ctr1
        port: total
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunSimulation_QuiescentModelStopsImmediately(t *testing.T) {
	path := writeConfig(t, quiescentConfig)
	err := runSimulation(path, false)
	assert.NoError(t, err)
}

func TestRunSimulation_MissingConfig_IsError(t *testing.T) {
	err := runSimulation(filepath.Join(t.TempDir(), "nope.yaml"), false)
	assert.Error(t, err)
}

func TestRunSimulation_HorizonStopsAnOtherwisePeriodicRun(t *testing.T) {
	// a bare generator's time_advance always returns its period, so it
	// never quiesces on its own; without a horizon this would hang forever.
	path := writeConfig(t, `
version: "1"
horizon: 3
models:
  - name: gen1
    class: generator
    output_ports: [out]
    params:
      period: 1
`)
	err := runSimulation(path, false)
	assert.NoError(t, err)
}

func TestRunSimulation_UnknownModelClass_IsError(t *testing.T) {
	path := writeConfig(t, `
version: "1"
models:
  - name: m1
    class: not-a-real-class
`)
	err := runSimulation(path, false)
	assert.Error(t, err)
}
