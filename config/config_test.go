package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vle-project/devskernel/kernel/value"
)

func TestParse_DecodesTopLevelSections(t *testing.T) {
	data := []byte(`
version: "1"
models:
  - name: gen1
    class: generator
    output_ports: [out]
views:
  - id: v1
    kind: event
    subscriptions:
      - model: top.gen1
        port: out
`)
	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "1", cfg.Version)
	require.Len(t, cfg.Models, 1)
	assert.Equal(t, "gen1", cfg.Models[0].Name)
	assert.Equal(t, []string{"out"}, cfg.Models[0].OutputPorts)
	require.Len(t, cfg.Views, 1)
	assert.Equal(t, "event", cfg.Views[0].Kind)
}

func TestParse_RejectsUnknownField(t *testing.T) {
	data := []byte(`
models:
  - name: gen1
    classs: generator
`)
	_, err := Parse(data)
	assert.Error(t, err, "a typo'd key must fail loudly under KnownFields(true)")
}

func TestParamValue_DecodesScalarsByYAMLTag(t *testing.T) {
	data := []byte(`
models:
  - name: gen1
    class: generator
    params:
      period: 2
      rate: 1.5
      enabled: true
      label: hello
`)
	cfg, err := Parse(data)
	require.NoError(t, err)
	m, ok := cfg.Models[0].Params.AsMap()
	require.True(t, ok)

	period, ok := m["period"].AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(2), period)

	rate, ok := m["rate"].AsDouble()
	require.True(t, ok)
	assert.Equal(t, 1.5, rate)

	enabled, ok := m["enabled"].AsBool()
	require.True(t, ok)
	assert.True(t, enabled)

	label, ok := m["label"].AsString()
	require.True(t, ok)
	assert.Equal(t, "hello", label)
}

func TestParamValue_DecodesSequenceAsSet(t *testing.T) {
	data := []byte(`
models:
  - name: gen1
    class: generator
    params:
      tags: [a, b, c]
`)
	cfg, err := Parse(data)
	require.NoError(t, err)
	m, ok := cfg.Models[0].Params.AsMap()
	require.True(t, ok)

	tags, ok := m["tags"].AsSet()
	require.True(t, ok)
	require.Len(t, tags, 3)
	s, _ := tags[0].AsString()
	assert.Equal(t, "a", s)
}

func TestParamValue_NilWhenOmitted(t *testing.T) {
	data := []byte(`
models:
  - name: gen1
    class: generator
`)
	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.True(t, cfg.Models[0].Params.Value.Equal(value.Nil))
}

func TestParse_DecodesHorizon(t *testing.T) {
	data := []byte(`
version: "1"
horizon: 100.5
models:
  - name: gen1
    class: generator
`)
	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 100.5, cfg.Horizon)
}

func TestParse_HorizonDefaultsToZeroWhenOmitted(t *testing.T) {
	data := []byte(`
models:
  - name: gen1
    class: generator
`)
	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.Zero(t, cfg.Horizon, "an omitted horizon means unbounded, handled downstream by Coordinator.SetHorizon")
}

func TestModelPath_DefaultsToTopWhenParentEmpty(t *testing.T) {
	assert.Equal(t, "top.gen1", ModelPath("", "gen1"))
	assert.Equal(t, "top.box.gen1", ModelPath("top.box", "gen1"))
}

func TestSortedViewIDs_IsAlphabetical(t *testing.T) {
	cfg := &Config{Views: []ViewSpec{{ID: "zeta"}, {ID: "alpha"}, {ID: "mid"}}}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, SortedViewIDs(cfg))
}
