package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vle-project/devskernel/kernel"
	"github.com/vle-project/devskernel/kernel/devstime"
	"github.com/vle-project/devskernel/kernel/value"
)

// stubDynamics is the minimal Dynamics the loader tests need; behavior is
// irrelevant since these tests only exercise wiring, not simulation.
type stubDynamics struct {
	kernel.BaseDynamics
}

func (stubDynamics) Init(devstime.Time) devstime.Time           { return devstime.Infinity }
func (stubDynamics) TimeAdvance() devstime.Time                 { return devstime.Infinity }
func (stubDynamics) Output(devstime.Time, *kernel.ExternalEventList)  {}
func (stubDynamics) InternalTransition(devstime.Time)                 {}
func (stubDynamics) ExternalTransition(kernel.ExternalEventList, devstime.Time) {}
func (s stubDynamics) ConfluentTransitions(t devstime.Time, evs kernel.ExternalEventList) kernel.ConfluentKind {
	return kernel.DefaultConfluentTransitions(s, t, evs)
}

func stubFactory(class string, params value.Value) (kernel.Dynamics, error) {
	return stubDynamics{}, nil
}

func TestBuild_RegistersModelsUnderDottedPaths(t *testing.T) {
	co := kernel.NewCoordinator(stubFactory, nil)
	cfg := &Config{
		Models: []ModelSpec{
			{Name: "gen1", Class: "generator", OutputPorts: []string{"out"}},
			{Name: "ctr1", Class: "counter", InputPorts: []string{"in"}},
		},
		Connections: []ConnectionSpec{
			{From: "top.gen1", FromPort: "out", To: "top.ctr1", ToPort: "in"},
		},
	}

	paths, err := Build(co, cfg, nil)
	require.NoError(t, err)
	assert.Contains(t, paths, "top.gen1")
	assert.Contains(t, paths, "top.ctr1")

	dst := co.Graph().Resolve(paths["top.gen1"], "out")
	require.Len(t, dst, 1)
	assert.Equal(t, paths["top.ctr1"], dst[0].Simulator)
}

func TestBuild_UnknownParent_IsError(t *testing.T) {
	co := kernel.NewCoordinator(stubFactory, nil)
	cfg := &Config{
		Models: []ModelSpec{
			{Name: "child", Class: "generator", Parent: "top.nonexistent"},
		},
	}
	_, err := Build(co, cfg, nil)
	assert.Error(t, err)
}

func TestBuild_NoFactory_IsError(t *testing.T) {
	co := kernel.NewCoordinator(nil, nil)
	cfg := &Config{
		Models: []ModelSpec{{Name: "gen1", Class: "generator"}},
	}
	_, err := Build(co, cfg, nil)
	assert.Error(t, err)
}

func TestBuild_RegistersViewsWithSubscriptions(t *testing.T) {
	co := kernel.NewCoordinator(stubFactory, nil)
	cfg := &Config{
		Models: []ModelSpec{{Name: "gen1", Class: "generator", OutputPorts: []string{"out"}}},
		Views: []ViewSpec{
			{ID: "v1", Kind: "event", Subscriptions: []SubscriptionSpec{{Model: "top.gen1", Port: "out"}}},
		},
	}
	_, err := Build(co, cfg, nil)
	require.NoError(t, err)
}

func TestBuild_ViewWithUnknownModel_IsError(t *testing.T) {
	co := kernel.NewCoordinator(stubFactory, nil)
	cfg := &Config{
		Views: []ViewSpec{
			{ID: "v1", Kind: "event", Subscriptions: []SubscriptionSpec{{Model: "top.nope", Port: "out"}}},
		},
	}
	_, err := Build(co, cfg, nil)
	assert.Error(t, err)
}
