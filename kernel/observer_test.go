package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vle-project/devskernel/kernel/devstime"
	"github.com/vle-project/devskernel/kernel/value"
)

// readout answers Observation with whatever val/ok pair the test sets.
type readout struct {
	BaseDynamics
	val value.Value
	ok  bool
}

func (r *readout) Init(devstime.Time) devstime.Time           { return devstime.Infinity }
func (r *readout) TimeAdvance() devstime.Time                 { return devstime.Infinity }
func (r *readout) Output(devstime.Time, *ExternalEventList)    {}
func (r *readout) InternalTransition(devstime.Time)            {}
func (r *readout) ExternalTransition(ExternalEventList, devstime.Time) {}
func (r *readout) ConfluentTransitions(t devstime.Time, evs ExternalEventList) ConfluentKind {
	return DefaultConfluentTransitions(r, t, evs)
}
func (r *readout) Observation(*ObservationEvent) (value.Value, bool) { return r.val, r.ok }

func TestObserver_AddObservable_DeduplicatesSameSubscription(t *testing.T) {
	o := NewObserver("v1", EventDriven, devstime.Zero)
	o.AddObservable(1, "x")
	o.AddObservable(1, "x")
	assert.Equal(t, []PortName{"x"}, o.subsFor(1))
}

func TestObserver_RemoveObservable_ClearsLastSeen(t *testing.T) {
	o := NewObserver("v1", EventDriven, devstime.Zero)
	o.AddObservable(1, "x")
	o.lastSeen[Port{1, "x"}] = value.Int(1)
	o.hasLastSeen[Port{1, "x"}] = true

	o.RemoveObservable(1, "x")
	assert.Empty(t, o.subsFor(1))
	_, hasLast := o.hasLastSeen[Port{1, "x"}]
	assert.False(t, hasLast)
}

func TestObserver_DropSimulator_RemovesAllItsSubscriptions(t *testing.T) {
	o := NewObserver("v1", EventDriven, devstime.Zero)
	o.AddObservable(1, "x")
	o.AddObservable(1, "y")
	o.AddObservable(2, "x")

	o.dropSimulator(1)
	assert.Empty(t, o.subsFor(1))
	assert.Equal(t, []PortName{"x"}, o.subsFor(2))
}

func TestObserver_InitialSchedule_OnlyForTimed(t *testing.T) {
	ed := NewObserver("v1", EventDriven, devstime.New(1))
	ed.AddObservable(1, "x")
	assert.Nil(t, ed.initialSchedule(devstime.Zero))

	timed := NewObserver("v2", Timed, devstime.New(1))
	timed.AddObservable(1, "x")
	timed.AddObservable(2, "y")
	evs := timed.initialSchedule(devstime.New(5))
	require.Len(t, evs, 2)
	for _, ev := range evs {
		assert.Equal(t, devstime.New(5), ev.Time())
	}
}

func TestObserver_Sample_SuppressesUnchangedValue(t *testing.T) {
	o := NewObserver("v1", Timed, devstime.New(1))
	sim := &Simulator{id: 1, name: "top.a", dynamics: &readout{val: value.Int(7), ok: true}}

	s1, ok1 := o.sample(devstime.New(1), sim, "x")
	require.True(t, ok1)
	assert.Equal(t, value.Int(7), s1.Value)

	_, ok2 := o.sample(devstime.New(2), sim, "x")
	assert.False(t, ok2, "identical value must be suppressed on the second sample")
}

func TestObserver_Sample_NoValueAvailable(t *testing.T) {
	o := NewObserver("v1", Timed, devstime.New(1))
	sim := &Simulator{id: 1, name: "top.a", dynamics: &readout{ok: false}}

	_, ok := o.sample(devstime.New(1), sim, "x")
	assert.False(t, ok)
}

func TestObserver_Collect_IsDenseAndNeverSuppressesRepeatedValues(t *testing.T) {
	// Timed views sample densely along the time axis (spec.md §4.4): a
	// constant-valued port must still emit on every period, unlike
	// EventDriven's sample, which does suppress repeats.
	o := NewObserver("v1", Timed, devstime.New(1))
	o.AddObservable(1, "x")
	sim := &Simulator{id: 1, name: "top.a", dynamics: &readout{val: value.Int(1), ok: true}}
	sims := map[SimulatorID]*Simulator{1: sim}

	due := []*ObservationEvent{NewObservationEvent(devstime.New(1), 1, "x", "v1")}
	samples, next := o.collect(devstime.New(1), due, sims, nil)
	require.Len(t, samples, 1)
	require.Len(t, next, 1)
	assert.Equal(t, devstime.New(2), next[0].Time())

	// second round, same value: still emitted, not suppressed
	due2 := []*ObservationEvent{NewObservationEvent(devstime.New(2), 1, "x", "v1")}
	samples2, next2 := o.collect(devstime.New(2), due2, sims, nil)
	require.Len(t, samples2, 1)
	assert.Equal(t, value.Int(1), samples2[0].Value)
	require.Len(t, next2, 1)
	assert.Equal(t, devstime.New(3), next2[0].Time())
}

func TestObserver_Collect_SkipsDeletedTarget(t *testing.T) {
	o := NewObserver("v1", Timed, devstime.New(1))
	due := []*ObservationEvent{NewObservationEvent(devstime.New(1), 99, "x", "v1")}
	samples, next := o.collect(devstime.New(1), due, map[SimulatorID]*Simulator{}, nil)
	assert.Empty(t, samples)
	assert.Empty(t, next)
}
