package kernel

import (
	"github.com/vle-project/devskernel/kernel/devstime"
	"github.com/vle-project/devskernel/kernel/value"
)

// ViewKind distinguishes the two observation styles spec.md §4.4 describes:
// a view samples either reactively, right after the model it watches
// transitions, or on a fixed wall-of-simulated-time clock regardless of
// whether the model changed.
type ViewKind int

const (
	// EventDriven samples immediately after a subscribed simulator's
	// transition, bypassing the event table entirely — there is no
	// scheduling conflict to resolve since the sample is taken
	// synchronously within the bag that produced it.
	EventDriven ViewKind = iota
	// Timed samples every Period simulated-time units, scheduled through
	// the EventTable's observation heap and subject to the "delayed, not
	// dropped" gating PopBag implements.
	Timed
)

type subscription struct {
	sim  SimulatorID
	port PortName
}

// Observer is one named view: a set of (simulator, port) subscriptions
// sampled either event-driven or on a timer, each producing Samples for
// its Stream. Grounded on original_source's Observer.hpp/EventView.cpp:
// bulk construction via NewObserver plus incremental Add/RemoveObservable,
// and, for EventDriven views only, a last-seen-value cache so unchanged
// values aren't re-emitted.
type Observer struct {
	id     ViewID
	kind   ViewKind
	period devstime.Time

	subs []subscription

	lastSeen    map[Port]value.Value
	hasLastSeen map[Port]bool
}

// NewObserver creates a view. period is ignored for EventDriven views.
func NewObserver(id ViewID, kind ViewKind, period devstime.Time) *Observer {
	return &Observer{
		id:          id,
		kind:        kind,
		period:      period,
		lastSeen:    make(map[Port]value.Value),
		hasLastSeen: make(map[Port]bool),
	}
}

// ID returns the view's identity.
func (o *Observer) ID() ViewID { return o.id }

// AddObservable subscribes the view to one (simulator, port). A duplicate
// subscription is a no-op.
func (o *Observer) AddObservable(sim SimulatorID, port PortName) {
	for _, s := range o.subs {
		if s.sim == sim && s.port == port {
			return
		}
	}
	o.subs = append(o.subs, subscription{sim, port})
}

// RemoveObservable unsubscribes one (simulator, port), if present.
func (o *Observer) RemoveObservable(sim SimulatorID, port PortName) {
	kept := o.subs[:0]
	for _, s := range o.subs {
		if s.sim != sim || s.port != port {
			kept = append(kept, s)
		}
	}
	o.subs = kept
	delete(o.lastSeen, Port{sim, port})
	delete(o.hasLastSeen, Port{sim, port})
}

// dropSimulator removes every subscription referencing a deleted model, so
// a subsequently-arriving stale ObservationEvent finds nothing to sample.
func (o *Observer) dropSimulator(id SimulatorID) {
	kept := o.subs[:0]
	for _, s := range o.subs {
		if s.sim != id {
			kept = append(kept, s)
		}
	}
	o.subs = kept
}

// subsFor returns the ports of sim this view watches.
func (o *Observer) subsFor(sim SimulatorID) []PortName {
	var ports []PortName
	for _, s := range o.subs {
		if s.sim == sim {
			ports = append(ports, s.port)
		}
	}
	return ports
}

// initialSchedule produces the first round of ObservationEvents for a
// Timed view's subscriptions, to be enqueued into the EventTable. A no-op
// for EventDriven views, which never touch the event table.
func (o *Observer) initialSchedule(t devstime.Time) []*ObservationEvent {
	if o.kind != Timed {
		return nil
	}
	evs := make([]*ObservationEvent, 0, len(o.subs))
	for _, s := range o.subs {
		evs = append(evs, NewObservationEvent(t, s.sim, s.port, o.id))
	}
	return evs
}

// collect samples every due ObservationEvent for a Timed view and returns
// the next round, rescheduled Period later — the periodic re-enqueue a
// recurring timer needs. Timed views are dense along the time axis
// (spec.md §4.4): unlike EventDriven's sample, collect never suppresses a
// reading just because it repeats the previous one. original_source keeps
// its last-seen cache inside EventView.cpp alone; TimedView has none.
func (o *Observer) collect(t devstime.Time, due []*ObservationEvent, sims map[SimulatorID]*Simulator, graph *ModelGraph) (samples []Sample, next []*ObservationEvent) {
	for _, ev := range due {
		sim, ok := sims[ev.target]
		if !ok {
			continue // target deleted since this observation was scheduled
		}
		if val, present := o.read(t, sim, ev.portName); present {
			samples = append(samples, Sample{Simulator: sim.id, Name: sim.name, Port: ev.portName, Value: val})
		}
		next = append(next, NewObservationEvent(t.Add(o.period), ev.target, ev.portName, o.id))
	}
	return samples, next
}

// read takes one raw (simulator, port) reading with no suppression.
func (o *Observer) read(t devstime.Time, sim *Simulator, port PortName) (value.Value, bool) {
	ev := NewObservationEvent(t, sim.id, port, o.id)
	return sim.dynamics.Observation(ev)
}

// sample takes one (simulator, port) reading for an EventDriven view,
// suppressing it if the value is unchanged from the last delivered sample
// on that port.
func (o *Observer) sample(t devstime.Time, sim *Simulator, port PortName) (Sample, bool) {
	val, present := o.read(t, sim, port)
	if !present {
		return Sample{}, false
	}
	p := Port{sim.id, port}
	if o.hasLastSeen[p] && o.lastSeen[p].Equal(val) {
		return Sample{}, false
	}
	o.lastSeen[p] = val
	o.hasLastSeen[p] = true
	return Sample{Simulator: sim.id, Name: sim.name, Port: port, Value: val}, true
}
