package kernel

import (
	"github.com/vle-project/devskernel/kernel/devstime"
)

// Simulator is the thin per-atomic-model wrapper enforcing the DEVS
// protocol around a user Dynamics: it tracks the last transition time and
// bridges the coordinator's scheduling loop to the five DEVS functions.
// Simulators are owned exclusively by the Coordinator's arena (spec.md §3);
// a user Dynamics instance's lifetime equals its owning Simulator's.
type Simulator struct {
	id                 SimulatorID
	name               string
	dynamics           Dynamics
	lastTransitionTime devstime.Time
	scheduledTA        devstime.Time // time_advance in force when next scheduled
	parent             ModelID       // coupled model this simulator lives under
}

// ID returns the simulator's identity within the arena.
func (s *Simulator) ID() SimulatorID { return s.id }

// Name returns the simulator's human-readable path (e.g. "top.gen1").
func (s *Simulator) Name() string { return s.name }

// Dynamics returns the wrapped user behavior.
func (s *Simulator) Dynamics() Dynamics { return s.dynamics }

// LastTransitionTime returns the simulated time of this simulator's most
// recent transition (or its init time, before any transition fires).
func (s *Simulator) LastTransitionTime() devstime.Time { return s.lastTransitionTime }

// init calls dynamics.Init(t0) and records t0 as the last transition time,
// returning the first time_advance the caller should schedule.
func (s *Simulator) init(t0 devstime.Time) devstime.Time {
	ta := s.dynamics.Init(t0)
	s.lastTransitionTime = t0
	return ta
}

// output forwards to dynamics.Output. By contract (not enforced by the
// type system) Output must not mutate simulator state — see spec.md §4.3.
func (s *Simulator) output(t devstime.Time, out *ExternalEventList) {
	s.dynamics.Output(t, out)
}

// internalTransition applies a pure-internal transition and records t.
func (s *Simulator) internalTransition(t devstime.Time) {
	s.dynamics.InternalTransition(t)
	s.lastTransitionTime = t
}

// externalTransition applies a pure-external transition and records t.
func (s *Simulator) externalTransition(evs ExternalEventList, t devstime.Time) {
	s.dynamics.ExternalTransition(evs, t)
	s.lastTransitionTime = t
}

// confluentTransition applies a confluent transition and records t.
func (s *Simulator) confluentTransition(t devstime.Time, evs ExternalEventList) ConfluentKind {
	kind := s.dynamics.ConfluentTransitions(t, evs)
	s.lastTransitionTime = t
	return kind
}

// request answers one RequestEvent without advancing lastTransitionTime —
// a request is a synchronous query, not a transition.
func (s *Simulator) request(req *RequestEvent, t devstime.Time, out *ExternalEventList) {
	s.dynamics.Request(req, t, out)
}

// timeAdvance forwards to dynamics.TimeAdvance.
func (s *Simulator) timeAdvance() devstime.Time {
	return s.dynamics.TimeAdvance()
}
