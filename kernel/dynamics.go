package kernel

import (
	"github.com/vle-project/devskernel/kernel/devstime"
	"github.com/vle-project/devskernel/kernel/value"
)

// ConfluentKind is the user's choice of evaluation order when a
// simulator's internal time coincides with arriving externals.
type ConfluentKind int

const (
	// InternalFirst applies InternalTransition then ExternalTransition.
	InternalFirst ConfluentKind = iota
	// ExternalFirst applies ExternalTransition then InternalTransition.
	ExternalFirst
	// ExternalOnly applies only ExternalTransition, discarding the
	// internal transition's effect (the internal event still consumes
	// its slot; time_advance is still queried afterward).
	ExternalOnly
)

// Dynamics is the user-supplied atomic-model behavior: the five DEVS
// functions plus observation and lifecycle hooks. Implementations embed
// BaseDynamics to get no-op defaults for Request, Observation, Finish and
// IsExecutive, and override only what their model needs — the flattened,
// delegation-based replacement for the source's deep Dynamics →
// DifferenceEquation → Executive inheritance chain (spec.md §9).
// ConfluentTransitions has no default; see BaseDynamics.
type Dynamics interface {
	// Init is called once at the simulator's start time and returns the
	// first time_advance.
	Init(t devstime.Time) devstime.Time
	// TimeAdvance returns the delay until this simulator's next internal
	// transition; Infinity means quiescent until an external arrives.
	TimeAdvance() devstime.Time
	// Output is called immediately before a firing internal (or
	// confluent) transition and must not mutate state.
	Output(t devstime.Time, out *ExternalEventList)
	// InternalTransition applies a self-scheduled transition.
	InternalTransition(t devstime.Time)
	// ExternalTransition applies the effect of one or more arriving
	// External events.
	ExternalTransition(evs ExternalEventList, t devstime.Time)
	// ConfluentTransitions is invoked instead of Internal/ExternalTransition
	// when both are due at the same instant; it must itself apply
	// whichever transition(s) ConfluentKind implies and return that kind
	// so the coordinator can log/verify the choice.
	ConfluentTransitions(t devstime.Time, evs ExternalEventList) ConfluentKind
	// Request answers one synchronous query-style event, appending any
	// resulting output events to out.
	Request(req *RequestEvent, t devstime.Time, out *ExternalEventList)
	// Observation samples a named port for an Observer. The bool return
	// mirrors Option<Value>: false means "no value available".
	Observation(obs *ObservationEvent) (value.Value, bool)
	// Finish is called once, best-effort, during teardown.
	Finish()
	// IsExecutive reports whether this model may mutate the model graph
	// from within its own transitions (spec.md §4.5).
	IsExecutive() bool
}

// BaseDynamics provides no-op default implementations for the optional
// parts of Dynamics. User models embed it and override only what they
// need; Go's method promotion plus shadowing stands in for the "blanket
// default methods" spec.md §9 asks for in place of inheritance.
//
// ConfluentTransitions is deliberately NOT among these defaults: a model
// with a finite time_advance and an input port can genuinely face a
// confluent event, and a silent no-op default would drop both transitions
// without any error. Every such model must implement ConfluentTransitions
// itself, typically by delegating to DefaultConfluentTransitions.
type BaseDynamics struct{}

// Request is a no-op: the default model answers no queries.
func (BaseDynamics) Request(_ *RequestEvent, _ devstime.Time, _ *ExternalEventList) {}

// Observation returns no value by default.
func (BaseDynamics) Observation(_ *ObservationEvent) (value.Value, bool) { return value.Nil, false }

// Finish is a no-op by default.
func (BaseDynamics) Finish() {}

// IsExecutive defaults to false; Executive-capable models override it.
func (BaseDynamics) IsExecutive() bool { return false }

// DefaultConfluentTransitions applies the common DEVS convention of
// absorbing inputs before the scheduled internal change: ExternalTransition
// then InternalTransition, reporting ExternalFirst. A model embedding
// BaseDynamics that wants exactly this behavior implements
// ConfluentTransitions by calling this helper with itself as d — Go cannot
// dispatch from an embedded BaseDynamics back out to the outer type's own
// Internal/ExternalTransition overrides, so the call must go through the
// full Dynamics interface value instead of living on BaseDynamics itself.
func DefaultConfluentTransitions(d Dynamics, t devstime.Time, evs ExternalEventList) ConfluentKind {
	d.ExternalTransition(evs, t)
	d.InternalTransition(t)
	return ExternalFirst
}

// Stream is the observation sink collaborator: an external writer that
// receives time-stamped samples. The default sink (package sink/linesink)
// implements the newline-delimited textual format of spec.md §6; other
// implementations (package sink/livesink) push to a live viewer.
type Stream interface {
	// Open is called once before the first WriteValues call for a view.
	Open(viewName string, params value.Value) error
	// WriteValues delivers every sample produced at time t for this
	// view, as (simulator, port, value) triples.
	WriteValues(t devstime.Time, samples []Sample) error
	// Close is called once during teardown, even on a fatal error.
	Close() error
}

// Sample is one observed (simulator, port, value) triple at a given time.
type Sample struct {
	Simulator SimulatorID
	Name      string // human-readable path, not just the numeric ID
	Port      PortName
	Value     value.Value
}
