package kernel

import (
	"github.com/vle-project/devskernel/kernel/devstime"
	"github.com/vle-project/devskernel/kernel/value"
)

// InternalEvent is a scheduled self-transition for one simulator. At most
// one live (non-tombstoned) InternalEvent exists per simulator at a time;
// an External arriving while it is scheduled strictly after the current
// instant tombstones it.
type InternalEvent struct {
	time   devstime.Time
	target SimulatorID
	valid  bool
}

// Time reports the scheduled instant.
func (e *InternalEvent) Time() devstime.Time { return e.time }

// Target reports the simulator this internal event belongs to.
func (e *InternalEvent) Target() SimulatorID { return e.target }

// Valid reports whether this event has not been superseded.
func (e *InternalEvent) Valid() bool { return e.valid }

// ExternalEvent carries a message from one model's output port to another
// model's input port, produced by routing an output through the model
// graph's connection table.
type ExternalEvent struct {
	time       devstime.Time
	target     SimulatorID
	sourcePort PortName
	targetPort PortName
	payload    value.Value
}

// NewExternalEvent constructs an ExternalEvent bound for target's
// targetPort, carrying payload, tagged with the source port it left on.
func NewExternalEvent(t devstime.Time, target SimulatorID, sourcePort, targetPort PortName, payload value.Value) *ExternalEvent {
	return &ExternalEvent{time: t, target: target, sourcePort: sourcePort, targetPort: targetPort, payload: payload}
}

// NewOutput constructs an unaddressed output: a Dynamics.Output
// implementation knows only which of its own ports it's emitting on, not
// who (if anyone) is connected to it. The coordinator resolves the
// destination through the model graph and stamps time/target/targetPort
// before this ever reaches an EventTable.
func NewOutput(port PortName, payload value.Value) *ExternalEvent {
	return &ExternalEvent{sourcePort: port, payload: payload}
}

func (e *ExternalEvent) Time() devstime.Time     { return e.time }
func (e *ExternalEvent) Target() SimulatorID     { return e.target }
func (e *ExternalEvent) SourcePort() PortName    { return e.sourcePort }
func (e *ExternalEvent) TargetPort() PortName    { return e.targetPort }
func (e *ExternalEvent) Payload() value.Value    { return e.payload }

// ExternalEventList is an ordered collection of ExternalEvent, the shape
// Dynamics.Output and Dynamics.ExternalTransition exchange with the
// coordinator.
type ExternalEventList []*ExternalEvent

// Add appends an event to the list, mirroring VLE's ExternalEventList::addEvent.
func (l *ExternalEventList) Add(e *ExternalEvent) {
	*l = append(*l, e)
}

// RequestEvent is a synchronous query-style event: processed in the same
// bag as External events but routed through Dynamics.Request rather than
// ExternalTransition, and never affects internal-event scheduling.
type RequestEvent struct {
	time    devstime.Time
	target  SimulatorID
	payload value.Value
}

// NewRequestEvent constructs a RequestEvent bound for target.
func NewRequestEvent(t devstime.Time, target SimulatorID, payload value.Value) *RequestEvent {
	return &RequestEvent{time: t, target: target, payload: payload}
}

func (e *RequestEvent) Time() devstime.Time  { return e.time }
func (e *RequestEvent) Target() SimulatorID  { return e.target }
func (e *RequestEvent) Payload() value.Value { return e.payload }

// RequestEventList is an ordered collection of RequestEvent.
type RequestEventList []*RequestEvent

// ObservationEvent is a scheduled sample of a simulator's state via an
// Observer's subscribed port. Immutable once queued; consumed in time
// order and dropped (not re-emitted) once its target simulator is deleted.
type ObservationEvent struct {
	time     devstime.Time
	target   SimulatorID
	portName PortName
	viewID   ViewID
	valid    bool
}

// NewObservationEvent constructs an ObservationEvent for the given view.
func NewObservationEvent(t devstime.Time, target SimulatorID, port PortName, view ViewID) *ObservationEvent {
	return &ObservationEvent{time: t, target: target, portName: port, viewID: view, valid: true}
}

func (e *ObservationEvent) Time() devstime.Time  { return e.time }
func (e *ObservationEvent) Target() SimulatorID  { return e.target }
func (e *ObservationEvent) Port() PortName       { return e.portName }
func (e *ObservationEvent) View() ViewID         { return e.viewID }

// EventBag groups everything due for one simulator at a single time
// instant: at most one internal event, plus any pending externals and
// requests.
type EventBag struct {
	Internal  *InternalEvent
	Externals ExternalEventList
	Requests  RequestEventList
}

// Empty reports whether the bag carries no transition-triggering events.
func (b *EventBag) Empty() bool {
	return b.Internal == nil && len(b.Externals) == 0 && len(b.Requests) == 0
}

// CompleteEventBag is everything the EventTable gathered for a single
// advance step: a per-simulator EventBag for every simulator firing, plus
// any Observation events due at this instant (only populated when no
// simulator in the bag is transitioning — see EventTable.PopBag).
type CompleteEventBag struct {
	Time         devstime.Time
	bags         map[SimulatorID]*EventBag
	order        []SimulatorID
	Observations []*ObservationEvent
}

func newCompleteEventBag(t devstime.Time) *CompleteEventBag {
	return &CompleteEventBag{Time: t, bags: make(map[SimulatorID]*EventBag)}
}

func (c *CompleteEventBag) ensure(id SimulatorID) *EventBag {
	b, ok := c.bags[id]
	if !ok {
		b = &EventBag{}
		c.bags[id] = b
		c.order = append(c.order, id)
	}
	return b
}

// Bag returns the EventBag for a simulator, or nil if it has none this step.
func (c *CompleteEventBag) Bag(id SimulatorID) (*EventBag, bool) {
	b, ok := c.bags[id]
	return b, ok
}

// SimulatorIDs returns the simulators with a non-empty bag this step, in
// ascending-ID order (the deterministic tie-break spec.md §9 mandates).
func (c *CompleteEventBag) SimulatorIDs() []SimulatorID {
	ids := make([]SimulatorID, len(c.order))
	copy(ids, c.order)
	sortSimulatorIDs(ids)
	return ids
}

// Empty reports whether no simulator has transitional events this step
// (used to gate observation emission, per spec.md §4.1).
func (c *CompleteEventBag) Empty() bool {
	for _, b := range c.bags {
		if !b.Empty() {
			return false
		}
	}
	return true
}

func sortSimulatorIDs(ids []SimulatorID) {
	// insertion sort: bags are small (one entry per firing simulator)
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
