package kernel

import (
	"container/heap"
	"fmt"

	"github.com/vle-project/devskernel/kernel/devstime"
	"github.com/vle-project/devskernel/kernel/kernerr"
)

// internalEventHeap is a binary min-heap over InternalEvent keyed by time,
// following the same heap.Interface shape as the teacher's EventHeap.
type internalEventHeap []*InternalEvent

func (h internalEventHeap) Len() int            { return len(h) }
func (h internalEventHeap) Less(i, j int) bool  { return h[i].time < h[j].time }
func (h internalEventHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *internalEventHeap) Push(x any)         { *h = append(*h, x.(*InternalEvent)) }
func (h *internalEventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// observationEventHeap is a binary min-heap over ObservationEvent keyed by
// time.
type observationEventHeap []*ObservationEvent

func (h observationEventHeap) Len() int           { return len(h) }
func (h observationEventHeap) Less(i, j int) bool { return h[i].time < h[j].time }
func (h observationEventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *observationEventHeap) Push(x any)        { *h = append(*h, x.(*ObservationEvent)) }
func (h *observationEventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// externalBag accumulates the pending External and Request events for one
// simulator, all implicitly due "now": they were either produced by
// routing during the current bag's processing (timestamped at the bag's
// instant) or injected by the embedder at or after the current time.
type externalBag struct {
	externals ExternalEventList
	requests  RequestEventList
}

// EventTable holds all pending events and produces, on demand, the
// earliest time and the CompleteEventBag of everything scheduled there.
// See spec.md §4.1 for the full contract; this mirrors VLE's
// vle::devs::EventTable (lazy tombstone invalidation, map-keyed external
// lists) the way the teacher's EventHeap mirrors container/heap.
type EventTable struct {
	internalHeap    internalEventHeap
	internalIndex   map[SimulatorID]*InternalEvent
	externals       map[SimulatorID]*externalBag
	observationHeap observationEventHeap
	currentTime     devstime.Time
	tombstones      int
}

// NewEventTable creates an empty EventTable with current time Zero.
func NewEventTable() *EventTable {
	et := &EventTable{
		internalIndex: make(map[SimulatorID]*InternalEvent),
		externals:     make(map[SimulatorID]*externalBag),
	}
	heap.Init(&et.internalHeap)
	heap.Init(&et.observationHeap)
	return et
}

// CurrentTime returns the time of the last bag popped (Zero before the
// first PopBag call).
func (et *EventTable) CurrentTime() devstime.Time { return et.currentTime }

// PutInternal schedules ev, tombstoning any internal event already live for
// ev.Target().
func (et *EventTable) PutInternal(ev *InternalEvent) {
	if old, ok := et.internalIndex[ev.target]; ok {
		old.valid = false
	}
	ev.valid = true
	heap.Push(&et.internalHeap, ev)
	et.internalIndex[ev.target] = ev
}

// PutExternal enqueues ev for its target. If the target has a live
// internal event scheduled strictly after the current time, that internal
// is tombstoned (an arriving external cancels an unconfirmed future
// time-advance); an internal scheduled exactly at the current time is
// preserved, since that is the confluent-transition case. Returns a
// ScheduleError if ev predates the current time.
func (et *EventTable) PutExternal(ev *ExternalEvent) error {
	if ev.time.Less(et.currentTime) {
		return kernerr.New(kernerr.ScheduleError, et.currentTime, uint32(ev.target), "",
			fmt.Errorf("external event at t=%v predates current time t=%v", ev.time, et.currentTime))
	}
	bag := et.externalBagFor(ev.target)
	bag.externals.Add(ev)

	if live, ok := et.internalIndex[ev.target]; ok && live.time > et.currentTime {
		live.valid = false
		delete(et.internalIndex, ev.target)
	}
	return nil
}

// PutRequest enqueues ev for its target. Does not affect internal
// scheduling.
func (et *EventTable) PutRequest(ev *RequestEvent) error {
	if ev.time.Less(et.currentTime) {
		return kernerr.New(kernerr.ScheduleError, et.currentTime, uint32(ev.target), "",
			fmt.Errorf("request event at t=%v predates current time t=%v", ev.time, et.currentTime))
	}
	bag := et.externalBagFor(ev.target)
	bag.requests = append(bag.requests, ev)
	return nil
}

// PutObservation schedules ev for later delivery.
func (et *EventTable) PutObservation(ev *ObservationEvent) {
	heap.Push(&et.observationHeap, ev)
}

func (et *EventTable) externalBagFor(id SimulatorID) *externalBag {
	b, ok := et.externals[id]
	if !ok {
		b = &externalBag{}
		et.externals[id] = b
	}
	return b
}

// cleanInternalHeap lazily discards tombstoned entries from the top of the
// internal heap, matching VLE's EventTable::cleanInternalEventList.
func (et *EventTable) cleanInternalHeap() {
	for et.internalHeap.Len() > 0 && !et.internalHeap[0].valid {
		ev := heap.Pop(&et.internalHeap).(*InternalEvent)
		et.tombstones++
		if cur, ok := et.internalIndex[ev.target]; ok && cur == ev {
			delete(et.internalIndex, ev.target)
		}
	}
}

// cleanObservationHeap lazily discards tombstoned entries from the top of
// the observation heap (set invalid by DelModelEvents).
func (et *EventTable) cleanObservationHeap() {
	for et.observationHeap.Len() > 0 && !et.observationHeap[0].valid {
		heap.Pop(&et.observationHeap)
		et.tombstones++
	}
}

// TopTime returns the earliest time at which something is pending:
// current_time if any externals/requests are queued (they are always
// implicitly due "now"), else the earlier of the next live internal event
// and the next observation event, else Infinity.
func (et *EventTable) TopTime() devstime.Time {
	if len(et.externals) > 0 {
		return et.currentTime
	}
	et.cleanInternalHeap()
	et.cleanObservationHeap()

	best := devstime.Infinity
	if et.internalHeap.Len() > 0 {
		best = et.internalHeap[0].time
	}
	if et.observationHeap.Len() > 0 {
		if t := et.observationHeap[0].time; t < best {
			best = t
		}
	}
	return best
}

// PopBag advances current_time to TopTime() and gathers everything due
// there into a CompleteEventBag: live internal events, all pending
// externals/requests, and — only if the bag is otherwise empty, so an
// intermediate (mid-transition) state is never sampled — any observations
// due at or before this instant.
func (et *EventTable) PopBag() *CompleteEventBag {
	et.currentTime = et.TopTime()
	bag := newCompleteEventBag(et.currentTime)

	if et.currentTime.IsInfinite() {
		return bag
	}

	for et.internalHeap.Len() > 0 && et.internalHeap[0].time == et.currentTime {
		ev := heap.Pop(&et.internalHeap).(*InternalEvent)
		if !ev.valid {
			continue
		}
		bag.ensure(ev.target).Internal = ev
		if cur, ok := et.internalIndex[ev.target]; ok && cur == ev {
			delete(et.internalIndex, ev.target)
		}
	}

	for id, eb := range et.externals {
		b := bag.ensure(id)
		b.Externals = eb.externals
		b.Requests = eb.requests
		delete(et.externals, id)
	}

	if bag.Empty() {
		for et.observationHeap.Len() > 0 && et.observationHeap[0].time <= et.currentTime {
			if !et.observationHeap[0].valid {
				heap.Pop(&et.observationHeap)
				continue
			}
			ev := heap.Pop(&et.observationHeap).(*ObservationEvent)
			bag.Observations = append(bag.Observations, ev)
		}
	}

	return bag
}

// DelModelEvents purges every pending event targeting id: tombstones its
// live internal, drops its external/request lists, and invalidates any
// queued observations so a deleted model produces no further samples —
// mirroring VLE's EventTable::delModelEvents ordering.
func (et *EventTable) DelModelEvents(id SimulatorID) {
	if live, ok := et.internalIndex[id]; ok {
		live.valid = false
		delete(et.internalIndex, id)
	}
	delete(et.externals, id)
	for _, ev := range et.observationHeap {
		if ev.target == id {
			ev.valid = false
		}
	}
}

// DrainTombstoneCount returns the number of lazily-invalidated heap entries
// discarded since the last call, resetting the counter to zero.
func (et *EventTable) DrainTombstoneCount() int {
	n := et.tombstones
	et.tombstones = 0
	return n
}

// EventCount returns the number of events still pending across all queues
// (diagnostic / test use, mirroring the teacher's EventHeap.Len).
func (et *EventTable) EventCount() int {
	n := et.internalHeap.Len() + et.observationHeap.Len()
	for _, b := range et.externals {
		n += len(b.externals) + len(b.requests)
	}
	return n
}
