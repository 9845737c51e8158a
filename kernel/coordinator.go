package kernel

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vle-project/devskernel/kernel/devstime"
	"github.com/vle-project/devskernel/kernel/kernerr"
	"github.com/vle-project/devskernel/kernel/value"
)

// ModelFactory constructs a Dynamics by name, the Go stand-in for the
// source's dlopen/dlsym-based ModelFactory (spec.md §4.5, original_source
// ModelFactory.cpp): instead of loading a shared object, the embedder
// registers named constructors up front and the kernel looks them up by
// string, including from inside an Executive's create_model_from_class.
type ModelFactory func(name string, params value.Value) (Dynamics, error)

// Metrics receives coordinator instrumentation. NopMetrics is the default;
// package kernel/kmetrics supplies a Prometheus-backed implementation.
// Defining the interface here rather than depending on kmetrics keeps the
// kernel package free of the metrics library import.
type Metrics interface {
	BagProcessed(size int)
	TombstonesSkipped(n int)
	EventTableDepth(n int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) BagProcessed(int)      {}
func (NopMetrics) TombstonesSkipped(int) {}
func (NopMetrics) EventTableDepth(int)   {}

// Coordinator owns the model graph, the arena of simulators, and the event
// table, and drives the main Parallel DEVS scheduling loop (spec.md §4.1,
// §5): output collection, routing, transition application in deterministic
// non-executive-then-executive order, rescheduling, and gated observation
// delivery. Grounded on the teacher's ClusterSimulator.Run loop
// (sim/cluster/cluster.go) generalized from a fixed two-clock merge to an
// arbitrary-arity event table.
type Coordinator struct {
	graph   *ModelGraph
	sims    map[SimulatorID]*Simulator
	table   *EventTable
	factory ModelFactory
	log     logrus.FieldLogger
	metrics Metrics

	observers map[ViewID]*Observer
	sinks     map[ViewID]Stream

	executiveActive   bool
	activeExecutiveID SimulatorID
	finished          bool
	horizon           devstime.Time
}

// NewCoordinator creates an empty Coordinator rooted at a fresh ModelGraph.
// The horizon defaults to Infinity (unbounded); call SetHorizon to bound it.
func NewCoordinator(factory ModelFactory, log logrus.FieldLogger) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Coordinator{
		graph:     NewModelGraph(),
		sims:      make(map[SimulatorID]*Simulator),
		table:     NewEventTable(),
		factory:   factory,
		log:       log,
		metrics:   NopMetrics{},
		observers: make(map[ViewID]*Observer),
		sinks:     make(map[ViewID]Stream),
		horizon:   devstime.Infinity,
	}
}

// SetHorizon bounds the simulation to the experiment horizon (spec.md §4.2,
// §6): Step refuses to process any bag at or past h, reporting quiescence
// instead, so "while current_time < horizon" holds without the caller having
// to track time itself. A zero-value Time is treated as "no bound".
func (c *Coordinator) SetHorizon(h devstime.Time) {
	if h.IsZero() {
		h = devstime.Infinity
	}
	c.horizon = h
}

// Horizon returns the configured experiment horizon (Infinity if unbounded).
func (c *Coordinator) Horizon() devstime.Time { return c.horizon }

// SetMetrics replaces the metrics sink.
func (c *Coordinator) SetMetrics(m Metrics) {
	if m != nil {
		c.metrics = m
	}
}

// Graph exposes the model graph for read access (topology introspection,
// observer wiring).
func (c *Coordinator) Graph() *ModelGraph { return c.graph }

// CurrentTime returns the time of the most recently processed bag.
func (c *Coordinator) CurrentTime() devstime.Time { return c.table.CurrentTime() }

// Factory returns the registered model factory, used by Executive.
func (c *Coordinator) Factory() ModelFactory { return c.factory }

// AddAtomicModel registers dyn as a new atomic model under parent and
// initializes it immediately at the coordinator's current time, scheduling
// its first internal event. This same path serves both initial bootstrap
// (parent is c.graph.Root(), current time is Zero) and Executive-driven
// create_model calls mid-run — a newly created simulator is initialized
// but produces no output in the bag that created it (spec.md §4.5).
func (c *Coordinator) AddAtomicModel(parent ModelID, name string, dyn Dynamics, inputPorts, outputPorts []PortName) (SimulatorID, error) {
	id := c.graph.NewID()
	if err := c.graph.AddAtomicModel(id, parent, name, inputPorts, outputPorts); err != nil {
		return 0, err
	}
	sim := &Simulator{id: id, name: c.graph.Path(id), dynamics: dyn, parent: parent}
	c.sims[id] = sim

	if dyn.IsExecutive() {
		if binder, ok := dyn.(ExecutiveBinder); ok {
			binder.BindExecutive(&Executive{c: c, self: id})
		}
	}

	t0 := c.table.CurrentTime()
	ta := sim.init(t0)
	if err := c.validateTimeAdvance(sim, ta); err != nil {
		return 0, err
	}
	c.scheduleInternal(sim, ta)
	return id, nil
}

// AddCoupledModel registers a new coupled model under parent.
func (c *Coordinator) AddCoupledModel(parent ModelID, name string, inputPorts, outputPorts []PortName) (ModelID, error) {
	return c.graph.AddCoupledModel(parent, name, inputPorts, outputPorts)
}

// DeleteModel removes an atomic model: purges its pending events, drops it
// from every observer's subscription set, and removes it from the graph
// and the simulator arena. Deleting a coupled model is rejected — only
// atomic models carry state and events to tear down (spec.md §4.5 scopes
// delete_model to atomic models).
func (c *Coordinator) DeleteModel(id SimulatorID) error {
	sim, ok := c.sims[id]
	if !ok {
		return kernerr.New(kernerr.StructuralError, c.table.CurrentTime(), uint32(id), "",
			fmt.Errorf("delete_model: %s is not a live atomic model", id))
	}
	c.table.DelModelEvents(id)
	for _, obs := range c.observers {
		obs.dropSimulator(id)
	}
	delete(c.sims, id)
	c.log.WithField("simulator", sim.name).Debug("model deleted")
	return c.graph.RemoveModel(id)
}

func (c *Coordinator) validateTimeAdvance(sim *Simulator, ta devstime.Time) error {
	if ta.Float64() < 0 {
		return kernerr.New(kernerr.ScheduleError, c.table.CurrentTime(), uint32(sim.id), sim.name,
			fmt.Errorf("time_advance returned negative value %v", ta))
	}
	return nil
}

func (c *Coordinator) scheduleInternal(sim *Simulator, ta devstime.Time) {
	sim.scheduledTA = ta
	if ta.IsInfinite() {
		return
	}
	c.table.PutInternal(&InternalEvent{time: c.table.CurrentTime().Add(ta), target: sim.id, valid: true})
}

// RegisterObserver attaches obs and its sink to the coordinator so its
// subscribed ObservationEvents get scheduled and delivered.
func (c *Coordinator) RegisterObserver(obs *Observer, sink Stream) error {
	c.observers[obs.id] = obs
	c.sinks[obs.id] = sink
	if sink != nil {
		if err := sink.Open(string(obs.id), value.Nil); err != nil {
			return kernerr.New(kernerr.UserFault, c.table.CurrentTime(), 0, string(obs.id), err)
		}
	}
	for _, pending := range obs.initialSchedule(c.table.CurrentTime()) {
		c.table.PutObservation(pending)
	}
	return nil
}

// Step advances the simulation by exactly one CompleteEventBag: routes
// outputs, applies transitions in deterministic order, reschedules, and
// delivers any gated observations. Returns the bag's time; an infinite
// time means the run is quiescent (nothing left to schedule) or the
// experiment horizon has been reached (SetHorizon), whichever comes first.
func (c *Coordinator) Step(ctx context.Context) (devstime.Time, error) {
	if c.finished {
		panic("kernel: Step called after Finish")
	}
	if err := ctx.Err(); err != nil {
		return c.table.CurrentTime(), err
	}

	if !c.table.TopTime().Less(c.horizon) {
		// The experiment horizon (spec.md §4.2: "while current_time <
		// horizon") has been reached; the next bag, if any, is left
		// unpopped so a caller that raises the horizon afterward can still
		// process it.
		return devstime.Infinity, nil
	}

	bag := c.table.PopBag()
	if bag.Time.IsInfinite() {
		return bag.Time, nil
	}

	ids := bag.SimulatorIDs()
	var nonExec, exec []SimulatorID
	for _, id := range ids {
		sim, ok := c.sims[id]
		if !ok {
			continue // target deleted earlier in this same bag's processing
		}
		if sim.dynamics.IsExecutive() {
			exec = append(exec, id)
		} else {
			nonExec = append(nonExec, id)
		}
	}

	// Phase 1: collect outputs from every transitioning simulator before
	// any transition mutates state, then route them into the event table
	// as addressed ExternalEvents for their next bag.
	for _, id := range append(append([]SimulatorID{}, nonExec...), exec...) {
		sim := c.sims[id]
		eb, _ := bag.Bag(id)
		if eb.Internal == nil {
			continue // no self-scheduled firing this bag, only externals/requests
		}
		if sim.scheduledTA.IsInfinite() {
			return bag.Time, kernerr.New(kernerr.ProtocolError, bag.Time, uint32(id), sim.name,
				fmt.Errorf("output invoked while time_advance is infinite"))
		}
		var raw ExternalEventList
		sim.output(bag.Time, &raw)
		if err := c.routeOutputs(bag.Time, id, raw); err != nil {
			return bag.Time, err
		}
	}

	// Phase 2: apply transitions, non-executives first, then executives,
	// each group in ascending SimulatorID order (spec.md §9's tightened
	// determinism rule, generalizing the source's single-executive-last
	// CompleteEventBagModel::topBag iteration to arbitrarily many
	// executives).
	for _, id := range nonExec {
		if err := c.applyTransition(id, bag); err != nil {
			return bag.Time, err
		}
		if err := c.notifyEventDriven(bag.Time, id); err != nil {
			return bag.Time, err
		}
	}
	for _, id := range exec {
		c.executiveActive = true
		c.activeExecutiveID = id
		err := c.applyTransition(id, bag)
		c.executiveActive = false
		if err != nil {
			return bag.Time, err
		}
		if err := c.notifyEventDriven(bag.Time, id); err != nil {
			return bag.Time, err
		}
	}

	// Phase 3: requests are synchronous queries, answered after transitions
	// settle so a request sees this bag's post-transition state.
	for _, id := range ids {
		sim, ok := c.sims[id]
		if !ok {
			continue
		}
		eb, _ := bag.Bag(id)
		for _, req := range eb.Requests {
			var raw ExternalEventList
			sim.request(req, bag.Time, &raw)
			if err := c.routeOutputs(bag.Time, id, raw); err != nil {
				return bag.Time, err
			}
		}
	}

	// Phase 4: reschedule every simulator in the bag from this bag's time,
	// request-only ones included.
	for _, id := range append(append([]SimulatorID{}, nonExec...), exec...) {
		sim, ok := c.sims[id]
		if !ok {
			continue // deleted itself (or by an executive) this bag
		}
		ta := sim.timeAdvance()
		if err := c.validateTimeAdvance(sim, ta); err != nil {
			return bag.Time, err
		}
		c.scheduleInternal(sim, ta)
	}

	// Phase 5: gated observation delivery — PopBag only populates
	// Observations when the bag was otherwise empty, so this never fires
	// on the same bag as a transition.
	if err := c.deliverObservations(bag); err != nil {
		return bag.Time, err
	}

	c.metrics.BagProcessed(len(ids))
	c.metrics.TombstonesSkipped(c.table.DrainTombstoneCount())
	c.metrics.EventTableDepth(c.table.EventCount())
	return bag.Time, nil
}

func (c *Coordinator) applyTransition(id SimulatorID, bag *CompleteEventBag) error {
	sim, ok := c.sims[id]
	if !ok {
		return nil
	}
	eb, _ := bag.Bag(id)
	switch {
	case eb.Internal != nil && len(eb.Externals) > 0:
		sim.confluentTransition(bag.Time, eb.Externals)
	case eb.Internal != nil:
		sim.internalTransition(bag.Time)
	case len(eb.Externals) > 0:
		sim.externalTransition(eb.Externals, bag.Time)
	}
	return nil
}

// routeOutputs resolves each unaddressed output event through the model
// graph and enqueues a fully-addressed ExternalEvent per destination port.
// An output that resolves back to its own origin is a structural error
// (spec.md §4.6: "events with target == source are forbidden").
func (c *Coordinator) routeOutputs(t devstime.Time, from SimulatorID, raw ExternalEventList) error {
	for _, ev := range raw {
		targets := c.graph.Resolve(ModelID(from), ev.sourcePort)
		for _, dst := range targets {
			if dst.Simulator == from {
				return kernerr.New(kernerr.StructuralError, t, uint32(from), c.graph.Path(ModelID(from)),
					fmt.Errorf("self-loop: output on port %q routes back to its own model", ev.sourcePort))
			}
			addressed := NewExternalEvent(t, dst.Simulator, ev.sourcePort, dst.Name, ev.payload)
			if err := c.table.PutExternal(addressed); err != nil {
				return err
			}
		}
	}
	return nil
}

// notifyEventDriven samples every EventDriven view subscribed to id right
// after its transition, batching the samples into one sink write per view.
func (c *Coordinator) notifyEventDriven(t devstime.Time, id SimulatorID) error {
	sim, ok := c.sims[id]
	if !ok {
		return nil // deleted itself, or by an executive, during this bag
	}
	for viewID, obs := range c.observers {
		if obs.kind != EventDriven {
			continue
		}
		ports := obs.subsFor(id)
		if len(ports) == 0 {
			continue
		}
		var samples []Sample
		for _, port := range ports {
			if s, ok := obs.sample(t, sim, port); ok {
				samples = append(samples, s)
			}
		}
		if len(samples) == 0 {
			continue
		}
		sink := c.sinks[viewID]
		if sink == nil {
			continue
		}
		if err := sink.WriteValues(t, samples); err != nil {
			return kernerr.New(kernerr.UserFault, t, 0, string(viewID), err)
		}
	}
	return nil
}

func (c *Coordinator) deliverObservations(bag *CompleteEventBag) error {
	if len(bag.Observations) == 0 {
		return nil
	}
	byView := make(map[ViewID][]*ObservationEvent)
	for _, obs := range bag.Observations {
		byView[obs.viewID] = append(byView[obs.viewID], obs)
	}
	for viewID, events := range byView {
		view, ok := c.observers[viewID]
		if !ok {
			continue // view removed since this observation was scheduled
		}
		sink := c.sinks[viewID]
		samples, next := view.collect(bag.Time, events, c.sims, c.graph)
		if len(samples) > 0 && sink != nil {
			if err := sink.WriteValues(bag.Time, samples); err != nil {
				return kernerr.New(kernerr.UserFault, bag.Time, 0, string(viewID), err)
			}
		}
		for _, ev := range next {
			c.table.PutObservation(ev)
		}
	}
	return nil
}

// Run steps the coordinator until quiescence (TopTime reaches Infinity),
// the context is cancelled, or a fatal *kernerr.KernelError occurs. It
// always calls Finish exactly once, flushing sinks and invoking every live
// Dynamics' Finish hook best-effort, regardless of how the loop ended.
func (c *Coordinator) Run(ctx context.Context) error {
	var runErr error
loop:
	for {
		t, err := c.Step(ctx)
		if err != nil {
			runErr = err
			break loop
		}
		if t.IsInfinite() {
			break loop
		}
	}
	if fErr := c.Finish(); fErr != nil && runErr == nil {
		runErr = fErr
	}
	return runErr
}

// Finish tears the coordinator down: calls every live Dynamics' Finish
// hook and closes every registered sink, best-effort (a panic or error
// from one model/sink does not prevent the others from finishing). Safe
// to call at most once; Step panics if called afterward.
func (c *Coordinator) Finish() error {
	if c.finished {
		return nil
	}
	c.finished = true
	var first error
	for _, sim := range c.sims {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.log.WithField("simulator", sim.name).Errorf("panic in Finish: %v", r)
				}
			}()
			sim.dynamics.Finish()
		}()
	}
	for id, sink := range c.sinks {
		if sink == nil {
			continue // view registered without a sink
		}
		if err := sink.Close(); err != nil && first == nil {
			first = kernerr.New(kernerr.UserFault, c.table.CurrentTime(), 0, string(id), err)
		}
	}
	return first
}
