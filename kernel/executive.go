package kernel

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vle-project/devskernel/kernel/kernerr"
	"github.com/vle-project/devskernel/kernel/value"
)

// ExecutiveBinder is implemented by a Dynamics whose IsExecutive returns
// true to receive its mutation handle exactly once, right after the
// coordinator creates its Simulator. Mirrors original_source's
// ExecutiveDbg decorator, which wraps the user's executive model with
// logged delegation to the same handful of graph-mutation primitives
// exposed here.
type ExecutiveBinder interface {
	BindExecutive(exec *Executive)
}

// Executive is the structural-mutation handle a dynamic model receives.
// Every method is valid only while the coordinator is actively running
// this exact model's own transition (Internal/External/Confluent) —
// calling it at any other time, or letting a different model use another's
// handle, is a StructuralError. Mutations take effect immediately rather
// than being buffered until the transition returns: since Go dispatches
// each call synchronously through this handle rather than returning a
// mutation list, immediate application already confines every effect to
// this model's own transition window, which is what the "atomic at end of
// transition" rule in spec.md §4.5 is protecting against.
type Executive struct {
	c    *Coordinator
	self SimulatorID
}

func (e *Executive) guard() error {
	return e.c.checkActive(e.self)
}

// CreateModel instantiates dyn as a new atomic model under parent,
// initializing it at the current simulated time. It produces no output in
// the bag that created it. An empty name gets a generated one, for
// executives that spawn models without a meaningful identity of their own
// (a pool worker, a transient retry actor).
func (e *Executive) CreateModel(parent ModelID, name string, dyn Dynamics, inputPorts, outputPorts []PortName) (SimulatorID, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}
	if name == "" {
		name = uuid.NewString()
	}
	return e.c.AddAtomicModel(parent, name, dyn, inputPorts, outputPorts)
}

// CreateModelFromClass looks up className in the coordinator's
// ModelFactory, constructs it with params, and creates it exactly as
// CreateModel does — the Go replacement for original_source
// ModelFactory.cpp's dlopen/dlsym-based class instantiation.
func (e *Executive) CreateModelFromClass(parent ModelID, name, className string, params value.Value, inputPorts, outputPorts []PortName) (SimulatorID, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}
	if e.c.factory == nil {
		return 0, kernerr.New(kernerr.ModelFactoryError, e.c.table.CurrentTime(), uint32(e.self), e.c.graph.Path(ModelID(e.self)),
			fmt.Errorf("create_model_from_class: no ModelFactory registered"))
	}
	dyn, err := e.c.factory(className, params)
	if err != nil {
		return 0, kernerr.New(kernerr.ModelFactoryError, e.c.table.CurrentTime(), uint32(e.self), e.c.graph.Path(ModelID(e.self)),
			fmt.Errorf("create_model_from_class %q: %w", className, err))
	}
	if name == "" {
		name = uuid.NewString()
	}
	return e.c.AddAtomicModel(parent, name, dyn, inputPorts, outputPorts)
}

// CreateCoupledModel adds a new coupled model under parent.
func (e *Executive) CreateCoupledModel(parent ModelID, name string, inputPorts, outputPorts []PortName) (ModelID, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}
	return e.c.AddCoupledModel(parent, name, inputPorts, outputPorts)
}

// DeleteModel removes an atomic model, purging its pending events and
// observer subscriptions.
func (e *Executive) DeleteModel(id SimulatorID) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.c.DeleteModel(id)
}

// AddConnection wires srcChild's output port to dstChild's input port as
// an internal coupling of parent.
func (e *Executive) AddConnection(parent, srcChild ModelID, srcPort PortName, dstChild ModelID, dstPort PortName) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.c.graph.Connect(parent, srcChild, srcPort, dstChild, dstPort)
}

// RemoveConnection undoes a prior AddConnection.
func (e *Executive) RemoveConnection(parent, srcChild ModelID, srcPort PortName, dstChild ModelID, dstPort PortName) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.c.graph.Disconnect(parent, srcChild, srcPort, dstChild, dstPort)
}

// AddInputCoupling forwards parent's own input port down to a child.
func (e *Executive) AddInputCoupling(parent ModelID, parentPort PortName, dstChild ModelID, dstPort PortName) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.c.graph.ConnectInput(parent, parentPort, dstChild, dstPort)
}

// AddOutputCoupling forwards a child's output port up to parent's own
// output port.
func (e *Executive) AddOutputCoupling(parent, srcChild ModelID, srcPort PortName, parentPort PortName) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.c.graph.ConnectOutput(parent, srcChild, srcPort, parentPort)
}

// AddInputPort / AddOutputPort / RemoveInputPort / RemoveOutputPort extend
// or shrink a model's declared port set.
func (e *Executive) AddInputPort(id ModelID, name PortName) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.c.graph.AddInputPort(id, name)
}

func (e *Executive) AddOutputPort(id ModelID, name PortName) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.c.graph.AddOutputPort(id, name)
}

func (e *Executive) RemoveInputPort(id ModelID, name PortName) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.c.graph.RemoveInputPort(id, name)
}

func (e *Executive) RemoveOutputPort(id ModelID, name PortName) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.c.graph.RemoveOutputPort(id, name)
}

// Root returns the top-level coupled model, the usual parent for models
// an executive creates at the outermost scope.
func (e *Executive) Root() ModelID { return e.c.graph.Root() }

// checkActive enforces that mutation is only attempted by the executive
// currently running its own transition.
func (c *Coordinator) checkActive(id SimulatorID) error {
	if !c.executiveActive || c.activeExecutiveID != id {
		return kernerr.New(kernerr.StructuralError, c.table.CurrentTime(), uint32(id), c.graph.Path(ModelID(id)),
			fmt.Errorf("structural mutation attempted outside executive %s's own transition", id))
	}
	return nil
}
