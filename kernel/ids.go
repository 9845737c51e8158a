// Package kernel implements the Parallel DEVS simulation kernel: the event
// table, coordinator, simulator wrapper, observer subsystem, and the
// executive extension for dynamic structural mutation.
//
// Reading guide: start with event.go (the event sum type), eventtable.go
// (the priority-ordered scheduler), simulator.go (the per-model wrapper),
// then coordinator.go (the scheduling loop) and executive.go (structural
// mutation). modelgraph.go and observer.go round out the picture.
package kernel

import "fmt"

// SimulatorID uniquely identifies a Simulator (and its backing AtomicModel)
// within a Coordinator's arena. IDs are assigned monotonically and never
// reused, including for models created by an Executive mid-run.
type SimulatorID uint32

func (id SimulatorID) String() string {
	return fmt.Sprintf("#%d", uint32(id))
}

// PortName names an input or output port on a simulator.
type PortName string

// ViewID uniquely identifies an Observer.
type ViewID string

// Port identifies a (simulator, port) pair — spec.md §3's port identity.
type Port struct {
	Simulator SimulatorID
	Name      PortName
}

func (p Port) String() string {
	return fmt.Sprintf("%s.%s", p.Simulator, p.Name)
}
