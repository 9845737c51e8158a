// Package kernerr defines the structured error kinds the kernel surfaces
// to its embedder. Every kind is fatal to the run: the coordinator tears
// down, flushes sinks, and returns a single *KernelError describing the
// kind, simulated time, offending simulator, and underlying cause.
package kernerr

import (
	"fmt"

	"github.com/vle-project/devskernel/kernel/devstime"
)

// Kind discriminates the fatal error categories of spec.md §7.
type Kind string

const (
	// ModelFactoryError: named dynamics not found, library open failure,
	// symbol not found.
	ModelFactoryError Kind = "model_factory"
	// StructuralError: duplicate simulator name, connection to missing
	// port, self-loop, executive mutation outside its own transition call.
	StructuralError Kind = "structural"
	// ScheduleError: attempt to enqueue an event in the past, or
	// time_advance returning a negative time.
	ScheduleError Kind = "schedule"
	// ProtocolError: user Dynamics violates a DEVS invariant, e.g.
	// producing output while time_advance is infinite.
	ProtocolError Kind = "protocol"
	// UserFault: any error raised from user Dynamics code.
	UserFault Kind = "user_fault"
)

// KernelError is the single structured error type surfaced by the
// coordinator. It wraps an underlying cause and is comparable via
// errors.Is/errors.As by Kind.
type KernelError struct {
	Kind           Kind
	Time           devstime.Time
	SimulatorID    uint32
	SimulatorName  string
	Err            error
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("%s error at t=%s (simulator %s#%d): %v",
		e.Kind, formatTime(e.Time), e.SimulatorName, e.SimulatorID, e.Err)
}

func (e *KernelError) Unwrap() error { return e.Err }

// Is allows errors.Is(err, kernerr.Sentinel(kernerr.ScheduleError)) style
// matching against a bare Kind sentinel wrapped as a KernelError with no
// cause.
func (e *KernelError) Is(target error) bool {
	other, ok := target.(*KernelError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func formatTime(t devstime.Time) string {
	if t.IsInfinite() {
		return "+Inf"
	}
	return fmt.Sprintf("%g", t.Float64())
}

// New constructs a KernelError for the given kind, time, simulator identity
// and underlying cause.
func New(kind Kind, t devstime.Time, simID uint32, simName string, cause error) *KernelError {
	return &KernelError{Kind: kind, Time: t, SimulatorID: simID, SimulatorName: simName, Err: cause}
}

// Sentinel returns a bare KernelError usable only with errors.Is to test a
// Kind, e.g. errors.Is(err, kernerr.Sentinel(kernerr.ScheduleError)).
func Sentinel(kind Kind) *KernelError {
	return &KernelError{Kind: kind}
}
