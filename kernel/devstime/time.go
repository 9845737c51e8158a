// Package devstime implements the extended non-negative time scalar used
// throughout the simulation kernel: a total order over [0, +Inf] with a
// saturating Add, matching VLE's devs::Time semantics.
package devstime

import "math"

// Time is a non-negative extended real. Infinity represents a quiescent
// model's time advance. Two Time values are equal iff bit-identical
// (Zero == Zero, Infinity == Infinity, NaN is never produced).
type Time float64

// Zero is the origin of simulated time.
const Zero Time = 0

// Infinity represents a simulator that never schedules another internal
// transition absent an external event.
const Infinity Time = Time(math.Inf(1))

// New constructs a Time from a float64, clamping negative inputs to Zero.
// Per spec, times are never negative; callers that can produce a negative
// delta (a buggy time_advance) should check the raw value for < 0
// before calling New so the caller can raise ScheduleError instead of
// silently clamping.
func New(t float64) Time {
	if t < 0 {
		return Zero
	}
	return Time(t)
}

// IsInfinite reports whether t is the Infinity sentinel.
func (t Time) IsInfinite() bool {
	return math.IsInf(float64(t), 1)
}

// IsZero reports whether t is exactly Zero.
func (t Time) IsZero() bool {
	return t == Zero
}

// Less reports whether t orders strictly before u.
func (t Time) Less(u Time) bool {
	return t < u
}

// LessEqual reports whether t orders at or before u.
func (t Time) LessEqual(u Time) bool {
	return t <= u
}

// Add returns t+delta, saturating to Infinity. delta must be non-negative;
// a negative delta (time_advance returning < 0) is the caller's
// ScheduleError to raise, not Add's to silently absorb.
func (t Time) Add(delta Time) Time {
	if t.IsInfinite() || delta.IsInfinite() {
		return Infinity
	}
	return Time(float64(t) + float64(delta))
}

// Float64 exposes the underlying scalar, e.g. for textual encoding.
func (t Time) Float64() float64 {
	return float64(t)
}
