package kernerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vle-project/devskernel/kernel/devstime"
)

func TestIs_MatchesByKindOnly(t *testing.T) {
	cause := errors.New("boom")
	err := New(ScheduleError, devstime.New(3), 7, "gen1", cause)
	assert.True(t, errors.Is(err, Sentinel(ScheduleError)))
	assert.False(t, errors.Is(err, Sentinel(StructuralError)))
}

func TestUnwrap_ReturnsCause(t *testing.T) {
	cause := errors.New("boom")
	err := New(UserFault, devstime.Zero, 1, "m", cause)
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestError_IncludesKindTimeAndSimulator(t *testing.T) {
	err := New(ModelFactoryError, devstime.New(2.5), 9, "overseer", errors.New("no such class"))
	msg := err.Error()
	assert.Contains(t, msg, "model_factory")
	assert.Contains(t, msg, "overseer")
	assert.Contains(t, msg, "no such class")
}

func TestError_FormatsInfiniteTime(t *testing.T) {
	err := New(ScheduleError, devstime.Infinity, 0, "", errors.New("x"))
	assert.Contains(t, err.Error(), "+Inf")
}
