package tasks

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronScheduleNextSlot(t *testing.T) {
	opt := CronSchedule(SweepCronSpec)
	assert.Equal(t, asynq.ProcessAtOpt, opt.Type())
	assert.Equal(t, "cron=*/10 * * * *", opt.String())

	next, ok := opt.Value().(time.Time)
	require.True(t, ok)
	assert.True(t, next.After(time.Now()))
	assert.LessOrEqual(t, time.Until(next), 10*time.Minute)
}

func TestCronScheduleInvalidExprFallsBack(t *testing.T) {
	opt := CronSchedule("not a cron spec")

	next, ok := opt.Value().(time.Time)
	require.True(t, ok)
	assert.InDelta(t, time.Hour.Seconds(), time.Until(next).Seconds(), 5)
}
