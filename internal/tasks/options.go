package tasks

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

type cronSchedule struct {
	expr string
	next time.Time
}

func (s cronSchedule) String() string {
	return fmt.Sprintf("cron=%s", s.expr)
}

func (s cronSchedule) Type() asynq.OptionType {
	return asynq.ProcessAtOpt
}

// Value returns the computed activation time; asynq reads ProcessAtOpt
// values as time.Time.
func (s cronSchedule) Value() interface{} {
	return s.next
}

// CronSchedule returns an option processing a one-off task at the next
// slot of a cron expression
func CronSchedule(expr string) asynq.Option {
	s := cronSchedule{expr: expr}
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		// Fall back to a default interval if parsing fails
		s.next = time.Now().Add(1 * time.Hour)
		return s
	}
	s.next = schedule.Next(time.Now())
	return s
}
