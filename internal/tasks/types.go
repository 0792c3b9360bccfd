package tasks

import "time"

// Task Types
const (
	// Bulk verification tasks
	TaskTypeListPoll  = "verify:poll"
	TaskTypeListSweep = "verify:sweep"
)

// Task Queues
const (
	QueueCritical = "critical" // For time-sensitive tasks like status polls
	QueueDefault  = "default"  // For regular tasks
	QueueLow      = "low"      // For background tasks like sweeps
)

// Task Priorities (1-10, higher is more important)
const (
	PriorityCritical = 10
	PriorityHigh     = 8
	PriorityNormal   = 5
	PriorityLow      = 3
	PriorityBG       = 1
)

// Task Timeouts
const (
	TimeoutShort  = 1 * time.Minute
	TimeoutMedium = 5 * time.Minute
	TimeoutLong   = 30 * time.Minute
)

// Task Retry Settings
const (
	RetryMax     = 5
	RetryDefault = 3
	RetryMin     = 1
)

// PollInterval is the delay between consecutive status polls of a
// processing list.
const PollInterval = 30 * time.Second

// SweepCronSpec is the cadence of the backstop sweep over processing
// lists whose poll chains were lost.
const SweepCronSpec = "*/10 * * * *"

// PollPayload identifies the list a poll task should sync and the identity
// the sync is performed as.
type PollPayload struct {
	ListID  string `json:"list_id"`
	ActorID string `json:"actor_id"`
}
