package tasks

import (
	"encoding/json"
	"fmt"

	"mailproof/internal/utils/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// TaskClient handles task enqueuing with improved error handling and context support
type TaskClient struct {
	client       *asynq.Client
	logger       *logger.Logger
	redisOptions *redis.Options
	redisClient  *redis.Client
}

func (c *TaskClient) GetClient() *asynq.Client {
	return c.client
}

func (c *TaskClient) GetRedis() *redis.Client {
	return c.redisClient
}

// NewTaskClient creates a new TaskClient with the given Redis configuration
func NewTaskClient(redisAddr, username, password string, db int) *TaskClient {
	redisOpt := asynq.RedisClientOpt{
		Addr:     redisAddr,
		Username: username,
		Password: password,
		DB:       db,
	}

	redisClient := redis.NewClient(
		&redis.Options{
			Addr:     redisAddr,
			Username: username,
			Password: password,
			DB:       db,
		},
	)

	return &TaskClient{
		client: asynq.NewClient(redisOpt),
		redisOptions: &redis.Options{
			Addr:     redisAddr,
			Username: username,
			Password: password,
			DB:       db,
		},
		redisClient: redisClient,
		logger:      logger.New("TASKS"),
	}
}

// EnqueuePoll schedules a status poll for a processing list. Implements
// the enqueuer contract of the verification service.
func (c *TaskClient) EnqueuePoll(listID, actorID string) error {
	payload, err := json.Marshal(PollPayload{ListID: listID, ActorID: actorID})
	if err != nil {
		return fmt.Errorf("failed to marshal poll payload: %w", err)
	}

	task := asynq.NewTask(TaskTypeListPoll, payload)
	info, err := c.client.Enqueue(task,
		asynq.Queue(QueueCritical),
		asynq.ProcessIn(PollInterval),
		asynq.MaxRetry(RetryDefault),
		asynq.Timeout(TimeoutShort),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue poll for list %s: %w", listID, err)
	}

	c.logger.Info("Enqueued status poll %s for list %s", info.ID, listID)
	return nil
}

// EnqueueSweep schedules a one-off sweep at the next cron slot. Called
// at boot so lists left processing across a restart are picked up before
// the periodic scheduler settles.
func (c *TaskClient) EnqueueSweep() error {
	task := asynq.NewTask(TaskTypeListSweep, nil)
	info, err := c.client.Enqueue(task,
		asynq.Queue(QueueLow),
		asynq.Timeout(TimeoutMedium),
		CronSchedule(SweepCronSpec),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue sweep: %w", err)
	}

	c.logger.Info("Enqueued catch-up sweep %s", info.ID)
	return nil
}

// Close closes the underlying asynq client
func (c *TaskClient) Close() error {
	return c.client.Close()
}
