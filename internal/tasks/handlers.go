package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mailproof/internal/models"
	"mailproof/internal/services"
	"mailproof/internal/tasks/rate"
	"mailproof/internal/utils/logger"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// TaskHandler handles task processing with improved error handling and logging
type TaskHandler struct {
	db         *gorm.DB
	verify     *services.VerifyService
	logger     *logger.Logger
	taskClient *TaskClient
	limiter    *rate.QueueRateLimiter
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(db *gorm.DB, verify *services.VerifyService, taskClient *TaskClient) *TaskHandler {
	return &TaskHandler{
		db:         db,
		verify:     verify,
		logger:     logger.New("task_handler"),
		taskClient: taskClient,
		limiter: rate.NewQueueRateLimiter(taskClient.GetRedis(), rate.QueueConfig{
			Name: QueueCritical,
			RateLimit: rate.RateLimit{
				Window:  time.Minute,
				MaxJobs: 30,
			},
		}),
	}
}

// HandleListPoll syncs one processing list against the remote job state
// and reschedules itself until the list reaches a terminal state.
func (h *TaskHandler) HandleListPoll(ctx context.Context, t *asynq.Task) error {
	var payload PollPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid poll payload: %w", err)
	}

	list, err := models.GetEmailListByID(payload.ListID, h.db.WithContext(ctx))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.logger.Info("Poll chain for list %s stopped: list gone", payload.ListID)
			return nil
		}
		return fmt.Errorf("failed to load list %s: %w", payload.ListID, err)
	}
	if list.Status != models.ListStatusProcessing {
		h.logger.Info("Poll chain for list %s stopped: status is %s", payload.ListID, list.Status)
		return nil
	}

	allowed, err := h.limiter.Allow(ctx, payload.ListID)
	if err != nil {
		h.logger.Warn("rate limiter unavailable, polling anyway: %v", err)
	} else if !allowed {
		h.logger.Info("Poll for list %s rate limited, rescheduling", payload.ListID)
		return h.taskClient.EnqueuePoll(payload.ListID, payload.ActorID)
	}

	result, err := h.verify.Poll(ctx, payload.ActorID, "", payload.ListID)
	if err != nil {
		// A vanished or conflicting list ends the poll chain quietly.
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrConflict) {
			h.logger.Info("Poll chain for list %s stopped: %v", payload.ListID, err)
			return nil
		}
		return err
	}

	if result.List.Status == models.ListStatusProcessing {
		return h.taskClient.EnqueuePoll(payload.ListID, payload.ActorID)
	}

	h.logger.Success("List %s reached %s, poll chain complete", payload.ListID, result.List.Status)
	return nil
}

// HandleListSweep polls every processing list on behalf of its owner. It
// backstops poll chains lost to restarts or dropped queues.
func (h *TaskHandler) HandleListSweep(ctx context.Context, t *asynq.Task) error {
	var lists []models.EmailList
	if err := h.db.WithContext(ctx).
		Where("status = ? AND deleted_at IS NULL AND job_id <> ''", models.ListStatusProcessing).
		Find(&lists).Error; err != nil {
		return fmt.Errorf("failed to load processing lists: %w", err)
	}

	for _, list := range lists {
		if _, err := h.verify.Poll(ctx, list.UserID, "", list.ID); err != nil {
			h.logger.Warn("sweep poll failed for list %s: %v", list.ID, err)
		}
	}

	if len(lists) > 0 {
		h.logger.Info("Swept %d processing lists", len(lists))
	}
	return nil
}
