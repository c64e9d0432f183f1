package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/agroflight/backend-shop/internal/events"
)

// Enqueuer translates domain events into queued email tasks. It implements
// events.Notifier; topics without an email simply pass through.
type Enqueuer struct {
	Client *asynq.Client
	Logger zerolog.Logger
}

// Notify implements events.Notifier.
func (e *Enqueuer) Notify(ctx context.Context, event events.Event) error {
	if e == nil || e.Client == nil {
		return nil
	}
	taskType, ok := taskTypeFor(event.Topic)
	if !ok {
		return nil
	}
	// The event payload already has the shape the task expects; it was built
	// by the same process that emitted it.
	if !json.Valid(event.Payload) {
		return fmt.Errorf("notify: event %s carries invalid payload", event.ID)
	}
	task := asynq.NewTask(taskType, event.Payload, asynq.MaxRetry(5))
	info, err := e.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("notify: enqueue %s: %w", taskType, err)
	}
	e.Logger.Debug().
		Str("task_id", info.ID).
		Str("task_type", taskType).
		Str("event_id", event.ID.String()).
		Msg("notification enqueued")
	return nil
}

func taskTypeFor(topic string) (string, bool) {
	switch topic {
	case events.TopicOrderCreated:
		return TaskEmailOrderCreated, true
	case events.TopicOrderStatusChanged:
		return TaskEmailOrderStatus, true
	case events.TopicCustomerStatusChanged:
		return TaskEmailCustomerStatus, true
	default:
		return "", false
	}
}
