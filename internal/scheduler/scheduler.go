// Package scheduler defers one-shot offer-expiry callbacks through a
// Redis-backed task queue. Each granted offer enqueues a single task that
// fires when the purchase window closes; the handler is an idempotent no-op
// if the offer converted or was already reclaimed.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"gatepass/internal/logger"
)

const TaskOfferExpire = "offer:expire"

type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// OfferExpirePayload identifies the offer the task should expire
type OfferExpirePayload struct {
	EntryID string `json:"entry_id"`
	EventID string `json:"event_id"`
}

func redisOpt(cfg Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// Client enqueues deferred expiry tasks; it implements the scheduling
// dependency of the admission controller.
type Client struct {
	client *asynq.Client
}

func NewClient(cfg Config) *Client {
	return &Client{client: asynq.NewClient(redisOpt(cfg))}
}

// ScheduleOfferExpiry enqueues a task that fires once the offer window has
// elapsed. The task id is derived from the entry id, so re-scheduling the
// same offer is a no-op.
func (c *Client) ScheduleOfferExpiry(ctx context.Context, entryID, eventID string, after time.Duration) error {
	payload, err := json.Marshal(OfferExpirePayload{EntryID: entryID, EventID: eventID})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TaskOfferExpire, payload)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessIn(after),
		asynq.TaskID("offer-expire:"+entryID),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second))
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("failed to enqueue expiry task: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// OfferExpirer is what the worker needs from the business layer
type OfferExpirer interface {
	ExpireOffer(ctx context.Context, entryID string) error
}

// Server consumes the expiry tasks in the worker process
type Server struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

func NewServer(cfg Config, expirer OfferExpirer) *Server {
	srv := asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency: cfg.Concurrency,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Get().Error("Task failed", "type", task.Type(), "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskOfferExpire, func(ctx context.Context, task *asynq.Task) error {
		var payload OfferExpirePayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		return expirer.ExpireOffer(ctx, payload.EntryID)
	})

	return &Server{srv: srv, mux: mux}
}

func (s *Server) Run() error {
	return s.srv.Run(s.mux)
}

func (s *Server) Shutdown() {
	s.srv.Shutdown()
}
