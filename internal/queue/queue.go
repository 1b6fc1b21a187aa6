// Package queue moves slow side effects off the request path. The
// console enqueues tasks; cmd/worker consumes them.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/safeguardai/console/internal/config"
	"github.com/safeguardai/console/internal/email"
	"github.com/safeguardai/console/internal/logging"
	"github.com/safeguardai/console/internal/rbac"
)

const TypeInviteEmail = "email:invite"

type InviteEmailPayload struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  rbac.Role `json:"role"`
}

type TaskQueue struct {
	client *asynq.Client
}

func NewQueue(cfg *config.RedisConfig) (*TaskQueue, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis queue: %w", err)
	}

	logging.Info("Connected to Redis task queue")

	return &TaskQueue{client: client}, nil
}

// NotifyInvite satisfies auth.InviteNotifier by queueing the email.
func (q *TaskQueue) NotifyInvite(ctx context.Context, name, address string, role rbac.Role) error {
	payload, err := json.Marshal(InviteEmailPayload{Name: name, Email: address, Role: role})
	if err != nil {
		return fmt.Errorf("failed to marshal invite payload: %w", err)
	}

	_, err = q.client.EnqueueContext(ctx, asynq.NewTask(TypeInviteEmail, payload))
	return err
}

func (q *TaskQueue) Close() error {
	return q.client.Close()
}

// EmailSender is what the worker needs from an email backend.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type Worker struct {
	server     *asynq.Server
	sender     EmailSender
	consoleURL string
}

func NewWorker(cfg *config.RedisConfig, sender EmailSender, consoleURL string) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logging.Error("process task failed", "type", task.Type(), "payload", string(task.Payload()), "error", err)
			}),
		},
	)

	return &Worker{server: server, sender: sender, consoleURL: consoleURL}
}

func (w *Worker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeInviteEmail, w.HandleInviteEmail)

	return w.server.Start(mux)
}

func (w *Worker) Close() {
	if w.server != nil {
		w.server.Shutdown()
	}
}

func (w *Worker) HandleInviteEmail(ctx context.Context, t *asynq.Task) error {
	var p InviteEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	subject, body := email.ComposeInvite(p.Name, p.Email, p.Role, w.consoleURL)

	logging.Info("Sending invite email", "to", p.Email, "role", p.Role)
	if err := w.sender.SendEmail(ctx, p.Email, subject, body); err != nil {
		return fmt.Errorf("sender.SendEmail failed: %w", err)
	}

	return nil
}
