package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/safeguardai/console/internal/email"
	"github.com/safeguardai/console/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingSender struct {
	to, subject, body string
	err               error
}

func (c *capturingSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if c.err != nil {
		return c.err
	}
	c.to, c.subject, c.body = to, subject, body
	return nil
}

func TestHandleInviteEmail(t *testing.T) {
	t.Run("delivers a composed invite", func(t *testing.T) {
		sender := &capturingSender{}
		w := &Worker{sender: sender, consoleURL: "http://localhost:5173"}

		payload, err := json.Marshal(InviteEmailPayload{
			Name: "New Staff", Email: "staff@example.com", Role: rbac.RoleStaff,
		})
		require.NoError(t, err)

		err = w.HandleInviteEmail(context.Background(), asynq.NewTask(TypeInviteEmail, payload))
		require.NoError(t, err)

		wantSubject, wantBody := email.ComposeInvite("New Staff", "staff@example.com", rbac.RoleStaff, "http://localhost:5173")
		assert.Equal(t, "staff@example.com", sender.to)
		assert.Equal(t, wantSubject, sender.subject)
		assert.Equal(t, wantBody, sender.body)
	})

	t.Run("malformed payload skips retry", func(t *testing.T) {
		w := &Worker{sender: &capturingSender{}, consoleURL: "http://localhost:5173"}

		err := w.HandleInviteEmail(context.Background(), asynq.NewTask(TypeInviteEmail, []byte("{not json")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("sender failure is retried", func(t *testing.T) {
		sender := &capturingSender{err: errors.New("ses unavailable")}
		w := &Worker{sender: sender, consoleURL: "http://localhost:5173"}

		payload, err := json.Marshal(InviteEmailPayload{Email: "staff@example.com", Role: rbac.RoleViewer})
		require.NoError(t, err)

		err = w.HandleInviteEmail(context.Background(), asynq.NewTask(TypeInviteEmail, payload))
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}
