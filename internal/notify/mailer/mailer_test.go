package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"samved/internal/notify/models"
	"samved/internal/platform/config"
	id "samved/pkg/domain"
	"samved/pkg/platform/circuit"
)

type recordingSend struct {
	calls int
	err   error
	last  []byte
}

func (r *recordingSend) send(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
	r.calls++
	r.last = msg
	return r.err
}

func TestSMTPMailer(t *testing.T) {
	cfg := config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "noreply@samved.in"}
	ctx := context.Background()

	t.Run("encodes headers and body", func(t *testing.T) {
		rec := &recordingSend{}
		m := NewSMTP(cfg, withSendFunc(rec.send))
		err := m.Send(ctx, Message{To: "lead@abc.edu", Subject: "Hello", HTML: "<p>hi</p>"})
		require.NoError(t, err)
		assert.Contains(t, string(rec.last), "To: lead@abc.edu\r\n")
		assert.Contains(t, string(rec.last), "Content-Type: text/html")
		assert.Contains(t, string(rec.last), "<p>hi</p>")
	})

	t.Run("opens the circuit after repeated failures", func(t *testing.T) {
		rec := &recordingSend{err: errors.New("connection refused")}
		now := time.Now()
		breaker := circuit.New("smtp",
			circuit.WithFailureThreshold(2),
			circuit.WithCooldown(time.Minute),
			circuit.WithClock(func() time.Time { return now }),
		)
		var logs bytes.Buffer
		m := NewSMTP(cfg,
			withSendFunc(rec.send),
			WithBreaker(breaker),
			WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		)

		msg := Message{To: "a@b.edu", Subject: "s"}
		require.Error(t, m.Send(ctx, msg))
		require.Error(t, m.Send(ctx, msg))
		assert.Contains(t, logs.String(), "smtp circuit opened")

		err := m.Send(ctx, msg)
		assert.ErrorIs(t, err, ErrCircuitOpen)
		assert.Equal(t, 2, rec.calls, "open circuit must not reach the relay")
	})
}

func TestRender(t *testing.T) {
	t.Run("credentials for a new account carry the password", func(t *testing.T) {
		msg, err := Render(models.Intent{
			Kind:   models.KindCredentials,
			To:     "spoc@abc.edu",
			Name:   "Asha Rao",
			Grants: []models.Grant{{Role: id.RoleSPOC, Password: "Xy7#pass"}},
		})
		require.NoError(t, err)
		assert.Contains(t, msg.Subject, "Account Credentials (Institute SPOC Role)")
		assert.Contains(t, msg.HTML, "Xy7#pass")
		assert.Contains(t, msg.HTML, "Hello, Asha Rao!")
	})

	t.Run("combined spoc and mentor mail lists both roles", func(t *testing.T) {
		msg, err := Render(models.Intent{
			Kind: models.KindCredentials,
			To:   "both@abc.edu",
			Grants: []models.Grant{
				{Role: id.RoleSPOC, Password: "pw1"},
				{Role: id.RoleMentor},
			},
		})
		require.NoError(t, err)
		assert.Contains(t, msg.HTML, "Institute SPOC")
		assert.Contains(t, msg.HTML, "Institute Mentor")
		assert.Contains(t, msg.HTML, "existing credentials")
		assert.Contains(t, msg.Subject, "Institute Roles Assigned")
	})

	t.Run("rejection escapes the reason", func(t *testing.T) {
		msg, err := Render(models.Intent{
			Kind:     models.KindRegistrationRejected,
			To:       "lead@abc.edu",
			TeamName: "Byte Me",
			Reason:   "<script>x</script>",
		})
		require.NoError(t, err)
		assert.NotContains(t, msg.HTML, "<script>")
		assert.Contains(t, msg.Subject, `"Byte Me"`)
	})

	t.Run("in-app intents have no template", func(t *testing.T) {
		_, err := Render(models.Intent{Kind: models.KindInApp})
		assert.Error(t, err)
	})
}
