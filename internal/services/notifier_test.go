package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	apperrors "taskhub/internal/domain/errors"
)

type stubSender struct {
	sent []*gomail.Message
	err  error
}

func (s *stubSender) DialAndSend(m ...*gomail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, m...)
	return nil
}

func TestEmailGatewayNotify(t *testing.T) {
	sender := &stubSender{}
	g := &emailGateway{sender: sender, from: "noreply@test.local"}

	err := g.Notify(context.Background(), Event{
		Kind:    EventWelcome,
		To:      Recipient{ID: "u-1", Email: "alice@example.com"},
		Payload: map[string]string{"name": "Alice"},
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	m := sender.sent[0]
	assert.Equal(t, []string{"noreply@test.local"}, m.GetHeader("From"))
	assert.Equal(t, []string{"alice@example.com"}, m.GetHeader("To"))
	assert.Contains(t, m.GetHeader("Subject")[0], "Welcome")
}

func TestEmailGatewayProviderFailure(t *testing.T) {
	smtpErr := errors.New("dial tcp: connection refused")
	g := &emailGateway{sender: &stubSender{err: smtpErr}, from: "noreply@test.local"}

	err := g.Notify(context.Background(), Event{
		Kind: EventTaskCreated,
		To:   Recipient{Email: "bob@example.com"},
		Payload: map[string]string{
			"title":    "Fix prod",
			"priority": "high",
		},
	})
	require.Error(t, err)

	var notifErr *apperrors.NotificationError
	require.ErrorAs(t, err, &notifErr)
	assert.Equal(t, string(EventTaskCreated), notifErr.Event)
	assert.ErrorIs(t, err, smtpErr)
}

type hangingSender struct {
	release chan struct{}
}

func (s *hangingSender) DialAndSend(m ...*gomail.Message) error {
	<-s.release
	return nil
}

func TestEmailGatewayHonorsContextDeadline(t *testing.T) {
	sender := &hangingSender{release: make(chan struct{})}
	defer close(sender.release)
	g := &emailGateway{sender: sender, from: "noreply@test.local"}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := g.Notify(ctx, Event{
		Kind:    EventWelcome,
		To:      Recipient{Email: "alice@example.com"},
		Payload: map[string]string{"name": "Alice"},
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	var notifErr *apperrors.NotificationError
	require.ErrorAs(t, err, &notifErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEmailGatewayUnknownKind(t *testing.T) {
	g := &emailGateway{sender: &stubSender{}, from: "noreply@test.local"}

	err := g.Notify(context.Background(), Event{Kind: EventKind("carrier-pigeon")})
	var notifErr *apperrors.NotificationError
	require.ErrorAs(t, err, &notifErr)
}

func TestRenderEvent(t *testing.T) {
	tests := []struct {
		name        string
		event       Event
		wantSubject string
		wantInBody  []string
	}{
		{
			name: "password reset",
			event: Event{
				Kind: EventPasswordReset,
				Payload: map[string]string{
					"resetLink":     "https://app.test/reset?token=abc",
					"securityEmail": "security@test.local",
				},
			},
			wantSubject: "Password reset request",
			wantInBody:  []string{"https://app.test/reset?token=abc", "security@test.local"},
		},
		{
			name:        "welcome",
			event:       Event{Kind: EventWelcome, Payload: map[string]string{"name": "Alice"}},
			wantSubject: "Welcome to Taskhub!",
			wantInBody:  []string{"Alice"},
		},
		{
			name:        "task created",
			event:       Event{Kind: EventTaskCreated, Payload: map[string]string{"title": "Fix prod", "priority": "high"}},
			wantSubject: "New task assigned to you",
			wantInBody:  []string{"Fix prod", "high"},
		},
		{
			name:        "status changed",
			event:       Event{Kind: EventTaskStatusChanged, Payload: map[string]string{"title": "Fix prod", "status": "done"}},
			wantSubject: "Task status changed",
			wantInBody:  []string{"Fix prod", "done"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body, err := renderEvent(tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, subject)
			for _, want := range tt.wantInBody {
				assert.Contains(t, body, want)
			}
		})
	}
}
