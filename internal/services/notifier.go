package services

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	apperrors "taskhub/internal/domain/errors"
)

type EventKind string

const (
	EventPasswordReset     EventKind = "password-reset"
	EventWelcome           EventKind = "welcome"
	EventTaskCreated       EventKind = "task-created"
	EventTaskStatusChanged EventKind = "task-status-changed"
)

type Recipient struct {
	ID    string
	Email string
}

// Event is one outbound notification: what happened, who hears about it, and
// the template variables for the message body.
type Event struct {
	Kind    EventKind
	To      Recipient
	Payload map[string]string
}

// NotificationGateway makes exactly one delivery attempt per event. It does
// not retry, queue, or guarantee delivery; any provider failure comes back as
// a NotificationError.
type NotificationGateway interface {
	Notify(ctx context.Context, event Event) error
}

// EventSink accepts events for later delivery. Enqueue must not block the
// caller.
type EventSink interface {
	Enqueue(event Event)
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailGateway struct {
	sender mailSender
	from   string
}

// NewEmailGateway returns a NotificationGateway backed by an SMTP provider.
func NewEmailGateway(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) NotificationGateway {
	return &emailGateway{
		sender: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
	}
}

func (g *emailGateway) Notify(ctx context.Context, event Event) error {
	subject, body, err := renderEvent(event)
	if err != nil {
		return &apperrors.NotificationError{Event: string(event.Kind), Reason: err}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", g.from)
	m.SetHeader("To", event.To.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	// gomail only bounds the dial, not the SMTP session, so the send runs on
	// its own goroutine and the context deadline is enforced here. On timeout
	// the goroutine is abandoned along with its connection.
	errCh := make(chan error, 1)
	go func() { errCh <- g.sender.DialAndSend(m) }()

	select {
	case <-ctx.Done():
		return &apperrors.NotificationError{Event: string(event.Kind), Reason: ctx.Err()}
	case err := <-errCh:
		if err != nil {
			return &apperrors.NotificationError{Event: string(event.Kind), Reason: err}
		}
	}
	return nil
}

func renderEvent(event Event) (subject, body string, err error) {
	p := event.Payload
	switch event.Kind {
	case EventPasswordReset:
		subject = "Password reset request"
		body = fmt.Sprintf(`
			<h3>Password reset requested</h3>
			<p>We received a request to reset the password for your account.</p>
			<p>Use the following link to reset your password: <a href="%s">%s</a></p>
			<p>If you did not request this change, you can ignore this email or contact %s.</p>
		`, p["resetLink"], p["resetLink"], p["securityEmail"])
	case EventWelcome:
		subject = "Welcome to Taskhub!"
		body = fmt.Sprintf(`
			<h2>Welcome to Taskhub, %s!</h2>
			<p>Thank you for registering with us. We're excited to have you on board.</p>
			<p>Your account has been successfully created.</p>
			<p>Best regards,<br>The Taskhub Team</p>
		`, p["name"])
	case EventTaskCreated:
		subject = "New task assigned to you"
		body = fmt.Sprintf(`
			<h3>You have been assigned a new task</h3>
			<p><strong>%s</strong></p>
			<p>Priority: %s</p>
		`, p["title"], p["priority"])
	case EventTaskStatusChanged:
		subject = "Task status changed"
		body = fmt.Sprintf(`
			<h3>A task assigned to you changed status</h3>
			<p><strong>%s</strong></p>
			<p>New status: %s</p>
		`, p["title"], p["status"])
	default:
		return "", "", fmt.Errorf("unknown event kind %q", event.Kind)
	}
	return subject, body, nil
}
