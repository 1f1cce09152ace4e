// Package mail delivers outbound email. Drivers: "log" keeps messages in a
// dev outbox, "mailgun" sends directly, "amqp" queues jobs for cmd/mailworker.
package mail

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoRecipient   = errors.New("mail: message has no recipient")
	ErrNotConfigured = errors.New("mail: driver not configured")
)

const (
	DriverLog     = "log"
	DriverMailgun = "mailgun"
	DriverAMQP    = "amqp"
)

// Message is a rendered email. It doubles as the queued job payload.
type Message struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
	Tag     string `json:"tag,omitempty"`

	// ActionURL is the link the email is about, kept for the dev outbox.
	ActionURL string    `json:"action_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (m Message) validate() error {
	if m.To == "" {
		return ErrNoRecipient
	}
	return nil
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// MailerFunc adapts a function to Mailer.
type MailerFunc func(ctx context.Context, msg Message) error

func (f MailerFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }
