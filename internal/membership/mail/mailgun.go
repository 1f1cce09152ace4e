package mail

import (
	"context"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// MailgunTimeout bounds one API call.
const MailgunTimeout = 10 * time.Second

// Mailgun sends through the Mailgun HTTP API.
type Mailgun struct {
	client *mg.MailgunImpl
	Sender string
}

func NewMailgun(domain, apiKey, sender string) (*Mailgun, error) {
	if domain == "" || apiKey == "" || sender == "" {
		return nil, ErrNotConfigured
	}
	return &Mailgun{client: mg.NewMailgun(domain, apiKey), Sender: sender}, nil
}

// SetAPIBase points the client at another endpoint, e.g. the EU region.
func (m *Mailgun) SetAPIBase(url string) {
	m.client.SetAPIBase(url)
}

func (m *Mailgun) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	from := msg.From
	if from == "" {
		from = m.Sender
	}

	out := m.client.NewMessage(from, msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		out.SetHtml(msg.HTML)
	}
	if msg.Tag != "" {
		if err := out.AddTag(msg.Tag); err != nil {
			return fmt.Errorf("mailgun: tag: %w", err)
		}
	}

	c, cancel := context.WithTimeout(ctx, MailgunTimeout)
	defer cancel()
	if _, _, err := m.client.Send(c, out); err != nil {
		return fmt.Errorf("mailgun: send: %w", err)
	}
	return nil
}
