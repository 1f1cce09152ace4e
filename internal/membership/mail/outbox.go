package mail

import (
	"context"
	"log/slog"
	"sync"

	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
)

// DefaultOutboxSize is how many messages the dev outbox keeps.
const DefaultOutboxSize = 50

// Outbox is the "log" driver. Messages are logged (recipient masked) and kept
// in memory, newest first, for the dev-only diagnostic endpoint. It must not
// be wired up in production.
type Outbox struct {
	mu    sync.Mutex
	size  int
	items []Message
}

func NewOutbox(size int) *Outbox {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	return &Outbox{size: size}
}

func (o *Outbox) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	o.mu.Lock()
	o.items = append([]Message{msg}, o.items...)
	if len(o.items) > o.size {
		o.items = o.items[:o.size]
	}
	o.mu.Unlock()

	slogx.FromContext(ctx).Info("email captured in dev outbox",
		slogx.Email("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("tag", msg.Tag),
	)
	return nil
}

// Messages returns a copy of the outbox, newest first.
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Message, len(o.items))
	copy(out, o.items)
	return out
}

// Latest returns the newest message addressed to to.
func (o *Outbox) Latest(to string) (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, m := range o.items {
		if m.To == to {
			return m, true
		}
	}
	return Message{}, false
}
