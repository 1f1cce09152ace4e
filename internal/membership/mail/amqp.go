package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue is the queue name used when none is configured.
const DefaultQueue = "npfa.email"

// Publisher is the "amqp" driver: messages are queued as JSON jobs on a
// durable queue and delivered by cmd/mailworker.
type Publisher struct {
	conn  *amqp.Connection
	Queue string

	mu sync.Mutex
	ch *amqp.Channel
}

func NewPublisher(url, queue string) (*Publisher, error) {
	if url == "" {
		return nil, ErrNotConfigured
	}
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: channel: %w", err)
	}
	if err := DeclareQueue(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, ch: ch, Queue: queue}, nil
}

// DeclareQueue declares the durable job queue. Producer and consumer both
// call it so either can start first.
func DeclareQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("amqp: queue declare: %w", err)
	}
	return nil
}

// Send publishes msg. A channel is not safe for concurrent publishes, so
// calls are serialized.
func (p *Publisher) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return publish(ctx, p.ch, p.Queue, body, nil)
}

// Republish puts a failed job back on queue with its attempt count bumped.
func Republish(ctx context.Context, ch *amqp.Channel, queue string, body []byte, attempts int) error {
	return publish(ctx, ch, queue, body, amqp.Table{HeaderAttempts: int32(attempts)})
}

func publish(ctx context.Context, ch *amqp.Channel, queue string, body []byte, headers amqp.Table) error {
	return ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Headers:      headers,
			Body:         body,
		},
	)
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// HeaderAttempts counts failed deliveries of a job.
const HeaderAttempts = "x-npfa-attempts"

var (
	ErrJobExpired       = errors.New("mail: job outlived its link")
	ErrRetriesExhausted = errors.New("mail: delivery retries exhausted")
)

// Ack is what a consumer should do with a delivery after handling it.
type Ack int

const (
	AckDone    Ack = iota // delivered, remove from queue
	AckRetry              // transient failure, republish with attempts+1
	AckDiscard            // poison, expired or exhausted, drop
)

// RetryPolicy bounds how long a job keeps being retried.
type RetryPolicy struct {
	// MaxAttempts is the number of delivery attempts before a job is dropped.
	MaxAttempts int
	// MaxAge drops jobs created longer ago than this; a stale login link is
	// useless. Zero disables the check.
	MaxAge time.Duration
	Now    func() time.Time
}

// DefaultMaxAttempts is used when RetryPolicy.MaxAttempts is not positive.
const DefaultMaxAttempts = 5

// HandleJob decodes one queued job and delivers it through m. attempts is
// how many times the job already failed.
func (p RetryPolicy) HandleJob(ctx context.Context, body []byte, attempts int, m Mailer) (Ack, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return AckDiscard, fmt.Errorf("mail: bad job: %w", err)
	}
	if err := msg.validate(); err != nil {
		return AckDiscard, err
	}

	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	if p.MaxAge > 0 && !msg.CreatedAt.IsZero() && now.Sub(msg.CreatedAt) > p.MaxAge {
		return AckDiscard, ErrJobExpired
	}

	if err := m.Send(ctx, msg); err != nil {
		limit := p.MaxAttempts
		if limit <= 0 {
			limit = DefaultMaxAttempts
		}
		if attempts+1 >= limit {
			return AckDiscard, fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
		}
		return AckRetry, err
	}
	return AckDone, nil
}

// Attempts reads HeaderAttempts from delivery headers; missing means zero.
func Attempts(headers amqp.Table) int {
	switch v := headers[HeaderAttempts].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
