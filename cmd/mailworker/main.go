package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/app"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/mail"
	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
)

const consumerTag = "npfa-mailworker"

// mailworker drains the email queue filled by MAIL_DRIVER=amqp and delivers
// each job through Mailgun.
func main() {
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := slogx.New(slogx.Config{
		Service: "mail-worker",
		Version: app.BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	fatal := func(msg string, err error) {
		logger.Error(msg, slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.RabbitMQURL == "" {
		fatal("rabbitmq not configured", errors.New("RABBITMQ_URL is empty"))
	}

	mg, err := mail.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailFrom)
	if err != nil {
		fatal("mailgun", err)
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		fatal("amqp dial", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		fatal("amqp channel", err)
	}
	defer func() { _ = ch.Close() }()

	// Fair dispatch across workers
	if err := ch.Qos(16, 0, false); err != nil {
		fatal("qos", err)
	}
	if err := mail.DeclareQueue(ch, cfg.RabbitMQEmailQueue); err != nil {
		fatal("queue declare", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, consumerTag, false, false, false, false, nil)
	if err != nil {
		fatal("consume", err)
	}

	// Login links are worthless once the token behind them has expired
	policy := mail.RetryPolicy{MaxAttempts: mail.DefaultMaxAttempts, MaxAge: domain.LoginTokenTTL}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			attempts := mail.Attempts(msg.Headers)

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			ack, err := policy.HandleJob(ctx, msg.Body, attempts, mg)
			if ack == mail.AckRetry {
				logger.Warn("email delivery failed, retrying", slog.Int("attempt", attempts+1), slog.Any("error", err))
				if perr := mail.Republish(ctx, ch, cfg.RabbitMQEmailQueue, msg.Body, attempts+1); perr != nil {
					logger.Error("republish failed, requeueing", slog.Any("error", perr))
					_ = msg.Nack(false, true)
					cancel()
					continue
				}
				ack = mail.AckDone
			}
			cancel()

			switch ack {
			case mail.AckDone:
				_ = msg.Ack(false)
			case mail.AckDiscard:
				logger.Error("dropping email job", slog.Int("attempts", attempts), slog.Any("error", err))
				_ = msg.Nack(false, false)
			}
		}
	}()

	logger.Info("mail worker listening", "queue", cfg.RabbitMQEmailQueue)
	<-stop
	logger.Info("shutting down...")
	_ = ch.Cancel(consumerTag, false)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
