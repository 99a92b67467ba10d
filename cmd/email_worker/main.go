package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-travel-booking/config"
	"github.com/oksasatya/go-travel-booking/pkg/helpers"
	"github.com/oksasatya/go-travel-booking/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// prefetch for fair dispatch across workers
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}
	if err := helpers.DeclareQueue(ch, cfg.RabbitMQEmailQueue); err != nil {
		log.Fatalf("queue declare: %v", err)
	}
	if err := helpers.DeclareRetryQueues(ch, cfg.RabbitMQEmailQueue, retryDelay); err != nil {
		log.Fatalf("retry queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	w := &worker{
		mail: mailer.NewMailgun(mailer.MailgunConfig{
			Domain:  cfg.MailgunDomain,
			APIKey:  cfg.MailgunAPIKey,
			Sender:  cfg.MailgunSender,
			APIBase: cfg.MailgunAPIBase,
		}),
		logger:  logger,
		timeout: 15 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		ctx := context.Background()
		queue := cfg.RabbitMQEmailQueue
		for msg := range msgs {
			attempt := helpers.RetryCount(msg.Headers) + 1
			err := w.handle(ctx, msg.Body)
			var target string
			switch dispose(err, attempt, maxDeliveryAttempts) {
			case ack:
				_ = msg.Ack(false)
				continue
			case retry:
				target = helpers.RetryQueue(queue)
			case deadLetter:
				target = helpers.DeadQueue(queue)
			}
			if ferr := helpers.Forward(ctx, ch, target, msg.Body, attempt); ferr != nil {
				logger.WithError(ferr).WithField("queue", target).Error("forward failed")
				_ = msg.Nack(false, false)
				continue
			}
			logger.WithFields(logrus.Fields{"queue": target, "attempt": attempt}).Warn("email job forwarded")
			_ = msg.Ack(false)
		}
		close(done)
	}()

	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	<-stop
	logger.Info("shutting down...")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

const (
	maxDeliveryAttempts = 5
	retryDelay          = 30 * time.Second
)

var errPermanent = errors.New("permanent failure")

type disposition int

const (
	ack disposition = iota
	retry
	deadLetter
)

// dispose settles a delivery after its attempt-th handling returned err.
// Transient failures go through the delayed retry queue until attempts run out.
func dispose(err error, attempt, maxAttempts int) disposition {
	switch {
	case err == nil:
		return ack
	case errors.Is(err, errPermanent), attempt >= maxAttempts:
		return deadLetter
	}
	return retry
}

type sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

type worker struct {
	mail    sender
	logger  *logrus.Logger
	timeout time.Duration
}

// handle delivers one queued job. Malformed or unrenderable jobs are permanent
// failures; delivery errors are returned as is so the caller can retry.
func (w *worker) handle(ctx context.Context, body []byte) error {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.logger.WithError(err).Warn("bad message")
		return errPermanent
	}
	subject, text, html, err := job.Content()
	if err != nil {
		w.logger.WithError(err).WithField("template", job.Template).Warn("render failed")
		return errPermanent
	}

	c, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.mail.Send(c, job.To, subject, text, html); err != nil {
		w.logger.WithError(err).WithField("subject", subject).Error("send failed")
		return err
	}
	w.logger.WithField("subject", subject).Info("email sent")
	return nil
}
