package mailer

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// Publisher enqueues a JSON payload.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueSender hands pre-rendered mail to the email worker through the queue.
type QueueSender struct {
	Pub Publisher
}

func NewQueueSender(pub Publisher) *QueueSender {
	return &QueueSender{Pub: pub}
}

func (q *QueueSender) Send(ctx context.Context, to, subject, text, html string) error {
	if q.Pub == nil {
		return errors.New("mail queue not configured")
	}
	return q.Pub.PublishJSON(ctx, EmailJob{To: to, Subject: subject, Text: text, HTML: html})
}

// LogSender records outgoing mail in the log instead of delivering it.
// Used when MAIL_SEND_ENABLED=false or MAIL_TRANSPORT=log.
type LogSender struct {
	Logger *logrus.Logger
}

func (l *LogSender) Send(ctx context.Context, to, subject, text, html string) error {
	if l.Logger != nil {
		l.Logger.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("mail delivery disabled; message dropped")
	}
	return nil
}
