package mailer

import (
	"context"
	"errors"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const defaultMailgunTimeout = 10 * time.Second

var ErrNoRecipient = errors.New("mail has no recipient")

// MailgunConfig carries the sending domain and account settings.
// APIBase is optional and selects the regional endpoint, e.g. mg.APIBaseEU.
type MailgunConfig struct {
	Domain  string
	APIKey  string
	Sender  string
	APIBase string
	Timeout time.Duration
}

// Mailgun delivers mail synchronously through the Mailgun API.
type Mailgun struct {
	client  *mg.MailgunImpl
	sender  string
	timeout time.Duration
}

func NewMailgun(cfg MailgunConfig) *Mailgun {
	client := mg.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		client.SetAPIBase(cfg.APIBase)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultMailgunTimeout
	}
	return &Mailgun{client: client, sender: cfg.Sender, timeout: timeout}
}

// Send sends one message; html is attached when non-empty.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	if to == "" {
		return ErrNoRecipient
	}
	msg := m.client.NewMessage(m.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}
