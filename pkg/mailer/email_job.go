package mailer

import (
	"errors"

	"github.com/oksasatya/go-travel-booking/pkg/mailer/templates"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Html is optional; Text is recommended as fallback.
// A job may instead name a Template with Data and the worker renders it.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "forgot_password"
	Data     map[string]any `json:"data,omitempty"`
}

// Content returns the subject and bodies to deliver, rendering Template when set.
func (j EmailJob) Content() (subject, text, html string, err error) {
	if j.To == "" {
		return "", "", "", errors.New("email job has no recipient")
	}
	if j.Template == "" {
		if j.Text == "" && j.HTML == "" {
			return "", "", "", errors.New("email job has no body")
		}
		return j.Subject, j.Text, j.HTML, nil
	}
	return templates.Render(j.Template, j.Data)
}
