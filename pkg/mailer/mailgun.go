package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun wraps Mailgun client configuration.
type Mailgun struct {
	Domain string
	APIKey string
	Sender string
	client *mg.MailgunImpl
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{Domain: domain, APIKey: apiKey, Sender: sender, client: mg.NewMailgun(domain, apiKey)}
}

// Send sends an email via Mailgun. html is optional; if provided it will be used as HTML body.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}

// SendJob renders a template job when needed and sends it.
func (m *Mailgun) SendJob(ctx context.Context, job EmailJob, render func(name string, data any) (string, string, string, error)) error {
	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" && render != nil {
		s, t, h, err := render(job.Template, job.Data)
		if err != nil {
			return err
		}
		subject, text, html = s, t, h
	}
	return m.Send(ctx, job.To, subject, text, html)
}
