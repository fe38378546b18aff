package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/hazard-reporting/pkg/mailer"
	mailtpl "github.com/oksasatya/hazard-reporting/pkg/mailer/templates"
)

// ErrMalformed marks a message that can never be delivered and should be dropped.
var ErrMalformed = errors.New("malformed notification")

type MailSender interface {
	SendJob(ctx context.Context, job mailer.EmailJob, render func(name string, data any) (string, string, string, error)) error
}

type SMSSender interface {
	Send(ctx context.Context, to, text string) error
}

// Dispatcher fans a new-report notification out to admin emails and phones.
type Dispatcher struct {
	AppName      string
	DashboardURL string
	Emails       []string
	Phones       []string
	Mail         MailSender // nil disables email
	SMS          SMSSender  // nil disables SMS
	Logger       *logrus.Logger
}

// Handle processes one queue message. It returns ErrMalformed for bodies that cannot be
// decoded and the first delivery error otherwise; every recipient is still attempted.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) error {
	var n NewReportNotification
	if err := json.Unmarshal(body, &n); err != nil || n.ReportID == "" {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	data := mailtpl.NewReportAlertData(d.AppName, n.ReportID, n.Description, n.Urgency,
		n.Latitude, n.Longitude, n.ReportedBy, n.CreatedAt,
		mailtpl.WithImage(n.ImageURL), mailtpl.WithDashboardURL(d.DashboardURL))

	var firstErr error
	record := func(err error, fields logrus.Fields) {
		if err == nil {
			return
		}
		if d.Logger != nil {
			d.Logger.WithError(err).WithFields(fields).Warn("admin alert delivery failed")
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if d.Mail != nil {
		for _, to := range d.Emails {
			job := mailer.EmailJob{To: to, Template: mailtpl.NewReport, Data: data}
			record(d.Mail.SendJob(ctx, job, mailtpl.Render), logrus.Fields{"report_id": n.ReportID, "to": to, "channel": "email"})
		}
	}
	if d.SMS != nil {
		for _, to := range d.Phones {
			record(d.SMS.Send(ctx, to, data.SMSText()), logrus.Fields{"report_id": n.ReportID, "to": to, "channel": "sms"})
		}
	}
	return firstErr
}
