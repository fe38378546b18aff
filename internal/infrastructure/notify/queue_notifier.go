package notify

import (
	"context"
	"time"

	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
)

// Publisher puts a JSON message on the notification queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// NewReportNotification is the message consumed by the notify worker.
type NewReportNotification struct {
	ReportID    string    `json:"report_id"`
	Description string    `json:"description"`
	Urgency     string    `json:"urgency"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	ImageURL    string    `json:"image_url,omitempty"`
	ReportedBy  string    `json:"reported_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewReportNotificationFrom(r *entity.Report) NewReportNotification {
	return NewReportNotification{
		ReportID:    r.ID,
		Description: r.Description,
		Urgency:     string(r.Urgency),
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		ImageURL:    r.ImageURL,
		ReportedBy:  r.ReportedBy,
		CreatedAt:   r.CreatedAt,
	}
}

// QueueNotifier is the Notification Sink backed by a message queue.
type QueueNotifier struct {
	pub Publisher
}

func NewQueueNotifier(pub Publisher) *QueueNotifier {
	return &QueueNotifier{pub: pub}
}

func (n *QueueNotifier) NotifyNewReport(ctx context.Context, r *entity.Report) error {
	return n.pub.PublishJSON(ctx, NewReportNotificationFrom(r))
}
