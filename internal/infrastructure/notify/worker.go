package notify

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Handler processes one message body.
type Handler interface {
	Handle(ctx context.Context, body []byte) error
}

// Worker drains a delivery channel through a Handler. Successful messages are acked,
// malformed ones are dropped and a failed delivery is requeued once.
type Worker struct {
	Handler Handler
	Logger  *logrus.Logger
	Timeout time.Duration
}

// Run returns when deliveries closes or ctx is done.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				return
			}
			w.process(ctx, msg, timeout)
		}
	}
}

func (w *Worker) process(ctx context.Context, msg amqp.Delivery, timeout time.Duration) {
	c, cancel := context.WithTimeout(ctx, timeout)
	err := w.Handler.Handle(c, msg.Body)
	cancel()

	entry := w.Logger.WithFields(logrus.Fields{"delivery_tag": msg.DeliveryTag, "redelivered": msg.Redelivered})
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, ErrMalformed):
		entry.WithError(err).Warn("dropping malformed message")
		_ = msg.Nack(false, false)
	default:
		entry.WithError(err).Warn("notification delivery failed")
		_ = msg.Nack(false, !msg.Redelivered)
	}
}
