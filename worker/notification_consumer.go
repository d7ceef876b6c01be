// Package worker holds the background loops started by main.
package worker

import (
	"context"
	"encoding/json"
	"errors"

	"facility-booking/logger"
	"facility-booking/services/mailer"
	"facility-booking/services/notify"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// NotificationKeys binds every notification kind.
var NotificationKeys = []string{"notification.*"}

type DeliverySource interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
}

// Acknowledger is the subset of amqp.Delivery the consumer settles messages with.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// NotificationConsumer mails notifications published by notify.BrokerDispatcher.
// Failed deliveries are dropped, not requeued: notification delivery is never retried by the core.
type NotificationConsumer struct {
	source DeliverySource
	mailer mailer.Mailer
}

func NewNotificationConsumer(source DeliverySource, m mailer.Mailer) *NotificationConsumer {
	return &NotificationConsumer{source: source, mailer: m}
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (c *NotificationConsumer) Run(ctx context.Context) error {
	msgs, err := c.source.Deliveries(ctx)
	if err != nil {
		return err
	}
	logger.Info("Notification consumer started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification consumer stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("notification delivery channel closed")
			}
			c.Handle(ctx, d.Body, &d)
		}
	}
}

// Handle processes one message body and settles it through ack.
func (c *NotificationConsumer) Handle(ctx context.Context, body []byte, ack Acknowledger) {
	var evt notify.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		logger.WithFields(logrus.Fields{"error": err}).Warn("⚠️ notification consumer: unmarshal error")
		_ = ack.Nack(false, false)
		return
	}

	n := evt.Data
	fields := logrus.Fields{"notification_id": n.ID, "kind": n.Kind}
	if n.Target == "" {
		logger.WithFields(fields).Warn("⚠️ notification consumer: no delivery target")
		_ = ack.Ack(false)
		return
	}
	if err := c.mailer.Send(ctx, n.Target, n.Title, notify.RenderMail(n)); err != nil {
		logger.WithFields(fields).WithError(err).Warn("⚠️ notification consumer: delivery failed")
		_ = ack.Nack(false, false)
		return
	}
	_ = ack.Ack(false)
	logger.WithFields(fields).Debug("notification delivered")
}
