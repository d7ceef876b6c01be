package notify

import (
	"context"
	"fmt"
	"html"

	"facility-booking/models/notification"
	"facility-booking/services/mailer"
)

// MailDispatcher sends the notification as an e-mail to its target.
type MailDispatcher struct {
	Mailer mailer.Mailer
}

func (d MailDispatcher) Dispatch(ctx context.Context, n notification.Notification) error {
	return d.Mailer.Send(ctx, n.Target, n.Title, RenderMail(n))
}

// RenderMail is the HTML body shared by the direct mailer and the broker consumer.
func RenderMail(n notification.Notification) string {
	return fmt.Sprintf("<html><body><h3>%s</h3><p>%s</p></body></html>",
		html.EscapeString(n.Title), html.EscapeString(n.Body))
}

// Publisher is satisfied by *mq.Publisher.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Event is the broker envelope of a committed notification.
type Event struct {
	Event   string                    `json:"event"`
	Version int                       `json:"version"`
	Data    notification.Notification `json:"data"`
}

// RoutingKey is "notification.<kind>", e.g. notification.booking_approved.
func RoutingKey(n notification.Notification) string {
	return "notification." + string(n.Kind)
}

// BrokerDispatcher hands notifications to the message broker; a consumer does the delivery.
type BrokerDispatcher struct {
	Publisher Publisher
}

func (d BrokerDispatcher) Dispatch(ctx context.Context, n notification.Notification) error {
	key := RoutingKey(n)
	return d.Publisher.PublishJSON(ctx, key, Event{Event: key, Version: 1, Data: n})
}
