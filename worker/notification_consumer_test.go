package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"facility-booking/logger"
	"facility-booking/models/notification"
	"facility-booking/services/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAck struct {
	acked, nacked, requeued bool
}

func (a *fakeAck) Ack(bool) error { a.acked = true; return nil }
func (a *fakeAck) Nack(_ bool, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

type fakeMailer struct {
	to, subject string
	err         error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, _ string) error {
	m.to, m.subject = to, subject
	return m.err
}

func body(t *testing.T, n notification.Notification) []byte {
	t.Helper()
	b, err := json.Marshal(notify.Event{Event: notify.RoutingKey(n), Version: 1, Data: n})
	require.NoError(t, err)
	return b
}

func TestHandle(t *testing.T) {
	logger.SetOutput(io.Discard)
	ctx := context.Background()
	n := notification.Notification{ID: "n1", Kind: notification.KindBookingApproved, Title: "Booking approved", Target: "u1@ugm.ac.id"}

	t.Run("delivers and acks", func(t *testing.T) {
		m, ack := &fakeMailer{}, &fakeAck{}
		NewNotificationConsumer(nil, m).Handle(ctx, body(t, n), ack)
		assert.True(t, ack.acked)
		assert.Equal(t, "u1@ugm.ac.id", m.to)
		assert.Equal(t, "Booking approved", m.subject)
	})

	t.Run("delivery failure is dropped", func(t *testing.T) {
		m, ack := &fakeMailer{err: errors.New("smtp down")}, &fakeAck{}
		NewNotificationConsumer(nil, m).Handle(ctx, body(t, n), ack)
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeued)
	})

	t.Run("garbage is dropped", func(t *testing.T) {
		ack := &fakeAck{}
		NewNotificationConsumer(nil, &fakeMailer{}).Handle(ctx, []byte("{"), ack)
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeued)
	})

	t.Run("no target is acked without sending", func(t *testing.T) {
		m, ack := &fakeMailer{}, &fakeAck{}
		noTarget := n
		noTarget.Target = ""
		NewNotificationConsumer(nil, m).Handle(ctx, body(t, noTarget), ack)
		assert.True(t, ack.acked)
		assert.Empty(t, m.to)
	})
}
