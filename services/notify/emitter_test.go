package notify

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"facility-booking/logger"
	"facility-booking/models/notification"
	"facility-booking/models/user"
	"facility-booking/repository"
	"facility-booking/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notification.Notification
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n notification.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return d.err
}

func TestNotifyResolvesTargetFromUser(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	require.NoError(t, repo.UpsertUser(ctx, &user.User{ID: "u1", Email: "u1@campus.ac.id", Role: user.RoleUser}))
	em := NewEmitter(nil)

	var n *notification.Notification
	err := repo.Transaction(ctx, func(tx repository.Repository) error {
		var err error
		n, err = em.Notify(ctx, tx, Message{UserID: "u1", Kind: notification.KindBookingSubmitted, Title: "t", Body: "b"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "u1@campus.ac.id", n.Target)

	// unknown users still get an inbox entry, just no delivery target
	n, err = em.Notify(ctx, repo, Message{UserID: "ghost", Kind: notification.KindBookingSubmitted})
	require.NoError(t, err)
	assert.Empty(t, n.Target)
}

func TestRecordAndNotifyRollBackTogether(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	em := NewEmitter(nil)

	err := repo.Transaction(ctx, func(tx repository.Repository) error {
		if _, err := em.Record(ctx, tx, Record{ActorID: "staff", BookingID: "b1", Action: "booking.approved"}); err != nil {
			return err
		}
		if _, err := em.Notify(ctx, tx, Message{UserID: "u1", Target: "u1@x.io"}); err != nil {
			return err
		}
		return errors.New("status update failed")
	})
	require.Error(t, err)

	entries, _ := repo.ListAuditEntries(ctx, repository.AuditFilter{BookingID: "b1"})
	assert.Empty(t, entries)
	inbox, _ := repo.ListNotifications(ctx, "u1", false)
	assert.Empty(t, inbox)
}

func TestRecordOmitsEmptyOptionals(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	em := NewEmitter(nil)

	e, err := em.Record(ctx, repo, Record{ActorID: "staff", FacilityID: "f1", Action: "facility.created", Description: "created"})
	require.NoError(t, err)
	assert.Nil(t, e.BookingID)
	assert.Nil(t, e.PreviousStatus)
	require.NotNil(t, e.FacilityID)
	assert.Equal(t, "f1", *e.FacilityID)
}

func TestDispatchSkipsMissingTargetsAndSwallowsFailures(t *testing.T) {
	logger.SetOutput(io.Discard)
	d := &recordingDispatcher{err: errors.New("smtp down")}
	em := NewEmitter(d)

	em.Dispatch(
		notification.Notification{ID: "n1", Target: "a@x.io"},
		notification.Notification{ID: "n2"},
		notification.Notification{ID: "n3", Target: "b@x.io"},
	)
	em.Wait()

	require.Len(t, d.sent, 2)
	ids := []string{d.sent[0].ID, d.sent[1].ID}
	assert.ElementsMatch(t, []string{"n1", "n3"}, ids)
}

func TestInbox(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	em := NewEmitter(nil)
	inbox := NewInbox(repo)

	for i := 0; i < 3; i++ {
		_, err := em.Notify(ctx, repo, Message{UserID: "u1", Target: "u1@x.io", Title: "hello"})
		require.NoError(t, err)
	}
	all, err := inbox.List(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, all, 3)

	require.NoError(t, inbox.MarkRead(ctx, "u1", all[0].ID))
	assert.Error(t, inbox.MarkRead(ctx, "someone-else", all[1].ID))

	n, err := inbox.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err := inbox.List(ctx, "u1", true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestRenderMailEscapes(t *testing.T) {
	body := RenderMail(notification.Notification{Title: "<b>x</b>", Body: "a & b"})
	assert.Contains(t, body, "&lt;b&gt;x&lt;/b&gt;")
	assert.Contains(t, body, "a &amp; b")
}

type capturePublisher struct {
	key string
	v   any
}

func (p *capturePublisher) PublishJSON(_ context.Context, key string, v any) error {
	p.key, p.v = key, v
	return nil
}

func TestBrokerDispatcherRoutesByKind(t *testing.T) {
	pub := &capturePublisher{}
	n := notification.Notification{ID: "n1", Kind: notification.KindPermitIssued, Target: "a@x.io"}
	require.NoError(t, BrokerDispatcher{Publisher: pub}.Dispatch(context.Background(), n))

	assert.Equal(t, "notification.permit_issued", pub.key)
	evt, ok := pub.v.(Event)
	require.True(t, ok)
	assert.Equal(t, 1, evt.Version)
	assert.Equal(t, "n1", evt.Data.ID)
}
