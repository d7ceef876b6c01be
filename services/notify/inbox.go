package notify

import (
	"context"
	"time"

	"facility-booking/models/notification"
	"facility-booking/repository"
)

// Inbox is the user's view of their own notifications.
type Inbox struct {
	repo repository.Repository
	now  func() time.Time
}

func NewInbox(repo repository.Repository) *Inbox {
	return &Inbox{repo: repo, now: time.Now}
}

func (i *Inbox) List(ctx context.Context, userID string, unreadOnly bool) ([]notification.Notification, error) {
	return i.repo.ListNotifications(ctx, userID, unreadOnly)
}

// MarkRead flips one notification; another user's notification is reported as not found.
func (i *Inbox) MarkRead(ctx context.Context, userID, id string) error {
	return i.repo.MarkNotificationRead(ctx, userID, id, i.now())
}

func (i *Inbox) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return i.repo.MarkAllNotificationsRead(ctx, userID, i.now())
}
