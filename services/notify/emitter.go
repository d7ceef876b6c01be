// Package notify writes audit entries and user notifications inside the caller's transaction
// and hands committed notifications to a Dispatcher.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"facility-booking/apperror"
	"facility-booking/logger"
	"facility-booking/models/audit"
	"facility-booking/models/notification"
	"facility-booking/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Dispatcher delivers a committed notification to its target (mail, broker).
type Dispatcher interface {
	Dispatch(ctx context.Context, n notification.Notification) error
}

type Nop struct{}

func (Nop) Dispatch(context.Context, notification.Notification) error { return nil }

// Record describes one audit entry.
type Record struct {
	ActorID     string
	BookingID   string
	FacilityID  string
	Action      string
	Description string
	Previous    string
	New         string
	Metadata    map[string]interface{}
}

// Message describes one notification. An empty Target is resolved from the user's e-mail.
type Message struct {
	UserID    string
	BookingID string
	Kind      notification.Kind
	Title     string
	Body      string
	Target    string
	Payload   map[string]interface{}
}

type Emitter struct {
	dispatcher Dispatcher
	timeout    time.Duration
	wg         sync.WaitGroup
}

func NewEmitter(dispatcher Dispatcher) *Emitter {
	if dispatcher == nil {
		dispatcher = Nop{}
	}
	return &Emitter{dispatcher: dispatcher, timeout: 30 * time.Second}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Record appends an audit entry through tx.
func (e *Emitter) Record(ctx context.Context, tx repository.Repository, rec Record) (*audit.Entry, error) {
	entry := &audit.Entry{
		ID:             uuid.NewString(),
		ActorID:        rec.ActorID,
		BookingID:      optional(rec.BookingID),
		FacilityID:     optional(rec.FacilityID),
		Action:         rec.Action,
		Description:    rec.Description,
		PreviousStatus: optional(rec.Previous),
		NewStatus:      optional(rec.New),
		Metadata:       rec.Metadata,
	}
	if err := tx.CreateAuditEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Notify stores a notification through tx. The caller dispatches it after commit.
func (e *Emitter) Notify(ctx context.Context, tx repository.Repository, msg Message) (*notification.Notification, error) {
	target := msg.Target
	if target == "" {
		u, err := tx.GetUser(ctx, msg.UserID)
		switch {
		case err == nil:
			target = u.Email
		case !errors.Is(err, apperror.ErrNotFound):
			return nil, err
		}
	}

	n := &notification.Notification{
		ID:        uuid.NewString(),
		UserID:    msg.UserID,
		BookingID: optional(msg.BookingID),
		Kind:      msg.Kind,
		Title:     msg.Title,
		Body:      msg.Body,
		Target:    target,
		Payload:   msg.Payload,
	}
	if err := tx.CreateNotification(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Dispatch delivers notifications in the background. Failures are logged and not retried.
func (e *Emitter) Dispatch(items ...notification.Notification) {
	for _, n := range items {
		if n.Target == "" {
			logger.WithFields(logrus.Fields{"notification_id": n.ID, "user_id": n.UserID}).
				Debug("notification has no delivery target, stored only")
			continue
		}
		e.wg.Add(1)
		go func(n notification.Notification) {
			defer e.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
			defer cancel()
			if err := e.dispatcher.Dispatch(ctx, n); err != nil {
				logger.WithFields(logrus.Fields{
					"notification_id": n.ID,
					"user_id":         n.UserID,
					"kind":            n.Kind,
				}).WithError(err).Warn("⚠️ notification dispatch failed")
			}
		}(n)
	}
}

// Wait blocks until every dispatch started so far has finished.
func (e *Emitter) Wait() {
	e.wg.Wait()
}
