// Package repository is the storage boundary threaded through every service call.
// Implementations: GormRepository (PostgreSQL) and memory.Repository (tests, DB_DRIVER=memory).
package repository

import (
	"context"
	"time"

	"facility-booking/models/audit"
	"facility-booking/models/billing"
	"facility-booking/models/booking"
	"facility-booking/models/facility"
	log_model "facility-booking/models/log"
	"facility-booking/models/notification"
	"facility-booking/models/permit"
	"facility-booking/models/user"
)

// Repository is transaction scoped: the value passed to a Transaction callback must be used
// for every read and write belonging to that transaction.
type Repository interface {
	// Transaction runs fn atomically. Returning an error rolls back every write made through tx.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	CreateFacility(ctx context.Context, f *facility.Facility) error
	UpdateFacility(ctx context.Context, f *facility.Facility) error
	DeleteFacility(ctx context.Context, id string) error
	GetFacility(ctx context.Context, id string) (*facility.Facility, error)
	// LockFacility reads the facility and holds its row lock until the transaction ends.
	LockFacility(ctx context.Context, id string) (*facility.Facility, error)
	ListFacilities(ctx context.Context, filter FacilityFilter) ([]facility.Facility, error)

	CreateBooking(ctx context.Context, b *booking.Booking) error
	UpdateBooking(ctx context.Context, b *booking.Booking) error
	GetBooking(ctx context.Context, id string) (*booking.Booking, error)
	LockBooking(ctx context.Context, id string) (*booking.Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]booking.Booking, error)
	CountBookings(ctx context.Context, filter BookingFilter) (int64, error)

	CreatePermit(ctx context.Context, p *permit.Permit) error
	GetPermitByBooking(ctx context.Context, bookingID string) (*permit.Permit, error)
	SetPermitDocument(ctx context.Context, permitID, location string) error
	// NextPermitSequence increments and returns the counter of period ("YYYY-MM") under a row lock.
	NextPermitSequence(ctx context.Context, period string) (int, error)

	CreateBilling(ctx context.Context, r *billing.Record) error
	UpdateBilling(ctx context.Context, r *billing.Record) error
	GetBillingByBooking(ctx context.Context, bookingID string) (*billing.Record, error)

	CreateAuditEntry(ctx context.Context, e *audit.Entry) error
	ListAuditEntries(ctx context.Context, filter AuditFilter) ([]audit.Entry, error)

	CreateNotification(ctx context.Context, n *notification.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]notification.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string, at time.Time) error
	MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error)

	UpsertUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)

	CreateRequestLog(ctx context.Context, entry *log_model.Log) error
}

type FacilityFilter struct {
	Kind        string
	Available   *bool
	MinCapacity int
	// Name matches as a case-insensitive substring.
	Name string
}

type BookingFilter struct {
	FacilityID string
	UserID     string
	Statuses   []booking.BookingStatus
	ExcludeID  string
	// From and To select bookings overlapping [From, To], endpoints inclusive.
	From  *time.Time
	To    *time.Time
	Limit int
}

type AuditFilter struct {
	BookingID  string
	FacilityID string
}

// MatchesStatus reports whether s passes the status filter; an empty filter accepts all.
func (f BookingFilter) MatchesStatus(s booking.BookingStatus) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, st := range f.Statuses {
		if st == s {
			return true
		}
	}
	return false
}
