// Package memory is an in-process Repository. Transactions are serializable: each one holds the
// store lock and works on a copy of the dataset that replaces the original only on commit.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"facility-booking/apperror"
	"facility-booking/models/audit"
	"facility-booking/models/billing"
	"facility-booking/models/booking"
	"facility-booking/models/facility"
	log_model "facility-booking/models/log"
	"facility-booking/models/notification"
	"facility-booking/models/permit"
	"facility-booking/models/user"
	"facility-booking/repository"
)

type dataset struct {
	facilities    map[string]facility.Facility
	bookings      map[string]booking.Booking
	permits       map[string]permit.Permit
	counters      map[string]permit.Counter
	billing       map[string]billing.Record
	audit         []audit.Entry
	notifications []notification.Notification
	users         map[string]user.User
	requestLogs   []log_model.Log
	nextLogID     uint
}

func newDataset() *dataset {
	return &dataset{
		facilities: map[string]facility.Facility{},
		bookings:   map[string]booking.Booking{},
		permits:    map[string]permit.Permit{},
		counters:   map[string]permit.Counter{},
		billing:    map[string]billing.Record{},
		users:      map[string]user.User{},
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		facilities:    make(map[string]facility.Facility, len(d.facilities)),
		bookings:      make(map[string]booking.Booking, len(d.bookings)),
		permits:       make(map[string]permit.Permit, len(d.permits)),
		counters:      make(map[string]permit.Counter, len(d.counters)),
		billing:       make(map[string]billing.Record, len(d.billing)),
		audit:         append([]audit.Entry(nil), d.audit...),
		notifications: append([]notification.Notification(nil), d.notifications...),
		users:         make(map[string]user.User, len(d.users)),
		requestLogs:   append([]log_model.Log(nil), d.requestLogs...),
		nextLogID:     d.nextLogID,
	}
	for k, v := range d.facilities {
		c.facilities[k] = v
	}
	for k, v := range d.bookings {
		c.bookings[k] = v
	}
	for k, v := range d.permits {
		c.permits[k] = v
	}
	for k, v := range d.counters {
		c.counters[k] = v
	}
	for k, v := range d.billing {
		c.billing[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	return c
}

type store struct {
	mu   sync.Mutex
	data *dataset
}

// Repository implements repository.Repository in memory.
type Repository struct {
	store *store
	// data is set only inside a transaction, where the store lock is already held.
	data *dataset
	now  func() time.Time
}

func New() *Repository {
	return &Repository{store: &store{data: newDataset()}, now: time.Now}
}

var _ repository.Repository = (*Repository)(nil)

func (r *Repository) Transaction(ctx context.Context, fn func(tx repository.Repository) error) error {
	if r.data != nil {
		return fn(r)
	}
	if err := ctx.Err(); err != nil {
		return apperror.Internal(err, "transaction aborted")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	work := r.store.data.clone()
	if err := fn(&Repository{store: r.store, data: work, now: r.now}); err != nil {
		return err
	}
	r.store.data = work
	return nil
}

// with runs fn against the transaction copy, or against the committed data under the lock.
func (r *Repository) with(fn func(d *dataset) error) error {
	if r.data != nil {
		return fn(r.data)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.data)
}

func (r *Repository) stamp(created, updated *time.Time) {
	now := r.now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

/*=============================================================================
| Facilities
===============================================================================*/

func nameTaken(d *dataset, name, exceptID string) bool {
	for _, f := range d.facilities {
		if f.Name == name && f.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *Repository) CreateFacility(_ context.Context, f *facility.Facility) error {
	return r.with(func(d *dataset) error {
		if nameTaken(d, f.Name, "") {
			return apperror.Newf(apperror.CodeDuplicateName, "facility %q already exists", f.Name)
		}
		r.stamp(&f.CreatedAt, &f.UpdatedAt)
		d.facilities[f.ID] = *f
		return nil
	})
}

func (r *Repository) UpdateFacility(_ context.Context, f *facility.Facility) error {
	return r.with(func(d *dataset) error {
		if _, ok := d.facilities[f.ID]; !ok {
			return apperror.NotFound("facility")
		}
		if nameTaken(d, f.Name, f.ID) {
			return apperror.Newf(apperror.CodeDuplicateName, "facility %q already exists", f.Name)
		}
		r.stamp(nil, &f.UpdatedAt)
		d.facilities[f.ID] = *f
		return nil
	})
}

func (r *Repository) DeleteFacility(_ context.Context, id string) error {
	return r.with(func(d *dataset) error {
		if _, ok := d.facilities[id]; !ok {
			return apperror.NotFound("facility")
		}
		delete(d.facilities, id)
		removed := map[string]bool{}
		for bid, b := range d.bookings {
			if b.FacilityID == id {
				removed[bid] = true
				delete(d.bookings, bid)
			}
		}
		// permits and billing records follow their booking
		for pid, p := range d.permits {
			if removed[p.BookingID] {
				delete(d.permits, pid)
			}
		}
		for rid, rec := range d.billing {
			if removed[rec.BookingID] {
				delete(d.billing, rid)
			}
		}
		return nil
	})
}

func (r *Repository) GetFacility(_ context.Context, id string) (*facility.Facility, error) {
	var out facility.Facility
	err := r.with(func(d *dataset) error {
		f, ok := d.facilities[id]
		if !ok {
			return apperror.NotFound("facility")
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LockFacility needs no row lock here; the transaction already holds the store lock.
func (r *Repository) LockFacility(ctx context.Context, id string) (*facility.Facility, error) {
	return r.GetFacility(ctx, id)
}

func (r *Repository) ListFacilities(_ context.Context, filter repository.FacilityFilter) ([]facility.Facility, error) {
	var out []facility.Facility
	_ = r.with(func(d *dataset) error {
		for _, f := range d.facilities {
			if filter.Kind != "" && f.Kind != filter.Kind {
				continue
			}
			if filter.Available != nil && f.Available != *filter.Available {
				continue
			}
			if filter.MinCapacity > 0 && f.Capacity < filter.MinCapacity {
				continue
			}
			if filter.Name != "" && !strings.Contains(strings.ToLower(f.Name), strings.ToLower(filter.Name)) {
				continue
			}
			out = append(out, f)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

/*=============================================================================
| Bookings
===============================================================================*/

func (r *Repository) CreateBooking(_ context.Context, b *booking.Booking) error {
	return r.with(func(d *dataset) error {
		r.stamp(&b.CreatedAt, &b.UpdatedAt)
		d.bookings[b.ID] = *b
		return nil
	})
}

func (r *Repository) UpdateBooking(_ context.Context, b *booking.Booking) error {
	return r.with(func(d *dataset) error {
		if _, ok := d.bookings[b.ID]; !ok {
			return apperror.NotFound("booking")
		}
		r.stamp(nil, &b.UpdatedAt)
		d.bookings[b.ID] = *b
		return nil
	})
}

func (r *Repository) GetBooking(_ context.Context, id string) (*booking.Booking, error) {
	var out booking.Booking
	err := r.with(func(d *dataset) error {
		b, ok := d.bookings[id]
		if !ok {
			return apperror.NotFound("booking")
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repository) LockBooking(ctx context.Context, id string) (*booking.Booking, error) {
	return r.GetBooking(ctx, id)
}

func matchBooking(b booking.Booking, f repository.BookingFilter) bool {
	if f.FacilityID != "" && b.FacilityID != f.FacilityID {
		return false
	}
	if f.UserID != "" && b.UserID != f.UserID {
		return false
	}
	if f.ExcludeID != "" && b.ID == f.ExcludeID {
		return false
	}
	if !f.MatchesStatus(b.Status) {
		return false
	}
	if f.To != nil && b.StartAt.After(*f.To) {
		return false
	}
	if f.From != nil && b.EndAt.Before(*f.From) {
		return false
	}
	return true
}

func (r *Repository) ListBookings(_ context.Context, filter repository.BookingFilter) ([]booking.Booking, error) {
	var out []booking.Booking
	_ = r.with(func(d *dataset) error {
		for _, b := range d.bookings {
			if matchBooking(b, filter) {
				out = append(out, b)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *Repository) CountBookings(ctx context.Context, filter repository.BookingFilter) (int64, error) {
	filter.Limit = 0
	out, err := r.ListBookings(ctx, filter)
	return int64(len(out)), err
}

/*=============================================================================
| Permits
===============================================================================*/

func (r *Repository) CreatePermit(_ context.Context, p *permit.Permit) error {
	return r.with(func(d *dataset) error {
		for _, existing := range d.permits {
			if existing.BookingID == p.BookingID || existing.Number == p.Number {
				return apperror.Internal(nil, "permit violates a unique constraint")
			}
		}
		r.stamp(nil, &p.UpdatedAt)
		d.permits[p.ID] = *p
		return nil
	})
}

func (r *Repository) GetPermitByBooking(_ context.Context, bookingID string) (*permit.Permit, error) {
	var out *permit.Permit
	_ = r.with(func(d *dataset) error {
		for _, p := range d.permits {
			if p.BookingID == bookingID {
				cp := p
				out = &cp
				return nil
			}
		}
		return nil
	})
	if out == nil {
		return nil, apperror.NotFound("permit")
	}
	return out, nil
}

func (r *Repository) SetPermitDocument(_ context.Context, permitID, location string) error {
	return r.with(func(d *dataset) error {
		p, ok := d.permits[permitID]
		if !ok {
			return apperror.NotFound("permit")
		}
		loc := location
		p.DocumentLocation = &loc
		r.stamp(nil, &p.UpdatedAt)
		d.permits[permitID] = p
		return nil
	})
}

func (r *Repository) NextPermitSequence(_ context.Context, period string) (int, error) {
	var next int
	err := r.with(func(d *dataset) error {
		c := d.counters[period]
		c.Period = period
		c.LastSeq++
		r.stamp(nil, &c.UpdatedAt)
		d.counters[period] = c
		next = c.LastSeq
		return nil
	})
	return next, err
}

/*=============================================================================
| Billing
===============================================================================*/

func (r *Repository) CreateBilling(_ context.Context, rec *billing.Record) error {
	return r.with(func(d *dataset) error {
		for _, existing := range d.billing {
			if existing.BookingID == rec.BookingID {
				return apperror.InvalidState("booking already has a billing record")
			}
		}
		r.stamp(&rec.CreatedAt, &rec.UpdatedAt)
		d.billing[rec.ID] = *rec
		return nil
	})
}

func (r *Repository) UpdateBilling(_ context.Context, rec *billing.Record) error {
	return r.with(func(d *dataset) error {
		if _, ok := d.billing[rec.ID]; !ok {
			return apperror.NotFound("billing record")
		}
		r.stamp(nil, &rec.UpdatedAt)
		d.billing[rec.ID] = *rec
		return nil
	})
}

func (r *Repository) GetBillingByBooking(_ context.Context, bookingID string) (*billing.Record, error) {
	var out *billing.Record
	_ = r.with(func(d *dataset) error {
		for _, rec := range d.billing {
			if rec.BookingID == bookingID {
				cp := rec
				out = &cp
				return nil
			}
		}
		return nil
	})
	if out == nil {
		return nil, apperror.NotFound("billing record")
	}
	return out, nil
}

/*=============================================================================
| Audit & notifications
===============================================================================*/

func (r *Repository) CreateAuditEntry(_ context.Context, e *audit.Entry) error {
	return r.with(func(d *dataset) error {
		r.stamp(&e.CreatedAt, nil)
		d.audit = append(d.audit, *e)
		return nil
	})
}

// ListAuditEntries keeps insertion order, which is also creation order.
func (r *Repository) ListAuditEntries(_ context.Context, filter repository.AuditFilter) ([]audit.Entry, error) {
	var out []audit.Entry
	_ = r.with(func(d *dataset) error {
		for _, e := range d.audit {
			if filter.BookingID != "" && (e.BookingID == nil || *e.BookingID != filter.BookingID) {
				continue
			}
			if filter.FacilityID != "" && (e.FacilityID == nil || *e.FacilityID != filter.FacilityID) {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	return out, nil
}

func (r *Repository) CreateNotification(_ context.Context, n *notification.Notification) error {
	return r.with(func(d *dataset) error {
		r.stamp(&n.CreatedAt, nil)
		d.notifications = append(d.notifications, *n)
		return nil
	})
}

// ListNotifications returns newest first.
func (r *Repository) ListNotifications(_ context.Context, userID string, unreadOnly bool) ([]notification.Notification, error) {
	var out []notification.Notification
	_ = r.with(func(d *dataset) error {
		for i := len(d.notifications) - 1; i >= 0; i-- {
			n := d.notifications[i]
			if n.UserID != userID || (unreadOnly && n.IsRead) {
				continue
			}
			out = append(out, n)
		}
		return nil
	})
	return out, nil
}

func (r *Repository) MarkNotificationRead(_ context.Context, userID, id string, at time.Time) error {
	return r.with(func(d *dataset) error {
		for i := range d.notifications {
			n := &d.notifications[i]
			if n.ID == id && n.UserID == userID {
				n.IsRead = true
				n.ReadAt = &at
				return nil
			}
		}
		return apperror.NotFound("notification")
	})
}

func (r *Repository) MarkAllNotificationsRead(_ context.Context, userID string, at time.Time) (int64, error) {
	var count int64
	err := r.with(func(d *dataset) error {
		for i := range d.notifications {
			n := &d.notifications[i]
			if n.UserID == userID && !n.IsRead {
				n.IsRead = true
				n.ReadAt = &at
				count++
			}
		}
		return nil
	})
	return count, err
}

/*=============================================================================
| Users & request logs
===============================================================================*/

func (r *Repository) UpsertUser(_ context.Context, u *user.User) error {
	return r.with(func(d *dataset) error {
		if existing, ok := d.users[u.ID]; ok {
			u.CreatedAt = existing.CreatedAt
		}
		r.stamp(&u.CreatedAt, &u.UpdatedAt)
		d.users[u.ID] = *u
		return nil
	})
}

func (r *Repository) GetUser(_ context.Context, id string) (*user.User, error) {
	var out user.User
	err := r.with(func(d *dataset) error {
		u, ok := d.users[id]
		if !ok {
			return apperror.NotFound("user")
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repository) CreateRequestLog(_ context.Context, entry *log_model.Log) error {
	return r.with(func(d *dataset) error {
		d.nextLogID++
		entry.ID = d.nextLogID
		r.stamp(&entry.CreatedAt, nil)
		d.requestLogs = append(d.requestLogs, *entry)
		return nil
	})
}

// RequestLogs returns the stored request logs, for tests.
func (r *Repository) RequestLogs() []log_model.Log {
	var out []log_model.Log
	_ = r.with(func(d *dataset) error {
		out = append(out, d.requestLogs...)
		return nil
	})
	return out
}
