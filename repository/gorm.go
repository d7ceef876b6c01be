package repository

import (
	"context"
	"errors"
	"strings"
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

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository expects a *gorm.DB opened with TranslateError so unique
// violations surface as gorm.ErrDuplicatedKey.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}

func (r *GormRepository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(what)
	}
	return apperror.Internal(err, "failed to load "+what)
}

func internal(err error, op string) error {
	if err == nil {
		return nil
	}
	return apperror.Internal(err, op)
}

/*=============================================================================
| Facilities
===============================================================================*/

func (r *GormRepository) CreateFacility(ctx context.Context, f *facility.Facility) error {
	err := r.conn(ctx).Create(f).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Newf(apperror.CodeDuplicateName, "facility %q already exists", f.Name)
	}
	return internal(err, "failed to create facility")
}

func (r *GormRepository) UpdateFacility(ctx context.Context, f *facility.Facility) error {
	err := r.conn(ctx).Save(f).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Newf(apperror.CodeDuplicateName, "facility %q already exists", f.Name)
	}
	return internal(err, "failed to update facility")
}

func (r *GormRepository) DeleteFacility(ctx context.Context, id string) error {
	res := r.conn(ctx).Delete(&facility.Facility{}, "id = ?", id)
	if res.Error != nil {
		return internal(res.Error, "failed to delete facility")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("facility")
	}
	return nil
}

func (r *GormRepository) GetFacility(ctx context.Context, id string) (*facility.Facility, error) {
	var f facility.Facility
	if err := r.conn(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "facility")
	}
	return &f, nil
}

func (r *GormRepository) LockFacility(ctx context.Context, id string) (*facility.Facility, error) {
	var f facility.Facility
	if err := r.conn(ctx).Clauses(forUpdate()).First(&f, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "facility")
	}
	return &f, nil
}

func (r *GormRepository) ListFacilities(ctx context.Context, filter FacilityFilter) ([]facility.Facility, error) {
	qb := r.conn(ctx).Model(&facility.Facility{})
	if filter.Kind != "" {
		qb = qb.Where("kind = ?", filter.Kind)
	}
	if filter.Available != nil {
		qb = qb.Where("available = ?", *filter.Available)
	}
	if filter.MinCapacity > 0 {
		qb = qb.Where("capacity >= ?", filter.MinCapacity)
	}
	if filter.Name != "" {
		qb = qb.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}

	var out []facility.Facility
	if err := qb.Order("name ASC").Find(&out).Error; err != nil {
		return nil, internal(err, "failed to list facilities")
	}
	return out, nil
}

/*=============================================================================
| Bookings
===============================================================================*/

func (r *GormRepository) CreateBooking(ctx context.Context, b *booking.Booking) error {
	return internal(r.conn(ctx).Create(b).Error, "failed to create booking")
}

func (r *GormRepository) UpdateBooking(ctx context.Context, b *booking.Booking) error {
	return internal(r.conn(ctx).Save(b).Error, "failed to update booking")
}

func (r *GormRepository) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	var b booking.Booking
	if err := r.conn(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "booking")
	}
	return &b, nil
}

func (r *GormRepository) LockBooking(ctx context.Context, id string) (*booking.Booking, error) {
	var b booking.Booking
	if err := r.conn(ctx).Clauses(forUpdate()).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "booking")
	}
	return &b, nil
}

func (r *GormRepository) bookingQuery(ctx context.Context, filter BookingFilter) *gorm.DB {
	qb := r.conn(ctx).Model(&booking.Booking{})
	if filter.FacilityID != "" {
		qb = qb.Where("facility_id = ?", filter.FacilityID)
	}
	if filter.UserID != "" {
		qb = qb.Where("user_id = ?", filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		qb = qb.Where("status IN ?", filter.Statuses)
	}
	if filter.ExcludeID != "" {
		qb = qb.Where("id <> ?", filter.ExcludeID)
	}
	// inclusive overlap: start_at <= To AND From <= end_at
	if filter.To != nil {
		qb = qb.Where("start_at <= ?", *filter.To)
	}
	if filter.From != nil {
		qb = qb.Where("end_at >= ?", *filter.From)
	}
	return qb
}

func (r *GormRepository) ListBookings(ctx context.Context, filter BookingFilter) ([]booking.Booking, error) {
	qb := r.bookingQuery(ctx, filter).Order("start_at ASC")
	if filter.Limit > 0 {
		qb = qb.Limit(filter.Limit)
	}
	var out []booking.Booking
	if err := qb.Find(&out).Error; err != nil {
		return nil, internal(err, "failed to list bookings")
	}
	return out, nil
}

func (r *GormRepository) CountBookings(ctx context.Context, filter BookingFilter) (int64, error) {
	var total int64
	if err := r.bookingQuery(ctx, filter).Count(&total).Error; err != nil {
		return 0, internal(err, "failed to count bookings")
	}
	return total, nil
}

/*=============================================================================
| Permits
===============================================================================*/

func (r *GormRepository) CreatePermit(ctx context.Context, p *permit.Permit) error {
	return internal(r.conn(ctx).Create(p).Error, "failed to create permit")
}

func (r *GormRepository) GetPermitByBooking(ctx context.Context, bookingID string) (*permit.Permit, error) {
	var p permit.Permit
	if err := r.conn(ctx).First(&p, "booking_id = ?", bookingID).Error; err != nil {
		return nil, notFoundOr(err, "permit")
	}
	return &p, nil
}

func (r *GormRepository) SetPermitDocument(ctx context.Context, permitID, location string) error {
	res := r.conn(ctx).Model(&permit.Permit{}).Where("id = ?", permitID).Update("document_location", location)
	if res.Error != nil {
		return internal(res.Error, "failed to attach permit document")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("permit")
	}
	return nil
}

func (r *GormRepository) NextPermitSequence(ctx context.Context, period string) (int, error) {
	db := r.conn(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&permit.Counter{Period: period, LastSeq: 0}).Error; err != nil {
		return 0, internal(err, "failed to initialise permit counter")
	}

	var counter permit.Counter
	if err := db.Clauses(forUpdate()).First(&counter, "period = ?", period).Error; err != nil {
		return 0, internal(err, "failed to lock permit counter")
	}

	next := counter.LastSeq + 1
	if err := db.Model(&permit.Counter{}).Where("period = ?", period).Update("last_seq", next).Error; err != nil {
		return 0, internal(err, "failed to advance permit counter")
	}
	return next, nil
}

/*=============================================================================
| Billing
===============================================================================*/

func (r *GormRepository) CreateBilling(ctx context.Context, rec *billing.Record) error {
	err := r.conn(ctx).Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.InvalidState("booking already has a billing record")
	}
	return internal(err, "failed to create billing record")
}

func (r *GormRepository) UpdateBilling(ctx context.Context, rec *billing.Record) error {
	return internal(r.conn(ctx).Save(rec).Error, "failed to update billing record")
}

func (r *GormRepository) GetBillingByBooking(ctx context.Context, bookingID string) (*billing.Record, error) {
	var rec billing.Record
	if err := r.conn(ctx).First(&rec, "booking_id = ?", bookingID).Error; err != nil {
		return nil, notFoundOr(err, "billing record")
	}
	return &rec, nil
}

/*=============================================================================
| Audit & notifications
===============================================================================*/

func (r *GormRepository) CreateAuditEntry(ctx context.Context, e *audit.Entry) error {
	return internal(r.conn(ctx).Create(e).Error, "failed to write audit entry")
}

func (r *GormRepository) ListAuditEntries(ctx context.Context, filter AuditFilter) ([]audit.Entry, error) {
	qb := r.conn(ctx).Model(&audit.Entry{})
	if filter.BookingID != "" {
		qb = qb.Where("booking_id = ?", filter.BookingID)
	}
	if filter.FacilityID != "" {
		qb = qb.Where("facility_id = ?", filter.FacilityID)
	}
	var out []audit.Entry
	if err := qb.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, internal(err, "failed to list audit entries")
	}
	return out, nil
}

func (r *GormRepository) CreateNotification(ctx context.Context, n *notification.Notification) error {
	return internal(r.conn(ctx).Create(n).Error, "failed to queue notification")
}

func (r *GormRepository) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]notification.Notification, error) {
	qb := r.conn(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		qb = qb.Where("is_read = ?", false)
	}
	var out []notification.Notification
	if err := qb.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, internal(err, "failed to list notifications")
	}
	return out, nil
}

func (r *GormRepository) MarkNotificationRead(ctx context.Context, userID, id string, at time.Time) error {
	res := r.conn(ctx).Model(&notification.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if res.Error != nil {
		return internal(res.Error, "failed to mark notification read")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("notification")
	}
	return nil
}

func (r *GormRepository) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res := r.conn(ctx).Model(&notification.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if res.Error != nil {
		return 0, internal(res.Error, "failed to mark notifications read")
	}
	return res.RowsAffected, nil
}

/*=============================================================================
| Users & request logs
===============================================================================*/

func (r *GormRepository) UpsertUser(ctx context.Context, u *user.User) error {
	err := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "role", "user_kind", "last_seen", "updated_at"}),
	}).Create(u).Error
	return internal(err, "failed to sync user")
}

func (r *GormRepository) GetUser(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	if err := r.conn(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &u, nil
}

func (r *GormRepository) CreateRequestLog(ctx context.Context, entry *log_model.Log) error {
	return internal(r.conn(ctx).Create(entry).Error, "failed to store request log")
}
