// Package permit allocates SIP numbers for approved bookings and renders their documents.
package permit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"facility-booking/apperror"
	"facility-booking/logger"
	"facility-booking/models/audit"
	"facility-booking/models/booking"
	"facility-booking/models/notification"
	permitModel "facility-booking/models/permit"
	"facility-booking/repository"
	"facility-booking/services/document"
	"facility-booking/services/notify"
	"facility-booking/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Issuer struct {
	repo     repository.Repository
	renderer document.Renderer
	files    storage.FileStorage
	emitter  *notify.Emitter
	loc      *time.Location
	now      func() time.Time
	queue    chan string
	tracer   trace.Tracer
}

type Option func(*Issuer)

// WithClock overrides the issuance clock.
func WithClock(now func() time.Time) Option {
	return func(s *Issuer) { s.now = now }
}

// WithLocation sets the timezone whose calendar months number the permits.
func WithLocation(loc *time.Location) Option {
	return func(s *Issuer) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithQueueSize(n int) Option {
	return func(s *Issuer) { s.queue = make(chan string, n) }
}

func NewIssuer(repo repository.Repository, renderer document.Renderer, files storage.FileStorage, emitter *notify.Emitter, opts ...Option) *Issuer {
	s := &Issuer{
		repo:     repo,
		renderer: renderer,
		files:    files,
		emitter:  emitter,
		loc:      time.UTC,
		now:      time.Now,
		queue:    make(chan string, 64),
		tracer:   otel.Tracer("facility-booking/permit"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allocate binds a permit number to b inside tx. The caller must hold b's row lock.
// It returns the existing permit unchanged when one is already bound; created reports a new one.
func (s *Issuer) Allocate(ctx context.Context, tx repository.Repository, b *booking.Booking, actorID string) (p *permitModel.Permit, created bool, err error) {
	if b.Status != booking.BookingStatusApproved {
		return nil, false, apperror.InvalidState(fmt.Sprintf("permit requires an approved booking, booking is %s", b.Status))
	}

	existing, err := tx.GetPermitByBooking(ctx, b.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, false, err
	}

	issuedAt := s.now().In(s.loc)
	period := permitModel.PeriodOf(issuedAt)
	seq, err := tx.NextPermitSequence(ctx, period)
	if err != nil {
		return nil, false, err
	}

	p = &permitModel.Permit{
		ID:        uuid.NewString(),
		BookingID: b.ID,
		Number:    permitModel.FormatNumber(seq, issuedAt),
		Period:    period,
		Sequence:  seq,
		IssuedBy:  actorID,
		IssuedAt:  issuedAt,
	}
	if err := tx.CreatePermit(ctx, p); err != nil {
		return nil, false, err
	}

	if _, err := s.emitter.Record(ctx, tx, notify.Record{
		ActorID:     actorID,
		BookingID:   b.ID,
		Action:      audit.ActionPermitIssued,
		Description: "Permit " + p.Number + " issued",
		Metadata:    map[string]interface{}{"permit_number": p.Number, "sequence": seq, "period": period},
	}); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// IssueFor returns the booking's permit, allocating it if needed, and retries a missing document
// without consuming another sequence number.
func (s *Issuer) IssueFor(ctx context.Context, bookingID, actorID string) (*permitModel.Permit, error) {
	ctx, span := s.tracer.Start(ctx, "permit.IssueFor", trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer span.End()

	var (
		p      *permitModel.Permit
		queued []notification.Notification
	)
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		var created bool
		p, created, err = s.Allocate(ctx, tx, b, actorID)
		if err != nil || !created {
			return err
		}
		n, err := s.emitter.Notify(ctx, tx, notify.Message{
			UserID:    b.UserID,
			BookingID: b.ID,
			Kind:      notification.KindPermitIssued,
			Title:     "Permit issued",
			Body:      "Your facility use permit number is " + p.Number + ".",
			Payload:   map[string]interface{}{"permit_number": p.Number},
		})
		if err != nil {
			return err
		}
		queued = append(queued, *n)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.CodeOf(err)))
		return nil, err
	}
	s.emitter.Dispatch(queued...)
	span.SetAttributes(attribute.String("permit.number", p.Number))

	if p.HasDocument() {
		return p, nil
	}
	rendered, err := s.Render(ctx, bookingID)
	if err != nil {
		// the number is already durable; a later call retries rendering
		logger.WithFields(logrus.Fields{"booking_id": bookingID, "permit_number": p.Number}).
			WithError(err).Warn("⚠️ permit document rendering failed")
		return p, nil
	}
	return rendered, nil
}

// Fetch returns the persisted permit of a booking.
func (s *Issuer) Fetch(ctx context.Context, bookingID string) (*permitModel.Permit, error) {
	return s.repo.GetPermitByBooking(ctx, bookingID)
}

// Render produces and stores the document of an already allocated permit. No lock is held
// while rendering; only the final location update touches the store.
func (s *Issuer) Render(ctx context.Context, bookingID string) (*permitModel.Permit, error) {
	ctx, span := s.tracer.Start(ctx, "permit.Render", trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer span.End()

	p, err := s.repo.GetPermitByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if p.HasDocument() {
		return p, nil
	}

	data, err := s.documentData(ctx, p)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Render(ctx, data)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.Internal(err, "failed to render permit document")
	}
	name := "permits/" + strings.ReplaceAll(p.Number, "/", "-") + s.renderer.Extension()
	location, err := s.files.Put(ctx, doc, name)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.Internal(err, "failed to store permit document")
	}
	if err := s.repo.SetPermitDocument(ctx, p.ID, location); err != nil {
		return nil, err
	}

	p.DocumentLocation = &location
	logger.WithFields(logrus.Fields{"booking_id": bookingID, "permit_number": p.Number}).Info("✅ permit document stored")
	return p, nil
}

// Document returns the rendered bytes, rendering first if the permit has none yet.
func (s *Issuer) Document(ctx context.Context, bookingID string) ([]byte, *permitModel.Permit, error) {
	p, err := s.Render(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.files.Get(ctx, *p.DocumentLocation)
	if err != nil {
		return nil, nil, apperror.Internal(err, "failed to read permit document")
	}
	return data, p, nil
}

func (s *Issuer) documentData(ctx context.Context, p *permitModel.Permit) (document.PermitData, error) {
	b, err := s.repo.GetBooking(ctx, p.BookingID)
	if err != nil {
		return document.PermitData{}, err
	}
	f, err := s.repo.GetFacility(ctx, b.FacilityID)
	if err != nil {
		return document.PermitData{}, err
	}

	data := document.PermitData{
		Number:           p.Number,
		BookingID:        b.ID,
		FacilityName:     f.Name,
		FacilityLocation: f.Location,
		RequesterName:    b.UserID,
		Purpose:          b.Purpose,
		Start:            b.StartAt,
		End:              b.EndAt,
		IssuedAt:         p.IssuedAt,
		IssuedBy:         p.IssuedBy,
	}
	if b.Notes != nil {
		data.Notes = *b.Notes
	}
	if b.Participants != nil {
		data.Participants = *b.Participants
	}
	if u, err := s.repo.GetUser(ctx, b.UserID); err == nil {
		if u.Name != "" {
			data.RequesterName = u.Name
		}
		data.RequesterEmail = u.Email
	}
	return data, nil
}

// Enqueue schedules background rendering. A full queue drops the request; IssueFor retries later.
func (s *Issuer) Enqueue(bookingID string) {
	select {
	case s.queue <- bookingID:
	default:
		logger.WithFields(logrus.Fields{"booking_id": bookingID}).Warn("⚠️ permit render queue full, rendering deferred")
	}
}

// Run renders queued permits until ctx is cancelled.
func (s *Issuer) Run(ctx context.Context) {
	logger.Info("Permit render worker started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("Permit render worker stopped")
			return
		case bookingID := <-s.queue:
			if _, err := s.Render(ctx, bookingID); err != nil {
				logger.WithFields(logrus.Fields{"booking_id": bookingID}).
					WithError(err).Warn("⚠️ background permit rendering failed")
			}
		}
	}
}

// Extension is the file extension of rendered documents, e.g. ".html".
func (s *Issuer) Extension() string {
	return s.renderer.Extension()
}
