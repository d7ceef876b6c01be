// Package lifecycle owns booking state changes. Every transition runs in one transaction that
// holds the facility row lock, so the conflict check and the write cannot interleave.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"facility-booking/apperror"
	"facility-booking/logger"
	"facility-booking/models/audit"
	"facility-booking/models/booking"
	"facility-booking/models/notification"
	"facility-booking/repository"
	"facility-booking/services/conflict"
	"facility-booking/services/notify"
	"facility-booking/services/permit"
	"facility-booking/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const timeLayout = "02 Jan 2006 15:04"

type Service struct {
	repo    repository.Repository
	emitter *notify.Emitter
	permits *permit.Issuer
	now     func() time.Time
	tracer  trace.Tracer
}

func NewService(repo repository.Repository, emitter *notify.Emitter, permits *permit.Issuer) *Service {
	return &Service{
		repo:    repo,
		emitter: emitter,
		permits: permits,
		now:     time.Now,
		tracer:  otel.Tracer("facility-booking/lifecycle"),
	}
}

// SubmitInput is a validated booking request.
type SubmitInput struct {
	FacilityID   string
	Start        time.Time
	End          time.Time
	Purpose      string
	Notes        *string
	Participants *int
}

func (in SubmitInput) validate() error {
	if in.FacilityID == "" {
		return apperror.Validation("facility_id is required")
	}
	if strings.TrimSpace(in.Purpose) == "" {
		return apperror.Validation("purpose is required")
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return apperror.Validation("start and end are required")
	}
	if in.End.Before(in.Start) {
		return apperror.Validation("end must not be before start")
	}
	if in.Participants != nil && *in.Participants < 1 {
		return apperror.Validation("participants must be at least 1")
	}
	return nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.CodeOf(err)))
	}
	span.End()
}

func conflictError(clash *booking.Booking) error {
	return apperror.Newf(apperror.CodeSchedulingConflict,
		"facility is already booked from %s to %s",
		clash.StartAt.Format(timeLayout), clash.EndAt.Format(timeLayout))
}

// Submit creates a pending booking, or fails without writing anything.
func (s *Service) Submit(ctx context.Context, actor types.Actor, in SubmitInput) (b *booking.Booking, err error) {
	ctx, span := s.startSpan(ctx, "booking.Submit", attribute.String("facility.id", in.FacilityID))
	defer func() { endSpan(span, err) }()

	if err := in.validate(); err != nil {
		return nil, err
	}

	var queued []notification.Notification
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		f, err := tx.LockFacility(ctx, in.FacilityID)
		if err != nil {
			return err
		}
		if !f.Available {
			return apperror.InvalidState(fmt.Sprintf("facility %s is not available for booking", f.Name))
		}
		if in.Participants != nil && *in.Participants > f.Capacity {
			return apperror.Validation(fmt.Sprintf("participants exceed facility capacity of %d", f.Capacity))
		}

		clash, err := conflict.Find(ctx, tx, f.ID, in.Start, in.End, "")
		if err != nil {
			return err
		}
		if clash != nil {
			return conflictError(clash)
		}

		b = &booking.Booking{
			ID:           uuid.NewString(),
			UserID:       actor.ID,
			FacilityID:   f.ID,
			StartAt:      in.Start,
			EndAt:        in.End,
			Purpose:      strings.TrimSpace(in.Purpose),
			Notes:        in.Notes,
			Participants: in.Participants,
			Status:       booking.BookingStatusPending,
		}
		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}

		if _, err := s.emitter.Record(ctx, tx, notify.Record{
			ActorID:     actor.ID,
			BookingID:   b.ID,
			FacilityID:  f.ID,
			Action:      audit.ActionBookingSubmitted,
			Description: fmt.Sprintf("Booking of %s requested for %s - %s", f.Name, b.StartAt.Format(timeLayout), b.EndAt.Format(timeLayout)),
			New:         string(b.Status),
		}); err != nil {
			return err
		}
		n, err := s.emitter.Notify(ctx, tx, notify.Message{
			UserID:    actor.ID,
			BookingID: b.ID,
			Kind:      notification.KindBookingSubmitted,
			Title:     "Booking request received",
			Body:      fmt.Sprintf("Your request for %s is waiting for approval.", f.Name),
			Target:    actor.Email,
		})
		if err != nil {
			return err
		}
		queued = append(queued, *n)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Dispatch(queued...)
	logger.WithFields(logrus.Fields{"booking_id": b.ID, "facility_id": b.FacilityID, "user_id": actor.ID}).
		Info("✅ booking submitted")
	return b, nil
}

// Approve moves a pending booking to approved and allocates its permit in the same transaction.
func (s *Service) Approve(ctx context.Context, actor types.Actor, bookingID string) (*booking.Booking, error) {
	return s.apply(ctx, actor, bookingID, EventApprove, "")
}

// Reject requires a reason, recorded in the audit trail and shown to the requester.
func (s *Service) Reject(ctx context.Context, actor types.Actor, bookingID, reason string) (*booking.Booking, error) {
	return s.apply(ctx, actor, bookingID, EventReject, reason)
}

// Withdraw lets the requester cancel their own pending booking.
func (s *Service) Withdraw(ctx context.Context, actor types.Actor, bookingID string) (*booking.Booking, error) {
	return s.apply(ctx, actor, bookingID, EventWithdraw, "")
}

// Decide maps an HTTP decision ("approve" or "reject") onto the matching event.
func (s *Service) Decide(ctx context.Context, actor types.Actor, bookingID, decision, reason string) (*booking.Booking, error) {
	switch Event(decision) {
	case EventApprove:
		return s.Approve(ctx, actor, bookingID)
	case EventReject:
		return s.Reject(ctx, actor, bookingID, reason)
	default:
		return nil, apperror.Validation("decision must be approve or reject")
	}
}

type effect struct {
	action string
	kind   notification.Kind
	title  string
	body   string
}

func effectFor(ev Event, facilityName, reason string) effect {
	switch ev {
	case EventApprove:
		return effect{audit.ActionBookingApproved, notification.KindBookingApproved,
			"Booking approved", fmt.Sprintf("Your booking of %s has been approved.", facilityName)}
	case EventReject:
		return effect{audit.ActionBookingRejected, notification.KindBookingRejected,
			"Booking rejected", fmt.Sprintf("Your booking of %s was rejected: %s", facilityName, reason)}
	default:
		return effect{audit.ActionBookingWithdrawn, notification.KindBookingCancelled,
			"Booking cancelled", fmt.Sprintf("Your booking of %s has been cancelled.", facilityName)}
	}
}

func (s *Service) apply(ctx context.Context, actor types.Actor, bookingID string, ev Event, reason string) (b *booking.Booking, err error) {
	ctx, span := s.startSpan(ctx, "booking."+string(ev), attribute.String("booking.id", bookingID))
	defer func() { endSpan(span, err) }()

	reason = strings.TrimSpace(reason)
	if ev.NeedsReason() && reason == "" {
		return nil, apperror.Validation("reason is required")
	}
	if ev.StaffOnly() && !actor.IsStaff() {
		return nil, apperror.Forbidden("only staff can " + string(ev) + " bookings")
	}

	var (
		queued    []notification.Notification
		permitted bool
	)
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		current, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		// lock order: facility, then booking, then the permit counter
		f, err := tx.LockFacility(ctx, current.FacilityID)
		if err != nil {
			return err
		}
		b, err = tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		if !ev.StaffOnly() && b.UserID != actor.ID {
			return apperror.Forbidden("only the requester can " + string(ev) + " this booking")
		}
		tr, err := Next(b.Status, ev)
		if err != nil {
			return err
		}

		if ev == EventApprove {
			clash, err := conflict.Find(ctx, tx, f.ID, b.StartAt, b.EndAt, b.ID)
			if err != nil {
				return err
			}
			if clash != nil {
				return conflictError(clash)
			}
		}

		previous := b.Status
		now := s.now()
		b.Status = tr.To
		b.DecidedBy = &actor.ID
		b.DecidedAt = &now
		if reason != "" {
			b.DecisionReason = &reason
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}

		fx := effectFor(ev, f.Name, reason)
		var metadata map[string]interface{}
		if reason != "" {
			metadata = map[string]interface{}{"reason": reason}
		}
		description := fx.title
		if reason != "" {
			description += ": " + reason
		}
		if _, err := s.emitter.Record(ctx, tx, notify.Record{
			ActorID:     actor.ID,
			BookingID:   b.ID,
			FacilityID:  f.ID,
			Action:      fx.action,
			Description: description,
			Previous:    string(previous),
			New:         string(b.Status),
			Metadata:    metadata,
		}); err != nil {
			return err
		}

		payload := map[string]interface{}{"status": string(b.Status)}
		if ev == EventApprove {
			p, _, err := s.permits.Allocate(ctx, tx, b, actor.ID)
			if err != nil {
				return err
			}
			permitted = true
			payload["permit_number"] = p.Number
			fx.body += " Permit number: " + p.Number + "."
		}

		n, err := s.emitter.Notify(ctx, tx, notify.Message{
			UserID:    b.UserID,
			BookingID: b.ID,
			Kind:      fx.kind,
			Title:     fx.title,
			Body:      fx.body,
			Payload:   payload,
		})
		if err != nil {
			return err
		}
		queued = append(queued, *n)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Dispatch(queued...)
	if permitted {
		s.permits.Enqueue(b.ID)
	}
	logger.WithFields(logrus.Fields{"booking_id": b.ID, "status": b.Status, "actor_id": actor.ID}).
		Info("✅ booking " + string(ev) + " applied")
	return b, nil
}

// Get returns a booking visible to the actor: its owner or staff.
func (s *Service) Get(ctx context.Context, actor types.Actor, bookingID string) (*booking.Booking, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(b.UserID) {
		return nil, apperror.Forbidden("booking belongs to another user")
	}
	return b, nil
}

// History is the booking's audit trail, oldest first.
func (s *Service) History(ctx context.Context, actor types.Actor, bookingID string) ([]audit.Entry, error) {
	if _, err := s.Get(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	return s.repo.ListAuditEntries(ctx, repository.AuditFilter{BookingID: bookingID})
}
