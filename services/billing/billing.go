// Package billing tracks what an approved booking owes and verifies uploaded payment proofs.
package billing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"facility-booking/apperror"
	"facility-booking/logger"
	"facility-booking/models/audit"
	billingModel "facility-booking/models/billing"
	"facility-booking/models/booking"
	"facility-booking/models/notification"
	"facility-booking/repository"
	"facility-booking/services/notify"
	"facility-booking/services/slip_reader"
	"facility-booking/storage"
	"facility-booking/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const MaxProofSize = 10 * 1024 * 1024

var proofTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

type Service struct {
	repo    repository.Repository
	emitter *notify.Emitter
	files   storage.FileStorage
	slips   slip_reader.Reader
	now     func() time.Time
}

// NewService builds the billing service; slips may be nil when slip reading is not configured.
func NewService(repo repository.Repository, emitter *notify.Emitter, files storage.FileStorage, slips slip_reader.Reader) *Service {
	return &Service{repo: repo, emitter: emitter, files: files, slips: slips, now: time.Now}
}

// Proof is an uploaded proof of payment.
type Proof struct {
	Data     []byte
	Filename string
	MimeType string
}

func (p Proof) validate() error {
	if len(p.Data) == 0 {
		return apperror.Validation("proof file is required")
	}
	if len(p.Data) > MaxProofSize {
		return apperror.Validation("proof file too large, maximum size is 10MB")
	}
	if _, ok := proofTypes[p.MimeType]; !ok {
		return apperror.Validation("proof must be a JPEG, PNG, WebP or PDF file")
	}
	return nil
}

// DefaultAmount is the facility's hourly price times the booked hours, rounded to cents.
func DefaultAmount(pricePerHour float64, b booking.Booking) float64 {
	return math.Round(pricePerHour*b.Hours()*100) / 100
}

func requireApproved(b *booking.Booking) error {
	if b.Status != booking.BookingStatusApproved {
		return apperror.InvalidState(fmt.Sprintf("only approved bookings can be billed, booking is %s", b.Status))
	}
	return nil
}

func (s *Service) newRecord(ctx context.Context, tx repository.Repository, b *booking.Booking, amount *float64) (*billingModel.Record, error) {
	rec := &billingModel.Record{
		ID:        uuid.NewString(),
		BookingID: b.ID,
		Status:    billingModel.PaymentStatusUnpaid,
	}
	if amount != nil {
		rec.Amount = *amount
	} else {
		f, err := tx.GetFacility(ctx, b.FacilityID)
		if err != nil {
			return nil, err
		}
		rec.Amount = DefaultAmount(f.PricePerHour, *b)
	}
	if err := tx.CreateBilling(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Create opens the billing record of an approved booking.
func (s *Service) Create(ctx context.Context, actor types.Actor, bookingID string, amount *float64) (*billingModel.Record, error) {
	if !actor.IsStaff() {
		return nil, apperror.Forbidden("only staff can create billing records")
	}
	if amount != nil && *amount < 0 {
		return nil, apperror.Validation("amount must not be negative")
	}

	var (
		rec    *billingModel.Record
		queued []notification.Notification
	)
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := requireApproved(b); err != nil {
			return err
		}
		if _, err := tx.GetBillingByBooking(ctx, b.ID); err == nil {
			return apperror.InvalidState("booking already has a billing record")
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}

		rec, err = s.newRecord(ctx, tx, b, amount)
		if err != nil {
			return err
		}
		if _, err := s.emitter.Record(ctx, tx, notify.Record{
			ActorID:     actor.ID,
			BookingID:   b.ID,
			FacilityID:  b.FacilityID,
			Action:      audit.ActionBillingCreated,
			Description: fmt.Sprintf("Billing of %.2f created", rec.Amount),
			New:         string(rec.Status),
			Metadata:    map[string]interface{}{"amount": rec.Amount},
		}); err != nil {
			return err
		}
		n, err := s.emitter.Notify(ctx, tx, notify.Message{
			UserID:    b.UserID,
			BookingID: b.ID,
			Kind:      notification.KindBillingCreated,
			Title:     "Payment required",
			Body:      fmt.Sprintf("Please pay %.2f for your approved booking and upload the proof of payment.", rec.Amount),
			Payload:   map[string]interface{}{"amount": rec.Amount},
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
	return rec, nil
}

// UploadProof stores the requester's proof of payment and marks the record for verification.
// The file is stored and read before the transaction opens; a failed transaction leaves an
// orphaned file, never a dangling reference.
func (s *Service) UploadProof(ctx context.Context, actor types.Actor, bookingID string, proof Proof) (*billingModel.Record, error) {
	if err := proof.validate(); err != nil {
		return nil, err
	}
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.ID {
		return nil, apperror.Forbidden("only the requester can upload a payment proof")
	}
	if err := requireApproved(b); err != nil {
		return nil, err
	}

	location, err := s.files.Put(ctx, proof.Data, "proofs/"+b.ID+proofTypes[proof.MimeType])
	if err != nil {
		return nil, apperror.Internal(err, "failed to store payment proof")
	}
	reading := s.readSlip(ctx, b.ID, proof)

	var (
		rec    *billingModel.Record
		queued []notification.Notification
	)
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		locked, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := requireApproved(locked); err != nil {
			return err
		}

		rec, err = tx.GetBillingByBooking(ctx, locked.ID)
		if errors.Is(err, apperror.ErrNotFound) {
			rec, err = s.newRecord(ctx, tx, locked, nil)
		}
		if err != nil {
			return err
		}
		if rec.Status == billingModel.PaymentStatusConfirmed {
			return apperror.InvalidState("payment is already confirmed")
		}

		previous := rec.Status
		at := s.now()
		rec.Status = billingModel.PaymentStatusUnderVerification
		rec.ProofLocation = &location
		rec.ProofUploadedAt = &at
		rec.DetectedAmount, rec.DetectedReference = nil, nil
		rec.Note = nil
		if reading != nil {
			if reading.Amount > 0 {
				rec.DetectedAmount = &reading.Amount
			}
			if reading.Reference != "" {
				rec.DetectedReference = &reading.Reference
			}
		}
		if err := tx.UpdateBilling(ctx, rec); err != nil {
			return err
		}

		metadata := map[string]interface{}{"proof_location": location}
		if rec.DetectedAmount != nil {
			metadata["detected_amount"] = *rec.DetectedAmount
		}
		if _, err := s.emitter.Record(ctx, tx, notify.Record{
			ActorID:     actor.ID,
			BookingID:   locked.ID,
			FacilityID:  locked.FacilityID,
			Action:      audit.ActionBillingProof,
			Description: "Payment proof uploaded",
			Previous:    string(previous),
			New:         string(rec.Status),
			Metadata:    metadata,
		}); err != nil {
			return err
		}
		n, err := s.emitter.Notify(ctx, tx, notify.Message{
			UserID:    locked.UserID,
			BookingID: locked.ID,
			Kind:      notification.KindBillingUpdated,
			Title:     "Payment proof received",
			Body:      "Your proof of payment is waiting for verification.",
			Payload:   map[string]interface{}{"status": string(rec.Status)},
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
	return rec, nil
}

// readSlip is best effort; the proof is accepted whether or not the slip can be read.
func (s *Service) readSlip(ctx context.Context, bookingID string, proof Proof) *slip_reader.SlipReading {
	if s.slips == nil || !slip_reader.IsValidImageType(proof.MimeType) {
		return nil
	}
	reading, err := s.slips.Read(ctx, proof.Data, proof.MimeType)
	if err != nil {
		logger.WithFields(logrus.Fields{"booking_id": bookingID}).WithError(err).Warn("⚠️ payment slip could not be read")
		return nil
	}
	return reading
}

// Verify confirms a proof or rejects it with a reason, which returns the record to unpaid.
func (s *Service) Verify(ctx context.Context, actor types.Actor, bookingID, decision, reason string) (*billingModel.Record, error) {
	if !actor.IsStaff() {
		return nil, apperror.Forbidden("only staff can verify payments")
	}
	reason = strings.TrimSpace(reason)
	confirm := decision == "confirm"
	if !confirm && decision != "reject" {
		return nil, apperror.Validation("decision must be confirm or reject")
	}
	if !confirm && reason == "" {
		return nil, apperror.Validation("reason is required")
	}

	var (
		rec    *billingModel.Record
		queued []notification.Notification
	)
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		rec, err = tx.GetBillingByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		if rec.Status != billingModel.PaymentStatusUnderVerification {
			return apperror.InvalidState(fmt.Sprintf("payment is %s, nothing to verify", rec.Status))
		}

		previous := rec.Status
		at := s.now()
		action, title, body := audit.ActionBillingConfirmed, "Payment confirmed", "Your payment has been confirmed."
		if confirm {
			rec.Status = billingModel.PaymentStatusConfirmed
			rec.VerifiedBy = &actor.ID
			rec.VerifiedAt = &at
			rec.Note = nil
		} else {
			action, title, body = audit.ActionBillingRejected, "Payment proof rejected", "Your proof of payment was rejected: "+reason
			rec.Status = billingModel.PaymentStatusUnpaid
			rec.ProofLocation, rec.ProofUploadedAt = nil, nil
			rec.DetectedAmount, rec.DetectedReference = nil, nil
			rec.VerifiedBy, rec.VerifiedAt = nil, nil
			rec.Note = &reason
		}
		if err := tx.UpdateBilling(ctx, rec); err != nil {
			return err
		}

		var metadata map[string]interface{}
		description := title
		if reason != "" {
			metadata = map[string]interface{}{"reason": reason}
			description += ": " + reason
		}
		if _, err := s.emitter.Record(ctx, tx, notify.Record{
			ActorID:     actor.ID,
			BookingID:   b.ID,
			FacilityID:  b.FacilityID,
			Action:      action,
			Description: description,
			Previous:    string(previous),
			New:         string(rec.Status),
			Metadata:    metadata,
		}); err != nil {
			return err
		}
		n, err := s.emitter.Notify(ctx, tx, notify.Message{
			UserID:    b.UserID,
			BookingID: b.ID,
			Kind:      notification.KindBillingUpdated,
			Title:     title,
			Body:      body,
			Payload:   map[string]interface{}{"status": string(rec.Status)},
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
	logger.WithFields(logrus.Fields{"booking_id": bookingID, "status": rec.Status, "actor_id": actor.ID}).
		Info("✅ payment verified")
	return rec, nil
}

// Get returns the billing record of a booking visible to the actor.
func (s *Service) Get(ctx context.Context, actor types.Actor, bookingID string) (*billingModel.Record, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(b.UserID) {
		return nil, apperror.Forbidden("booking belongs to another user")
	}
	return s.repo.GetBillingByBooking(ctx, bookingID)
}
