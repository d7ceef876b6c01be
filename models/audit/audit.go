package audit

import (
	"time"

	"gorm.io/datatypes"
)

// Actions recorded in the audit trail.
const (
	ActionBookingSubmitted = "booking.submitted"
	ActionBookingApproved  = "booking.approved"
	ActionBookingRejected  = "booking.rejected"
	ActionBookingWithdrawn = "booking.withdrawn"
	ActionPermitIssued     = "permit.issued"
	ActionBillingCreated   = "billing.created"
	ActionBillingProof     = "billing.proof_uploaded"
	ActionBillingConfirmed = "billing.confirmed"
	ActionBillingRejected  = "billing.rejected"
	ActionFacilityCreated  = "facility.created"
	ActionFacilityUpdated  = "facility.updated"
	ActionFacilityDeleted  = "facility.deleted"
)

// Entry is an append-only record of a change and who made it.
type Entry struct {
	ID             string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	ActorID        string            `gorm:"type:varchar(255);not null;index" json:"actor_id"`
	BookingID      *string           `gorm:"type:varchar(36);index" json:"booking_id,omitempty"`
	FacilityID     *string           `gorm:"type:varchar(36);index" json:"facility_id,omitempty"`
	Action         string            `gorm:"type:varchar(64);not null" json:"action"`
	Description    string            `gorm:"type:text;not null" json:"description"`
	PreviousStatus *string           `gorm:"type:varchar(30)" json:"previous_status,omitempty"`
	NewStatus      *string           `gorm:"type:varchar(30)" json:"new_status,omitempty"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (Entry) TableName() string {
	return "audit_entries"
}
