package notification

import (
	"time"

	"gorm.io/datatypes"
)

type Kind string

const (
	KindBookingSubmitted Kind = "booking_submitted"
	KindBookingApproved  Kind = "booking_approved"
	KindBookingRejected  Kind = "booking_rejected"
	KindBookingCancelled Kind = "booking_cancelled"
	KindPermitIssued     Kind = "permit_issued"
	KindBillingCreated   Kind = "billing_created"
	KindBillingUpdated   Kind = "billing_updated"
)

// Notification is a user-facing message. Only the read flag changes after creation.
type Notification struct {
	ID        string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string            `gorm:"type:varchar(255);not null;index" json:"user_id"`
	BookingID *string           `gorm:"type:varchar(36)" json:"booking_id,omitempty"`
	Kind      Kind              `gorm:"type:varchar(50);not null" json:"kind"`
	Title     string            `gorm:"type:varchar(255);not null" json:"title"`
	Body      string            `gorm:"type:text;not null" json:"body"`
	Target    string            `gorm:"type:varchar(255)" json:"target"`
	IsRead    bool              `gorm:"not null" json:"is_read"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb" json:"payload,omitempty"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
