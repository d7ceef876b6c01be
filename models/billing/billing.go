package billing

import (
	"time"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid            PaymentStatus = "unpaid"
	PaymentStatusUnderVerification PaymentStatus = "under_verification"
	PaymentStatusConfirmed         PaymentStatus = "confirmed"
)

func (ps PaymentStatus) IsValid() bool {
	switch ps {
	case PaymentStatusUnpaid, PaymentStatusUnderVerification, PaymentStatusConfirmed:
		return true
	default:
		return false
	}
}

// Record tracks what a booking owes and how its payment was verified.
type Record struct {
	ID                string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookingID         string        `gorm:"type:varchar(36);not null;uniqueIndex" json:"booking_id"`
	Amount            float64       `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status            PaymentStatus `gorm:"size:30;not null" json:"status"`
	ProofLocation     *string       `gorm:"type:varchar(2048)" json:"proof_location,omitempty"`
	ProofUploadedAt   *time.Time    `json:"proof_uploaded_at,omitempty"`
	DetectedAmount    *float64      `gorm:"type:numeric(12,2)" json:"detected_amount,omitempty"`
	DetectedReference *string       `gorm:"type:varchar(255)" json:"detected_reference,omitempty"`
	Note              *string       `gorm:"type:text" json:"note,omitempty"`
	VerifiedBy        *string       `gorm:"type:varchar(255)" json:"verified_by,omitempty"`
	VerifiedAt        *time.Time    `json:"verified_at,omitempty"`
	CreatedAt         time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Record) TableName() string {
	return "billing_records"
}
