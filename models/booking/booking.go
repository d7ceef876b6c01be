package booking

import (
	"time"
)

// Booking is a request to use a facility over the inclusive interval [StartAt, EndAt].
type Booking struct {
	ID           string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string        `gorm:"type:varchar(255);not null;index" json:"user_id"`
	FacilityID   string        `gorm:"type:varchar(36);not null" json:"facility_id"`
	StartAt      time.Time     `gorm:"not null" json:"start"`
	EndAt        time.Time     `gorm:"not null" json:"end"`
	Purpose      string        `gorm:"type:text;not null" json:"purpose"`
	Notes        *string       `gorm:"type:text" json:"notes,omitempty"`
	Participants *int          `gorm:"type:int" json:"participants,omitempty"`
	Status       BookingStatus `gorm:"size:20;not null" json:"status"`

	DecisionReason *string    `gorm:"type:text" json:"decision_reason,omitempty"`
	DecidedBy      *string    `gorm:"type:varchar(255)" json:"decided_by,omitempty"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// Overlaps uses inclusive bounds, so bookings that only touch at an endpoint still overlap.
func (b Booking) Overlaps(start, end time.Time) bool {
	return !b.StartAt.After(end) && !start.After(b.EndAt)
}

// Hours is the booked duration used for billing.
func (b Booking) Hours() float64 {
	return b.EndAt.Sub(b.StartAt).Hours()
}
