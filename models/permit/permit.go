package permit

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

// IssuerCode is the fixed institution segment of every permit number.
const IssuerCode = "UGM"

// Permit (SIP) is the approval document bound to exactly one approved booking.
type Permit struct {
	ID               string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookingID        string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"booking_id"`
	Number           string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"permit_number"`
	Period           string    `gorm:"type:varchar(7);not null;index" json:"period"`
	Sequence         int       `gorm:"type:int;not null" json:"sequence"`
	DocumentLocation *string   `gorm:"type:varchar(2048)" json:"document_location,omitempty"`
	IssuedBy         string    `gorm:"type:varchar(255);not null" json:"issued_by"`
	IssuedAt         time.Time `gorm:"not null" json:"issued_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Permit) TableName() string {
	return "permits"
}

// HasDocument reports whether rendering has completed.
func (p Permit) HasDocument() bool {
	return p.DocumentLocation != nil && *p.DocumentLocation != ""
}

// Counter holds the last sequence handed out for one calendar month.
type Counter struct {
	Period    string    `gorm:"type:varchar(7);primaryKey" json:"period"`
	LastSeq   int       `gorm:"type:int;not null" json:"last_seq"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Counter) TableName() string {
	return "permit_counters"
}

// MonthWindow is the calendar month containing t, in t's location.
func MonthWindow(t time.Time) (start, end time.Time) {
	m := now.With(t)
	return m.BeginningOfMonth(), m.EndOfMonth()
}

// PeriodOf is the counter key "YYYY-MM" for the month containing t.
func PeriodOf(t time.Time) string {
	start, _ := MonthWindow(t)
	return start.Format("2006-01")
}

// FormatNumber renders SEQ/UGM/MM/YYYY with SEQ padded to three digits.
func FormatNumber(seq int, t time.Time) string {
	start, _ := MonthWindow(t)
	return fmt.Sprintf("%03d/%s/%02d/%04d", seq, IssuerCode, int(start.Month()), start.Year())
}
