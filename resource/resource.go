// Package resource shapes models into API responses.
package resource

import (
	"time"

	"facility-booking/models/booking"
	"facility-booking/models/permit"
)

type BookingResource struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	FacilityID     string     `json:"facility_id"`
	Start          time.Time  `json:"start"`
	End            time.Time  `json:"end"`
	Purpose        string     `json:"purpose"`
	Notes          *string    `json:"notes,omitempty"`
	Participants   *int       `json:"participants,omitempty"`
	Status         string     `json:"status"`
	DecisionReason *string    `json:"decision_reason,omitempty"`
	DecidedBy      *string    `json:"decided_by,omitempty"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func NewBookingResource(b *booking.Booking) BookingResource {
	return BookingResource{
		ID:             b.ID,
		UserID:         b.UserID,
		FacilityID:     b.FacilityID,
		Start:          b.StartAt,
		End:            b.EndAt,
		Purpose:        b.Purpose,
		Notes:          b.Notes,
		Participants:   b.Participants,
		Status:         string(b.Status),
		DecisionReason: b.DecisionReason,
		DecidedBy:      b.DecidedBy,
		DecidedAt:      b.DecidedAt,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func NewBookingCollection(items []booking.Booking) []BookingResource {
	out := make([]BookingResource, 0, len(items))
	for i := range items {
		out = append(out, NewBookingResource(&items[i]))
	}
	return out
}

// PermitResource omits document_location until the document has been rendered.
type PermitResource struct {
	BookingID        string    `json:"booking_id"`
	PermitNumber     string    `json:"permit_number"`
	DocumentLocation *string   `json:"document_location,omitempty"`
	DocumentURL      string    `json:"document_url,omitempty"`
	IssuedBy         string    `json:"issued_by"`
	IssuedAt         time.Time `json:"issued_at"`
}

func NewPermitResource(p *permit.Permit) PermitResource {
	r := PermitResource{
		BookingID:        p.BookingID,
		PermitNumber:     p.Number,
		DocumentLocation: p.DocumentLocation,
		IssuedBy:         p.IssuedBy,
		IssuedAt:         p.IssuedAt,
	}
	if p.HasDocument() {
		r.DocumentURL = "/api/bookings/" + p.BookingID + "/permit/document"
	}
	return r
}

// ScheduleResource is one facility's active bookings on a calendar day.
type ScheduleResource struct {
	FacilityID string            `json:"facility_id"`
	Date       string            `json:"date"`
	Bookings   []BookingResource `json:"bookings"`
}
