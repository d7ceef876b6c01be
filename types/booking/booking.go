package booking

import (
	"time"

	"facility-booking/apperror"
	"facility-booking/types"
)

// BookingCreateRequest represents the request payload for submitting a booking
type BookingCreateRequest struct {
	FacilityID   string    `json:"facility_id" validate:"required,uuid"`
	Start        time.Time `json:"start" validate:"required"`
	End          time.Time `json:"end" validate:"required"`
	Purpose      string    `json:"purpose" validate:"required,min=1,max=500"`
	Notes        *string   `json:"notes" validate:"omitempty,max=2000"`
	Participants *int      `json:"participants" validate:"omitempty,min=1"`
}

func (b BookingCreateRequest) Validate() error {
	if err := types.ValidateStruct(b); err != nil {
		return err
	}
	if b.End.Before(b.Start) {
		return apperror.Validation("end must not be before start")
	}
	return nil
}

type BookingDecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string `json:"reason" validate:"omitempty,max=1000"`
}

func (b BookingDecisionRequest) Validate() error {
	if err := types.ValidateStruct(b); err != nil {
		return err
	}
	if b.Decision == "reject" && b.Reason == "" {
		return apperror.Validation("reason is required")
	}
	return nil
}
