package booking

import (
	"facility-booking/services/lifecycle"
	"facility-booking/services/permit"
)

// BookingController handles booking and permit HTTP requests
type BookingController struct {
	Lifecycle *lifecycle.Service
	Permits   *permit.Issuer
}

// NewBookingController creates a new booking controller
func NewBookingController(lc *lifecycle.Service, permits *permit.Issuer) *BookingController {
	return &BookingController{
		Lifecycle: lc,
		Permits:   permits,
	}
}
