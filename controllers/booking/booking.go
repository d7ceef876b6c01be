package booking

import (
	"facility-booking/controllers"
	"facility-booking/middleware"
	"facility-booking/resource"
	"facility-booking/services/lifecycle"
	bookingTypes "facility-booking/types/booking"

	"github.com/gofiber/fiber/v2"
)

// Store submits a booking request
func (bc *BookingController) Store(c *fiber.Ctx) error {
	var req bookingTypes.BookingCreateRequest
	if err := controllers.ParseBody(c, &req); err != nil {
		return controllers.RespondError(c, err)
	}

	b, err := bc.Lifecycle.Submit(c.UserContext(), middleware.GetActor(c), lifecycle.SubmitInput{
		FacilityID:   req.FacilityID,
		Start:        req.Start,
		End:          req.End,
		Purpose:      req.Purpose,
		Notes:        req.Notes,
		Participants: req.Participants,
	})
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusCreated, "Booking submitted successfully", resource.NewBookingResource(b))
}

// Show returns one booking to its owner or to staff
func (bc *BookingController) Show(c *fiber.Ctx) error {
	b, err := bc.Lifecycle.Get(c.UserContext(), middleware.GetActor(c), c.Params("id"))
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Booking retrieved successfully", resource.NewBookingResource(b))
}

// History returns the audit trail of a booking, oldest first
func (bc *BookingController) History(c *fiber.Ctx) error {
	entries, err := bc.Lifecycle.History(c.UserContext(), middleware.GetActor(c), c.Params("id"))
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Booking history retrieved successfully", entries)
}

// Decide approves or rejects a pending booking
func (bc *BookingController) Decide(c *fiber.Ctx) error {
	var req bookingTypes.BookingDecisionRequest
	if err := controllers.ParseBody(c, &req); err != nil {
		return controllers.RespondError(c, err)
	}

	b, err := bc.Lifecycle.Decide(c.UserContext(), middleware.GetActor(c), c.Params("id"), req.Decision, req.Reason)
	if err != nil {
		return controllers.RespondError(c, err)
	}
	message := "Booking approved successfully"
	if req.Decision == "reject" {
		message = "Booking rejected successfully"
	}
	return controllers.Respond(c, fiber.StatusOK, message, resource.NewBookingResource(b))
}

// Withdraw cancels the caller's own pending booking
func (bc *BookingController) Withdraw(c *fiber.Ctx) error {
	b, err := bc.Lifecycle.Withdraw(c.UserContext(), middleware.GetActor(c), c.Params("id"))
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Booking withdrawn successfully", resource.NewBookingResource(b))
}
