package booking

import (
	"fmt"
	"strings"

	"facility-booking/apperror"
	"facility-booking/controllers"
	"facility-booking/middleware"
	"facility-booking/resource"

	"github.com/gofiber/fiber/v2"
)

// IssuePermit allocates the booking's permit, or returns the existing one
func (bc *BookingController) IssuePermit(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if !actor.IsStaff() {
		return controllers.RespondError(c, apperror.Forbidden("only staff can issue permits"))
	}
	p, err := bc.Permits.IssueFor(c.UserContext(), c.Params("id"), actor.ID)
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Permit issued successfully", resource.NewPermitResource(p))
}

// ShowPermit returns the persisted permit of a booking
func (bc *BookingController) ShowPermit(c *fiber.Ctx) error {
	b, err := bc.Lifecycle.Get(c.UserContext(), middleware.GetActor(c), c.Params("id"))
	if err != nil {
		return controllers.RespondError(c, err)
	}
	p, err := bc.Permits.Fetch(c.UserContext(), b.ID)
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Permit retrieved successfully", resource.NewPermitResource(p))
}

// DownloadPermit streams the rendered permit document
func (bc *BookingController) DownloadPermit(c *fiber.Ctx) error {
	b, err := bc.Lifecycle.Get(c.UserContext(), middleware.GetActor(c), c.Params("id"))
	if err != nil {
		return controllers.RespondError(c, err)
	}
	data, p, err := bc.Permits.Document(c.UserContext(), b.ID)
	if err != nil {
		return controllers.RespondError(c, err)
	}

	ext := bc.Permits.Extension()
	filename := "permit-" + strings.ReplaceAll(p.Number, "/", "-") + ext
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", filename))
	c.Type(strings.TrimPrefix(ext, "."))
	return c.Status(fiber.StatusOK).Send(data)
}
