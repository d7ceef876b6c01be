package audit

import (
	"context"

	"facility-booking/controllers"
	auditModel "facility-booking/models/audit"
	"facility-booking/repository"

	"github.com/gofiber/fiber/v2"
)

type AuditReader interface {
	ListAuditEntries(ctx context.Context, filter repository.AuditFilter) ([]auditModel.Entry, error)
}

// AuditController exposes the append-only audit trail to administrators
type AuditController struct {
	Entries AuditReader
}

func NewAuditController(entries AuditReader) *AuditController {
	return &AuditController{Entries: entries}
}

// Index lists entries oldest first, optionally narrowed by ?booking_id= or ?facility_id=
func (ac *AuditController) Index(c *fiber.Ctx) error {
	entries, err := ac.Entries.ListAuditEntries(c.UserContext(), repository.AuditFilter{
		BookingID:  c.Query("booking_id"),
		FacilityID: c.Query("facility_id"),
	})
	if err != nil {
		return controllers.RespondError(c, err)
	}
	if entries == nil {
		entries = []auditModel.Entry{}
	}
	return controllers.Respond(c, fiber.StatusOK, "Audit entries retrieved successfully", entries)
}
