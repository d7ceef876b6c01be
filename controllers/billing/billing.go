package billing

import (
	"io"

	"facility-booking/apperror"
	"facility-booking/controllers"
	"facility-booking/middleware"
	billingService "facility-booking/services/billing"
	billingTypes "facility-booking/types/billing"

	"github.com/gofiber/fiber/v2"
)

// BillingController handles billing and payment proof HTTP requests
type BillingController struct {
	Billing *billingService.Service
}

func NewBillingController(s *billingService.Service) *BillingController {
	return &BillingController{Billing: s}
}

func (bc *BillingController) Store(c *fiber.Ctx) error {
	var req billingTypes.BillingCreateRequest
	if len(c.Body()) > 0 {
		if err := controllers.ParseBody(c, &req); err != nil {
			return controllers.RespondError(c, err)
		}
	}
	rec, err := bc.Billing.Create(c.UserContext(), middleware.GetActor(c), c.Params("id"), req.Amount)
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusCreated, "Billing record created successfully", rec)
}

func (bc *BillingController) Show(c *fiber.Ctx) error {
	rec, err := bc.Billing.Get(c.UserContext(), middleware.GetActor(c), c.Params("id"))
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Billing record retrieved successfully", rec)
}

// UploadProof accepts the multipart field "proof"
func (bc *BillingController) UploadProof(c *fiber.Ctx) error {
	file, err := c.FormFile("proof")
	if err != nil {
		return controllers.RespondError(c, apperror.Validation("No proof file provided"))
	}
	if file.Size > billingService.MaxProofSize {
		return controllers.RespondError(c, apperror.Validation("File size too large. Maximum size is 10MB"))
	}

	src, err := file.Open()
	if err != nil {
		return controllers.RespondError(c, apperror.Internal(err, "Failed to process uploaded file"))
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return controllers.RespondError(c, apperror.Internal(err, "Failed to read file content"))
	}

	rec, err := bc.Billing.UploadProof(c.UserContext(), middleware.GetActor(c), c.Params("id"), billingService.Proof{
		Data:     data,
		Filename: file.Filename,
		MimeType: file.Header.Get(fiber.HeaderContentType),
	})
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Payment proof uploaded successfully", rec)
}

func (bc *BillingController) Verify(c *fiber.Ctx) error {
	var req billingTypes.BillingVerifyRequest
	if err := controllers.ParseBody(c, &req); err != nil {
		return controllers.RespondError(c, err)
	}
	rec, err := bc.Billing.Verify(c.UserContext(), middleware.GetActor(c), c.Params("id"), req.Decision, req.Reason)
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Payment verification recorded", rec)
}
