package routes

import (
	"facility-booking/constants"
	"facility-booking/controllers/audit"
	"facility-booking/controllers/billing"
	"facility-booking/controllers/booking"
	"facility-booking/controllers/facility"
	"facility-booking/controllers/notification"
	"facility-booking/controllers/server"
	"facility-booking/controllers/user"
	"facility-booking/middleware"
	billingService "facility-booking/services/billing"
	"facility-booking/services/lifecycle"
	"facility-booking/services/notify"
	"facility-booking/services/permit"
	"facility-booking/services/registry"

	"github.com/gofiber/fiber/v2"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Auth      *middleware.Authenticator
	Lifecycle *lifecycle.Service
	Permits   *permit.Issuer
	Registry  *registry.Registry
	Billing   *billingService.Service
	Inbox     *notify.Inbox
	Users     user.UserReader
	Audit     audit.AuditReader
	Health    map[string]server.Pinger
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	bookingController := booking.NewBookingController(deps.Lifecycle, deps.Permits)
	facilityController := facility.NewFacilityController(deps.Registry)
	billingController := billing.NewBillingController(deps.Billing)
	notificationController := notification.NewNotificationController(deps.Inbox)
	healthController := server.NewHealthController(deps.Health)
	userController := user.NewUserController(deps.Users)
	auditController := audit.NewAuditController(deps.Audit)

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	app.Get("/health", healthController.Health)

	/*=============================================================================
	| Admin Routes
	===============================================================================*/
	admin := app.Group("/admin", deps.Auth.RequirePermissions(constants.PermAdminFull))
	admin.Get("/audit", auditController.Index)

	/*=============================================================================
	| Protected Routes
	===============================================================================*/
	api := app.Group("/api", deps.Auth.RequireAuthentication())
	staffOnly := middleware.RequireStaff()

	api.Get("/me", userController.GetUserInfo)

	/*=============================================================================
	| Booking Routes
	===============================================================================*/
	bookingGroup := api.Group("/bookings")
	bookingGroup.Post("/", bookingController.Store)
	bookingGroup.Get("/:id", bookingController.Show)
	bookingGroup.Get("/:id/history", bookingController.History)
	bookingGroup.Post("/:id/decision", staffOnly, bookingController.Decide)
	bookingGroup.Post("/:id/withdraw", bookingController.Withdraw)

	// Permit routes
	bookingGroup.Post("/:id/permit", staffOnly, bookingController.IssuePermit)
	bookingGroup.Get("/:id/permit", bookingController.ShowPermit)
	bookingGroup.Get("/:id/permit/document", bookingController.DownloadPermit)

	// Billing routes
	bookingGroup.Post("/:id/billing", staffOnly, billingController.Store)
	bookingGroup.Get("/:id/billing", billingController.Show)
	bookingGroup.Post("/:id/billing/proof", billingController.UploadProof)
	bookingGroup.Post("/:id/billing/verify", staffOnly, billingController.Verify)

	/*=============================================================================
	| Facility Routes
	===============================================================================*/
	facilityGroup := api.Group("/facilities")
	facilityGroup.Get("/", facilityController.Index)
	facilityGroup.Post("/", staffOnly, facilityController.Store)
	facilityGroup.Get("/:id", facilityController.Show)
	facilityGroup.Put("/:id", staffOnly, facilityController.Update)
	facilityGroup.Delete("/:id", staffOnly, facilityController.Destroy)
	facilityGroup.Get("/:id/schedule", facilityController.Schedule)

	/*=============================================================================
	| Notification Routes
	===============================================================================*/
	notificationGroup := api.Group("/notifications")
	notificationGroup.Get("/", notificationController.Index)
	notificationGroup.Post("/read-all", notificationController.MarkAllRead)
	notificationGroup.Post("/:id/read", notificationController.MarkRead)
}
