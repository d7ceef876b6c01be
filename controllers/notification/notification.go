package notification

import (
	"strconv"

	"facility-booking/controllers"
	"facility-booking/middleware"
	"facility-booking/services/notify"

	"github.com/gofiber/fiber/v2"
)

type NotificationController struct {
	Inbox *notify.Inbox
}

func NewNotificationController(inbox *notify.Inbox) *NotificationController {
	return &NotificationController{Inbox: inbox}
}

// Index lists the caller's notifications, newest first; ?unread=true filters read ones out
func (nc *NotificationController) Index(c *fiber.Ctx) error {
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))
	items, err := nc.Inbox.List(c.UserContext(), middleware.GetActor(c).ID, unreadOnly)
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Notifications retrieved successfully", items)
}

func (nc *NotificationController) MarkRead(c *fiber.Ctx) error {
	if err := nc.Inbox.MarkRead(c.UserContext(), middleware.GetActor(c).ID, c.Params("id")); err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Notification marked as read", nil)
}

func (nc *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	n, err := nc.Inbox.MarkAllRead(c.UserContext(), middleware.GetActor(c).ID)
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Notifications marked as read", fiber.Map{"updated": n})
}
