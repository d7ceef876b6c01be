package user

import (
	"context"
	"errors"
	"sort"

	"facility-booking/apperror"
	"facility-booking/controllers"
	"facility-booking/logger"
	"facility-booking/middleware"
	"facility-booking/models/user"

	"github.com/gofiber/fiber/v2"
)

// UserReader loads the stored projection of a principal.
type UserReader interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
}

type UserController struct {
	Users UserReader
}

func NewUserController(users UserReader) *UserController {
	return &UserController{Users: users}
}

// GetUserInfo returns the caller as seen by the token, merged with the stored record.
func (uc *UserController) GetUserInfo(c *fiber.Ctx) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return controllers.RespondError(c, apperror.New(apperror.CodeUnauthorized, "Invalid token data"))
	}

	permissions := make([]string, 0, len(p.Permissions))
	for perm, granted := range p.Permissions {
		if granted {
			permissions = append(permissions, perm)
		}
	}
	sort.Strings(permissions)

	userInfo := fiber.Map{
		"id":          p.UserID,
		"email":       p.Email,
		"name":        p.Name,
		"role":        p.Role,
		"user_kind":   p.UserKind,
		"is_staff":    user.IsStaffRole(p.Role),
		"permissions": permissions,
	}

	u, err := uc.Users.GetUser(c.UserContext(), p.UserID)
	switch {
	case err == nil:
		userInfo["last_seen"] = u.LastSeen
		userInfo["created_at"] = u.CreatedAt.Format("2006-01-02 15:04:05")
	case errors.Is(err, apperror.ErrNotFound):
		// sync is best effort, the token alone still identifies the caller
	default:
		return controllers.RespondError(c, err)
	}

	logger.Success("User fetched successfully")
	return controllers.Respond(c, fiber.StatusOK, "User fetched successfully", userInfo)
}
