// Package controllers holds the response helpers shared by the HTTP handlers.
package controllers

import (
	"errors"

	"facility-booking/apperror"
	"facility-booking/logger"
	"facility-booking/types"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Validatable is implemented by every request DTO.
type Validatable interface {
	Validate() error
}

// Respond writes the standard envelope.
func Respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(types.ApiResponse{
		Message: message,
		Status:  status,
		Data:    data,
	})
}

// RespondError maps err onto its HTTP status. Expected outcomes are logged at warn level,
// internal failures at error level.
func RespondError(c *fiber.Ctx, err error) error {
	appErr := apperror.As(err)
	status := apperror.HTTPStatus(appErr.Code)

	entry := logger.WithFields(logrus.Fields{
		"code":   appErr.Code,
		"method": c.Method(),
		"path":   c.Path(),
	})
	if apperror.Expected(appErr) {
		entry.Warn("⚠️ " + appErr.Message)
	} else {
		entry.WithError(err).Error("❌ request failed")
	}

	return c.Status(status).JSON(types.ApiResponse{
		Message: appErr.Message,
		Status:  status,
		Code:    string(appErr.Code),
	})
}

// ParseBody decodes the JSON body into dst and validates it.
func ParseBody(c *fiber.Ctx, dst Validatable) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.Wrap(apperror.CodeValidation, err, "Invalid request body")
	}
	return dst.Validate()
}

// ErrorHandler is the app-wide handler for errors returned by routes and middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(types.ApiResponse{
			Message: fiberErr.Message,
			Status:  fiberErr.Code,
		})
	}
	return RespondError(c, err)
}
