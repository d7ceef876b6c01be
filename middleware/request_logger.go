package middleware

import (
	"time"

	"facility-booking/logger"
	"facility-booking/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs every exchange and, when async is set, queues a sanitized copy for the
// request log table.
func RequestLogger(async *logger.AsyncLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the error handler pick the status before it is logged
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		entry := logger.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"duration":   time.Since(start),
			"client_ip":  c.IP(),
			"user_agent": c.Get(fiber.HeaderUserAgent),
		})
		switch {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request processed")
		}

		if async != nil {
			async.Log(utils.CreateSanitizedLogEntry(c))
		}
		return nil
	}
}
