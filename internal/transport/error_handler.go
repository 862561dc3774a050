package transport

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler renders every handler error as a JSON body. Client errors keep
// their message; anything unexpected logs at error level and returns a generic
// body so internal details never reach the device bridge.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}

		log := logger.With(
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed")
		} else {
			log.Warn("request rejected")
		}

		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}
