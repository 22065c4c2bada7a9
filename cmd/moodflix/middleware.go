package main

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// createLoggingMiddleware creates a middleware that logs one line per handled request.
func createLoggingMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Info("Handled request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)))
		return err
	}
}

// createCorsMiddleware creates a middleware that allows the browser frontend
// to call the API from any origin.
func createCorsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type, X-Requested-With, Accept, Accept-Language, Accept-Encoding, Content-Language, Origin")
		c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}
