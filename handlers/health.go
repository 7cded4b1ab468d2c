package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// HandleCheckHealth responds to the public health probe.
func HandleCheckHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
