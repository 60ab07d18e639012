package validation

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	MaxDays   int
	MaxUserID int
}

// Middleware rejects malformed analytics query parameters before they reach
// the facade: numeric bounds on days/top and a length cap on user_id. Date
// parsing itself stays in the facade so range errors get a single shape.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxDays == 0 {
		cfg.MaxDays = 365
	}
	if cfg.MaxUserID == 0 {
		cfg.MaxUserID = 128
	}

	return func(c *fiber.Ctx) error {
		if !strings.Contains(c.Path(), "/analytics/") {
			return c.Next()
		}

		if days := c.Query("days"); days != "" {
			n, err := strconv.Atoi(days)
			if err != nil || n < 1 || n > cfg.MaxDays {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "days must be an integer between 1 and " + strconv.Itoa(cfg.MaxDays),
				})
			}
		}

		if top := c.Query("top"); top != "" {
			n, err := strconv.Atoi(top)
			if err != nil || n < 1 || n > 24 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "top must be an integer between 1 and 24",
				})
			}
		}

		if userID := c.Query("user_id"); len(userID) > cfg.MaxUserID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "user_id exceeds maximum length",
			})
		}

		return c.Next()
	}
}
