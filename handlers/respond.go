// handlers/respond.go
package handlers

import (
	"errors"
	"log"
	"math"
	"strconv"
	"strings"

	"points-reward-system/services"
	"points-reward-system/utils"

	"github.com/gofiber/fiber/v2"
)

// writeError maps service errors onto {success:false, error} with the right status.
func writeError(c *fiber.Ctx, err error) error {
	var re *services.RewardError
	if errors.As(err, &re) {
		if re.Kind == services.KindStorage {
			log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
		}
		return c.Status(re.Status()).JSON(fiber.Map{
			"success": false,
			"error":   re.Message,
		})
	}
	log.Printf("❌ [HTTP] %s %s unexpected error: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "Internal server error",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

// requireWallet validates the address shape and returns its normalised form.
func requireWallet(c *fiber.Ctx, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		_ = badRequest(c, "Wallet address is required")
		return "", false
	}
	if !utils.IsValidEvmAddress(raw) {
		_ = badRequest(c, "Invalid wallet address")
		return "", false
	}
	return utils.NormalizeAddress(raw), true
}

// limited runs the limiter for identifier and, when denied, writes the 429.
// It returns true when the caller must stop.
func limited(c *fiber.Ctx, limiter services.RateLimiter, identifier string, action services.RateAction) bool {
	if limiter == nil {
		return false
	}
	d, err := limiter.Check(c.UserContext(), identifier, action)
	if err != nil {
		log.Printf("⚠️ [RATE_LIMIT] %s check failed for %s: %v", action, utils.ShortAddress(identifier), err)
		return false
	}

	c.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if d.Allowed {
		return false
	}

	retryAfter := int(math.Ceil(d.ResetIn.Seconds()))
	c.Set("Retry-After", strconv.Itoa(retryAfter))
	log.Printf("🚫 [RATE_LIMIT] %s denied for %s (retry in %ds)", action, utils.ShortAddress(identifier), retryAfter)
	_ = c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"success":    false,
		"error":      "Too many requests. Please try again later.",
		"retryAfter": retryAfter,
	})
	return true
}
