// handlers/auth_routes.go
package handlers

import (
	"log"
	"strings"

	"points-reward-system/services"
	"points-reward-system/utils"

	"github.com/gofiber/fiber/v2"
)

type walletSignInRequest struct {
	WalletAddress string `json:"walletAddress"`
	ReferralCode  string `json:"referralCode"`
}

func SetupAuthRoutes(app *fiber.App, users *services.UserService, limiter services.RateLimiter) {
	app.Post("/auth/wallet", func(c *fiber.Ctx) error {
		var req walletSignInRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		wallet, ok := requireWallet(c, req.WalletAddress)
		if !ok {
			return nil
		}
		code := strings.TrimSpace(req.ReferralCode)
		if limited(c, limiter, wallet, services.ActionAPIGeneral) {
			return nil
		}

		if flags := utils.DetectSuspiciousActivity(wallet, c.Get(fiber.HeaderUserAgent)); len(flags) > 0 {
			log.Printf("🚨 [AUTH] suspicious sign-in from %s: %v", utils.ShortAddress(wallet), flags)
		}

		res, err := users.GetOrCreate(c.UserContext(), wallet, code)
		if err != nil {
			return writeError(c, err)
		}

		body := fiber.Map{
			"success":         true,
			"user":            res.User,
			"isNewUser":       res.IsNewUser,
			"referralApplied": res.ReferralApplied,
		}
		if res.ReferralError != "" {
			body["referralError"] = res.ReferralError
		}
		return c.JSON(body)
	})
}
