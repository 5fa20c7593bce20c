// handlers/user_routes.go
package handlers

import (
	"points-reward-system/services"

	"github.com/gofiber/fiber/v2"
)

type telegramRequest struct {
	WalletAddress string `json:"walletAddress"`
}

func SetupUserRoutes(app *fiber.App, users *services.UserService, referrals *services.ReferralService, limiter services.RateLimiter) {
	app.Post("/telegram/check", func(c *fiber.Ctx) error {
		var req telegramRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		wallet, ok := requireWallet(c, req.WalletAddress)
		if !ok {
			return nil
		}
		if limited(c, limiter, wallet, services.ActionAPIGeneral) {
			return nil
		}

		status, err := users.TelegramStatus(c.UserContext(), wallet)
		if err != nil {
			return writeError(c, err)
		}
		body := fiber.Map{"success": true, "connected": status.Connected}
		if status.Username != "" {
			body["username"] = status.Username
		}
		return c.JSON(body)
	})

	user := app.Group("/user")

	user.Get("/profile", func(c *fiber.Ctx) error {
		wallet, ok := requireWallet(c, c.Query("wallet"))
		if !ok {
			return nil
		}
		if limited(c, limiter, wallet, services.ActionAPIGeneral) {
			return nil
		}

		p, err := users.Profile(c.UserContext(), wallet)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{
			"success":          true,
			"user":             p.User,
			"progress":         p.Progress,
			"activeMultiplier": p.ActiveMultiplier,
			"activeBoost":      p.ActiveBoost,
			"achievements":     p.Achievements,
		})
	})

	user.Get("/transactions", func(c *fiber.Ctx) error {
		wallet, ok := requireWallet(c, c.Query("wallet"))
		if !ok {
			return nil
		}
		if limited(c, limiter, wallet, services.ActionAPIGeneral) {
			return nil
		}

		txs, err := users.Transactions(c.UserContext(), wallet)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "transactions": txs})
	})

	user.Get("/referrals", func(c *fiber.Ctx) error {
		wallet, ok := requireWallet(c, c.Query("wallet"))
		if !ok {
			return nil
		}
		if limited(c, limiter, wallet, services.ActionReferralCheck) {
			return nil
		}

		u, err := users.GetByWallet(c.UserContext(), wallet)
		if err != nil {
			return writeError(c, err)
		}
		stats, err := referrals.Stats(c.UserContext(), u)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{
			"success":      true,
			"referralCode": stats.ReferralCode,
			"level1Count":  stats.Level1Count,
			"level2Count":  stats.Level2Count,
			"level3Count":  stats.Level3Count,
			"totalEarned":  stats.TotalEarned,
		})
	})
}
