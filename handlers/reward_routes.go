// handlers/reward_routes.go
package handlers

import (
	"strings"

	"points-reward-system/services"

	"github.com/gofiber/fiber/v2"
)

type ritualRequest struct {
	WalletAddress string         `json:"walletAddress"`
	Prediction    map[string]any `json:"prediction"`
}

type tweetRequest struct {
	WalletAddress string `json:"walletAddress"`
	TweetURL      string `json:"tweetUrl"`
}

type spinRequest struct {
	WalletAddress string `json:"walletAddress"`
	UseFree       *bool  `json:"useFree"`
}

type taskRequest struct {
	WalletAddress string `json:"walletAddress"`
	TaskID        string `json:"taskId"`
	TaskType      string `json:"taskType"`
	TweetURL      string `json:"tweetUrl"`
}

// SetupRewardRoutes mounts every point-granting endpoint. Each handler checks
// input shape, then the rate limit, then hands off to the reward service.
func SetupRewardRoutes(app *fiber.App, rewards *services.RewardService, limiter services.RateLimiter) {
	app.Post("/ritual", func(c *fiber.Ctx) error {
		var req ritualRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		wallet, ok := requireWallet(c, req.WalletAddress)
		if !ok {
			return nil
		}
		if req.Prediction == nil {
			return badRequest(c, "Missing required fields")
		}
		if limited(c, limiter, wallet, services.ActionDailyRitual) {
			return nil
		}

		text, _ := req.Prediction["text"].(string)
		res, err := rewards.CompleteRitual(c.UserContext(), wallet, text, req.Prediction)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{
			"success":     true,
			"points":      res.Points,
			"streak":      res.Streak,
			"streakBonus": res.StreakBonus,
			"newTotal":    res.NewTotal,
			"newLevel":    res.NewLevel,
		})
	})

	app.Post("/ritual/verify", func(c *fiber.Ctx) error {
		var req tweetRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if strings.TrimSpace(req.TweetURL) == "" {
			return badRequest(c, "Tweet URL is required")
		}
		wallet, ok := requireWallet(c, req.WalletAddress)
		if !ok {
			return nil
		}
		if limited(c, limiter, wallet, services.ActionDailyRitual) {
			return nil
		}

		res, err := rewards.VerifyRitualTweet(c.UserContext(), wallet, strings.TrimSpace(req.TweetURL))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"points":         res.Points,
				"basePoints":     res.BasePoints,
				"streakBonus":    res.StreakBonus,
				"newStreak":      res.Streak,
				"newTotalPoints": res.NewTotal,
				"newLevel":       res.NewLevel,
			},
		})
	})

	app.Post("/spin", func(c *fiber.Ctx) error {
		var req spinRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		wallet, ok := requireWallet(c, req.WalletAddress)
		if !ok {
			return nil
		}
		// a missing flag must not fall through to a paid spin
		if req.UseFree == nil {
			return badRequest(c, "useFree must be a boolean")
		}
		if limited(c, limiter, wallet, services.ActionWheelSpin) {
			return nil
		}

		res, err := rewards.Spin(c.UserContext(), wallet, *req.UseFree)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{
			"success":          true,
			"reward":           res.Reward,
			"rewardIndex":      res.RewardIndex,
			"pointsChange":     res.PointsChange,
			"newTotal":         res.NewTotal,
			"newAvailable":     res.NewAvailable,
			"freeSpins":        res.FreeSpins,
			"activeMultiplier": res.ActiveMultiplier,
			"activeBoost":      res.ActiveBoost,
		})
	})

	app.Post("/tasks/complete", func(c *fiber.Ctx) error {
		var req taskRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if strings.TrimSpace(req.TaskID) == "" {
			return badRequest(c, "Task ID is required")
		}
		wallet, ok := requireWallet(c, req.WalletAddress)
		if !ok {
			return nil
		}
		if limited(c, limiter, wallet, services.ActionAPIGeneral) {
			return nil
		}

		res, err := rewards.CompleteTask(c.UserContext(), wallet, req.TaskID, req.TaskType)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(taskBody(res))
	})

	app.Post("/tasks/verify", func(c *fiber.Ctx) error {
		var req taskRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if strings.TrimSpace(req.TaskID) == "" || strings.TrimSpace(req.TweetURL) == "" {
			return badRequest(c, "Task ID and tweet URL are required")
		}
		wallet, ok := requireWallet(c, req.WalletAddress)
		if !ok {
			return nil
		}
		if limited(c, limiter, wallet, services.ActionTwitterVerify) {
			return nil
		}

		res, err := rewards.VerifyTask(c.UserContext(), wallet, req.TaskID, req.TaskType, strings.TrimSpace(req.TweetURL))
		if err != nil {
			return writeError(c, err)
		}
		body := taskBody(res)
		body["username"] = res.Username
		return c.JSON(body)
	})

	app.Post("/twitter/verify", func(c *fiber.Ctx) error {
		var req tweetRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if strings.TrimSpace(req.TweetURL) == "" {
			return badRequest(c, "Tweet URL is required")
		}
		wallet, ok := requireWallet(c, req.WalletAddress)
		if !ok {
			return nil
		}
		if limited(c, limiter, wallet, services.ActionTwitterVerify) {
			return nil
		}

		res, err := rewards.VerifyTwitter(c.UserContext(), wallet, strings.TrimSpace(req.TweetURL))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data":    res,
		})
	})
}

func taskBody(res *services.TaskResult) fiber.Map {
	return fiber.Map{
		"success":      true,
		"points":       res.Points,
		"newTotal":     res.NewTotal,
		"newAvailable": res.NewAvailable,
		"newLevel":     res.NewLevel,
	}
}
