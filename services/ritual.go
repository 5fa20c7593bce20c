// services/ritual.go
package services

import (
	"context"
	"fmt"

	"points-reward-system/models"
	"points-reward-system/utils"

	"gorm.io/gorm"
)

type RitualResult struct {
	Points      int64 `json:"points"`
	BasePoints  int64 `json:"basePoints"`
	StreakBonus int64 `json:"streakBonus"`
	Streak      int   `json:"streak"`
	NewTotal    int64 `json:"newTotal"`
	NewLevel    int   `json:"newLevel"`
	Multiplier  int   `json:"multiplier,omitempty"`
	Boost       int   `json:"boost,omitempty"`
}

// CompleteRitual grants the daily ritual once per UTC calendar day.
func (s *RewardService) CompleteRitual(ctx context.Context, wallet, predictionText string, predictionData map[string]any) (*RitualResult, error) {
	user, err := s.lookupWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return s.grantRitual(ctx, user.ID, utils.SanitizeString(predictionText, 0), predictionData, nil)
}

// VerifyRitualTweet grants the daily ritual against a public tweet that carries
// the campaign tag and the wallet's short id.
func (s *RewardService) VerifyRitualTweet(ctx context.Context, wallet, tweetURL string) (*RitualResult, error) {
	user, err := s.lookupWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if !utils.IsValidTwitterURL(tweetURL) {
		return nil, ErrInvalidTweetURL
	}
	today := utcDate(s.Ledger.Now())
	if user.LastRitualDate != nil && *user.LastRitualDate == today {
		return nil, ErrRitualDone
	}

	tweet, err := fetchVerifiedTweet(ctx, s.Tweets, s.TweetCheck, tweetURL, user.WalletAddress)
	if err != nil {
		return nil, err
	}
	data := map[string]any{"tweetUrl": tweetURL, "tweetId": tweet.ID, "username": tweet.ScreenName}
	return s.grantRitual(ctx, user.ID, utils.SanitizeString(tweet.Text, 0), data, evidenceKey(tweet.ID))
}

func (s *RewardService) grantRitual(ctx context.Context, userID, text string, data map[string]any, evidence *string) (*RitualResult, error) {
	now := s.Ledger.Now()
	today := utcDate(now)
	yesterday := utcDate(now.AddDate(0, 0, -1))

	var result RitualResult
	user, _, err := s.Ledger.Grant(ctx, userID, func(tx *gorm.DB, u *models.User) (*Posting, error) {
		result = RitualResult{}
		if u.LastRitualDate != nil && *u.LastRitualDate == today {
			return nil, ErrRitualDone
		}
		if evidence != nil {
			var used int64
			if err := tx.Model(&models.DailyRitual{}).Where("evidence_key = ?", *evidence).Count(&used).Error; err != nil {
				return nil, storageErr("Database error while checking tweet", err)
			}
			if used > 0 {
				return nil, ErrTweetUsed
			}
		}

		streak := 1
		if u.LastRitualDate != nil && *u.LastRitualDate == yesterday {
			streak = u.CurrentStreak + 1
		}
		longest := max(u.LongestStreak, streak)

		base := DailyRitualPoints
		bonus := CalculateStreakBonus(streak)
		points := base + bonus
		fields := map[string]any{
			"current_streak":   streak,
			"longest_streak":   longest,
			"last_ritual_date": today,
		}

		desc := "Daily ritual"
		if bonus > 0 {
			desc += fmt.Sprintf(" + %d streak bonus", bonus)
		}
		if u.MultiplierActive(now) {
			result.Multiplier = u.ActiveMultiplier
			points *= int64(u.ActiveMultiplier)
			// the multiplier is spent by this ritual
			fields["active_multiplier"] = 1
			fields["multiplier_expires_at"] = nil
			desc += fmt.Sprintf(" (x%d multiplier)", u.ActiveMultiplier)
		}
		if u.BoostActive(now) {
			result.Boost = u.ActiveBoostPercent
			points = ApplyBoost(points, u.ActiveBoostPercent)
			desc += fmt.Sprintf(" (+%d%% boost)", u.ActiveBoostPercent)
		}

		ritual := models.DailyRitual{
			UserID:         u.ID,
			RitualDate:     today,
			PredictionText: text,
			PredictionData: encodeJSON(data),
			PointsEarned:   points,
			EvidenceKey:    evidence,
		}
		if err := tx.Create(&ritual).Error; err != nil {
			if isDuplicate(err) {
				return nil, ErrRitualDone
			}
			return nil, storageErr("Failed to record ritual", err)
		}

		result.Points = points
		result.BasePoints = base
		result.StreakBonus = bonus
		result.Streak = streak
		return &Posting{
			Type:           models.TxDailyRitual,
			Amount:         points,
			TotalDelta:     points,
			AvailableDelta: points,
			Fields:         fields,
			Description:    desc,
			Metadata:       map[string]any{"ritual_date": today, "streak": streak, "streak_bonus": bonus},
			ReferralBase:   points,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	result.NewTotal = user.TotalPoints
	result.NewLevel = user.Level
	s.checkAchievements(ctx, user)
	return &result, nil
}
