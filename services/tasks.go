// services/tasks.go
package services

import (
	"context"
	"fmt"
	"strings"

	"points-reward-system/models"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

type TaskResult struct {
	Points       int64  `json:"points"`
	NewTotal     int64  `json:"newTotal"`
	NewAvailable int64  `json:"newAvailable"`
	NewLevel     int    `json:"newLevel"`
	Username     string `json:"username,omitempty"`
}

// NormalizeTaskID accepts "Follow Twitter", "follow-twitter" and "follow_twitter" alike.
func NormalizeTaskID(raw string) string {
	return strings.ReplaceAll(slug.Make(raw), "-", "_")
}

// TaskTitle renders a task id for humans: follow_twitter -> "Follow Twitter".
// Casers are stateful, so each call gets its own.
func TaskTitle(taskID string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(taskID, "_", " "))
}

// CompleteTask grants a catalog task once per user.
func (s *RewardService) CompleteTask(ctx context.Context, wallet, rawTaskID, taskType string) (*TaskResult, error) {
	taskID := NormalizeTaskID(rawTaskID)
	points, ok := TaskPoints[taskID]
	if !ok {
		return nil, ErrUnknownTask
	}
	user, err := s.lookupWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return s.grantTask(ctx, user.ID, taskID, taskType, points, nil, nil)
}

// VerifyTask grants a tweet task against a public tweet. Each tweet can back
// only one completion across all users.
func (s *RewardService) VerifyTask(ctx context.Context, wallet, rawTaskID, taskType, tweetURL string) (*TaskResult, error) {
	taskID := NormalizeTaskID(rawTaskID)
	points, ok := TaskPoints[taskID]
	if !ok || !tweetTasks[taskID] {
		return nil, ErrUnknownTask
	}
	user, err := s.lookupWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}

	var done int64
	if err := s.DB.WithContext(ctx).Model(&models.TaskCompletion{}).
		Where("user_id = ? AND task_id = ?", user.ID, taskID).
		Count(&done).Error; err != nil {
		return nil, storageErr("Database error while checking task", err)
	}
	if done > 0 {
		return nil, ErrTaskDone
	}

	tweet, err := fetchVerifiedTweet(ctx, s.Tweets, s.TweetCheck, tweetURL, user.WalletAddress)
	if err != nil {
		return nil, err
	}
	data := map[string]any{"tweetUrl": tweetURL, "tweetId": tweet.ID, "username": tweet.ScreenName}
	res, err := s.grantTask(ctx, user.ID, taskID, taskType, points, data, evidenceKey(tweet.ID))
	if err != nil {
		return nil, err
	}
	res.Username = tweet.ScreenName
	return res, nil
}

func (s *RewardService) grantTask(ctx context.Context, userID, taskID, taskType string, base int64, data map[string]any, evidence *string) (*TaskResult, error) {
	now := s.Ledger.Now()
	var points int64
	user, _, err := s.Ledger.Grant(ctx, userID, func(tx *gorm.DB, u *models.User) (*Posting, error) {
		if err := ensureTaskOpen(tx, u.ID, taskID, evidence); err != nil {
			return nil, err
		}

		points = base
		desc := "Task: " + TaskTitle(taskID)
		if u.BoostActive(now) {
			points = ApplyBoost(points, u.ActiveBoostPercent)
			desc += fmt.Sprintf(" (+%d%% boost)", u.ActiveBoostPercent)
		}

		completion := models.TaskCompletion{
			UserID:       u.ID,
			TaskID:       taskID,
			TaskType:     taskType,
			TaskData:     encodeJSON(data),
			PointsEarned: points,
			EvidenceKey:  evidence,
		}
		if err := tx.Create(&completion).Error; err != nil {
			if isDuplicate(err) {
				return nil, ErrTaskDone
			}
			return nil, storageErr("Failed to record task completion", err)
		}

		meta := map[string]any{"task_id": taskID, "task_type": taskType}
		if data != nil {
			meta["tweet_url"] = data["tweetUrl"]
		}
		return &Posting{
			Type:           models.TxTaskCompletion,
			Amount:         points,
			TotalDelta:     points,
			AvailableDelta: points,
			Description:    desc,
			Metadata:       meta,
			ReferralBase:   points,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &TaskResult{
		Points:       points,
		NewTotal:     user.TotalPoints,
		NewAvailable: user.AvailablePoints,
		NewLevel:     user.Level,
	}, nil
}

// ensureTaskOpen is the in-transaction idempotency check; unique indexes back it up.
func ensureTaskOpen(tx *gorm.DB, userID, taskID string, evidence *string) error {
	var done int64
	if err := tx.Model(&models.TaskCompletion{}).
		Where("user_id = ? AND task_id = ?", userID, taskID).
		Count(&done).Error; err != nil {
		return storageErr("Database error while checking task", err)
	}
	if done > 0 {
		return ErrTaskDone
	}
	if evidence == nil {
		return nil
	}
	var used int64
	if err := tx.Model(&models.TaskCompletion{}).
		Where("evidence_key = ?", *evidence).
		Count(&used).Error; err != nil {
		return storageErr("Database error while checking tweet", err)
	}
	if used > 0 {
		return ErrTweetUsed
	}
	return nil
}
