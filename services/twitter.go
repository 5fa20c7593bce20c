// services/twitter.go
package services

import (
	"context"
	"errors"
	"strings"

	"points-reward-system/models"
	"points-reward-system/utils"

	"gorm.io/gorm"
)

// twitterVerificationTask is the task id that records a verified handle.
const twitterVerificationTask = "twitter_verification"

type TwitterResult struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	TweetID     string `json:"tweetId"`
	BonusPoints int64  `json:"bonusPoints"`
}

// VerifyTwitter links the tweet author's handle to the wallet and pays the
// verification bonus once. A handle can belong to one wallet only.
func (s *RewardService) VerifyTwitter(ctx context.Context, wallet, tweetURL string) (*TwitterResult, error) {
	user, err := s.lookupWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if !utils.IsValidTwitterURL(tweetURL) {
		return nil, ErrInvalidTweetURL
	}
	if user.TwitterVerifiedAt != nil {
		return nil, ErrTwitterVerified
	}

	tweet, err := fetchVerifiedTweet(ctx, s.Tweets, s.TweetCheck, tweetURL, user.WalletAddress)
	if err != nil {
		return nil, err
	}
	username := strings.ToLower(tweet.ScreenName)
	if !utils.IsValidTwitterUsername(username) {
		return nil, upstreamErr("Could not determine the tweet author", nil)
	}

	now := s.Ledger.Now()
	updated, _, err := s.Ledger.Grant(ctx, user.ID, func(tx *gorm.DB, u *models.User) (*Posting, error) {
		if u.TwitterVerifiedAt != nil {
			return nil, ErrTwitterVerified
		}
		var owners int64
		if err := tx.Model(&models.User{}).
			Where("twitter_username = ? AND id <> ?", username, u.ID).
			Count(&owners).Error; err != nil {
			return nil, storageErr("Database error while checking Twitter account", err)
		}
		if owners > 0 {
			return nil, ErrTwitterTaken
		}

		key := evidenceKey(tweet.ID)
		if err := ensureTaskOpen(tx, u.ID, twitterVerificationTask, key); err != nil {
			if errors.Is(err, ErrTaskDone) {
				return nil, ErrTwitterVerified
			}
			return nil, err
		}
		completion := models.TaskCompletion{
			UserID:       u.ID,
			TaskID:       twitterVerificationTask,
			TaskType:     "twitter",
			TaskData:     encodeJSON(map[string]any{"tweetUrl": tweetURL, "tweetId": tweet.ID, "username": username}),
			PointsEarned: TwitterVerificationPoints,
			EvidenceKey:  key,
		}
		if err := tx.Create(&completion).Error; err != nil {
			if isDuplicate(err) {
				return nil, ErrTwitterVerified
			}
			return nil, storageErr("Failed to save verification", err)
		}

		return &Posting{
			Type:           models.TxTwitterVerification,
			Amount:         TwitterVerificationPoints,
			TotalDelta:     TwitterVerificationPoints,
			AvailableDelta: TwitterVerificationPoints,
			Fields: map[string]any{
				"twitter_username":           username,
				"twitter_verified_at":        now,
				"twitter_verification_tweet": tweetURL,
			},
			Description:  "Twitter account verified",
			Metadata:     map[string]any{"username": username, "tweet_id": tweet.ID},
			ReferralBase: TwitterVerificationPoints,
		}, nil
	})
	if err != nil {
		// two wallets racing for the same handle collide on the unique index
		var re *RewardError
		if errors.As(err, &re) && re.Kind == KindStorage && isDuplicate(re.Err) {
			return nil, ErrTwitterTaken
		}
		return nil, err
	}

	s.checkAchievements(ctx, updated)
	return &TwitterResult{
		Username:    username,
		DisplayName: tweet.DisplayName,
		TweetID:     tweet.ID,
		BonusPoints: TwitterVerificationPoints,
	}, nil
}
