// services/reward_service.go
package services

import (
	"context"
	"math/rand/v2"
	"strings"

	"points-reward-system/models"
	"points-reward-system/utils"

	"gorm.io/gorm"
)

// RewardService grants points for rituals, wheel spins, tasks and Twitter verification.
type RewardService struct {
	DB           *gorm.DB
	Ledger       *LedgerService
	Users        *UserService
	Tweets       TweetFetcher
	TweetCheck   TweetCheck
	Achievements *AchievementService
	// Roll returns a uniform draw in [0,1) for the wheel.
	Roll func() float64
}

func NewRewardService(db *gorm.DB, ledger *LedgerService, users *UserService, tweets TweetFetcher, requiredTag string) *RewardService {
	return &RewardService{
		DB:           db,
		Ledger:       ledger,
		Users:        users,
		Tweets:       tweets,
		TweetCheck:   TweetCheck{RequiredTag: requiredTag},
		Achievements: NewAchievementService(db),
		Roll:         rand.Float64,
	}
}

// lookupWallet validates the address shape before touching the store.
func (s *RewardService) lookupWallet(ctx context.Context, wallet string) (*models.User, error) {
	if !utils.IsValidEvmAddress(strings.TrimSpace(wallet)) {
		return nil, ErrInvalidWallet
	}
	return s.Users.GetByWallet(ctx, wallet)
}

// evidenceKey is the global single-use key for a tweet.
func evidenceKey(tweetID string) *string {
	k := "tweet:" + tweetID
	return &k
}

func (s *RewardService) checkAchievements(ctx context.Context, user *models.User) {
	if s.Achievements == nil || user == nil {
		return
	}
	s.Achievements.Check(ctx, user)
}
