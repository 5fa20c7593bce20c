// services/referral.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"points-reward-system/models"
	"points-reward-system/utils"

	"gorm.io/gorm"
)

type ReferralService struct {
	DB *gorm.DB
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{DB: db}
}

var (
	ErrInvalidReferralCode = validationErr("Invalid referral code")
	ErrSelfReferral        = validationErr("Cannot use your own referral code")
	ErrAlreadyReferred     = conflictErr("Referral already applied")
)

// Ancestor is one user above the earner in the referral tree.
type Ancestor struct {
	UserID string
	Level  int
}

// Ancestors resolves up to MaxReferralDepth ancestors, stopping at the first gap.
func (s *ReferralService) Ancestors(ctx context.Context, userID string) ([]Ancestor, error) {
	var out []Ancestor
	for level := 1; level <= MaxReferralDepth; level++ {
		var edge models.Referral
		err := s.DB.WithContext(ctx).
			Where("referred_id = ? AND level = ?", userID, level).
			First(&edge).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, Ancestor{UserID: edge.ReferrerID, Level: level})
	}
	return out, nil
}

// Distribute credits each ancestor its percentage of earned. Every ancestor is
// credited in its own transaction; failures are logged and never returned.
func (s *ReferralService) Distribute(ctx context.Context, userID string, earned int64, source models.TransactionType) {
	if earned <= 0 {
		return
	}
	ancestors, err := s.Ancestors(ctx, userID)
	if err != nil {
		log.Printf("❌ [REFERRAL] failed to resolve ancestors of %s: %v", userID, err)
	}

	for _, a := range ancestors {
		reward := CalculateReferralReward(earned, a.Level)
		if reward <= 0 {
			continue
		}
		pct := ReferralPercentages[a.Level]
		posting := &Posting{
			Type:           models.TxReferralReward,
			Amount:         reward,
			TotalDelta:     reward,
			AvailableDelta: reward,
			Description:    fmt.Sprintf("Referral reward (L%d): %d points from %s", a.Level, reward, source),
			Metadata: map[string]any{
				"referred_user_id": userID,
				"level":            a.Level,
				"original_amount":  earned,
				"percentage":       int(pct * 100),
			},
		}
		user, _, err := postBalance(ctx, s.DB, a.UserID, func(tx *gorm.DB, u *models.User) (*Posting, error) {
			return posting, nil
		})
		if err != nil {
			log.Printf("❌ [REFERRAL] L%d credit of %d to %s failed: %v", a.Level, reward, a.UserID, err)
			continue
		}
		if err := insertTransaction(s.DB.WithContext(ctx), user.ID, posting); err != nil {
			log.Printf("❌ [REFERRAL] audit insert failed for %s: %v", user.ID, err)
			continue
		}
		log.Printf("🤝 [REFERRAL] L%d %s +%d (from %s %s)", a.Level, user.ID, reward, userID, source)
	}
}

// CreateRelationships links a new user under the owner of code: one level-1 edge
// plus the owner's own level-1 and level-2 ancestors one level deeper.
// Must run inside the sign-up transaction.
func (s *ReferralService) CreateRelationships(tx *gorm.DB, newUser *models.User, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !utils.IsValidReferralCode(code) {
		return ErrInvalidReferralCode
	}

	var referrer models.User
	if err := tx.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidReferralCode
		}
		return storageErr("Database error while resolving referral code", err)
	}
	if referrer.ID == newUser.ID {
		return ErrSelfReferral
	}

	var existing int64
	if err := tx.Model(&models.Referral{}).Where("referred_id = ?", newUser.ID).Count(&existing).Error; err != nil {
		return storageErr("Database error while checking referrals", err)
	}
	if existing > 0 {
		return ErrAlreadyReferred
	}

	edges := []models.Referral{{
		ReferrerID:       referrer.ID,
		ReferredID:       newUser.ID,
		Level:            1,
		ReferralCodeUsed: code,
	}}

	var upstream []models.Referral
	if err := tx.Where("referred_id = ? AND level < ?", referrer.ID, MaxReferralDepth).
		Order("level ASC").Find(&upstream).Error; err != nil {
		return storageErr("Database error while reading referral chain", err)
	}
	for _, up := range upstream {
		edges = append(edges, models.Referral{
			ReferrerID:       up.ReferrerID,
			ReferredID:       newUser.ID,
			Level:            up.Level + 1,
			ReferralCodeUsed: code,
		})
	}

	if err := tx.Create(&edges).Error; err != nil {
		if isDuplicate(err) {
			return ErrAlreadyReferred
		}
		return storageErr("Failed to create referral relationships", err)
	}

	if err := tx.Model(newUser).Update("referred_by_code", code).Error; err != nil {
		return storageErr("Failed to save referral code", err)
	}
	newUser.ReferredByCode = &code
	return nil
}

// ReferralStats is the summary shown on the referrals page.
type ReferralStats struct {
	ReferralCode string `json:"referralCode"`
	Level1Count  int64  `json:"level1Count"`
	Level2Count  int64  `json:"level2Count"`
	Level3Count  int64  `json:"level3Count"`
	TotalEarned  int64  `json:"totalEarned"`
}

func (s *ReferralService) Stats(ctx context.Context, user *models.User) (*ReferralStats, error) {
	stats := &ReferralStats{ReferralCode: user.ReferralCode}

	type levelCount struct {
		Level int
		Count int64
	}
	var counts []levelCount
	if err := s.DB.WithContext(ctx).Model(&models.Referral{}).
		Select("level, COUNT(*) AS count").
		Where("referrer_id = ?", user.ID).
		Group("level").
		Scan(&counts).Error; err != nil {
		return nil, storageErr("Failed to count referrals", err)
	}
	for _, c := range counts {
		switch c.Level {
		case 1:
			stats.Level1Count = c.Count
		case 2:
			stats.Level2Count = c.Count
		case 3:
			stats.Level3Count = c.Count
		}
	}

	if err := s.DB.WithContext(ctx).Model(&models.PointsTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ?", user.ID, models.TxReferralReward).
		Scan(&stats.TotalEarned).Error; err != nil {
		return nil, storageErr("Failed to sum referral earnings", err)
	}
	return stats, nil
}
