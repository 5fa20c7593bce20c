// services/achievements.go
package services

import (
	"context"
	"log"

	"points-reward-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementService struct {
	DB *gorm.DB
}

func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{DB: db}
}

// SeedCatalog upserts the static achievement catalog.
func (s *AchievementService) SeedCatalog() error {
	catalog := make([]models.AchievementType, len(models.AchievementCatalog))
	copy(catalog, models.AchievementCatalog)
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "rarity"}),
	}).Create(&catalog).Error
}

// Check awards every achievement the user now qualifies for. Best effort: errors are logged.
func (s *AchievementService) Check(ctx context.Context, user *models.User) []string {
	var rituals int64
	if err := s.DB.WithContext(ctx).Model(&models.DailyRitual{}).
		Where("user_id = ?", user.ID).Count(&rituals).Error; err != nil {
		log.Printf("⚠️ [ACHIEVEMENTS] ritual count failed for %s: %v", user.ID, err)
	}

	var awarded []string
	for _, a := range models.AchievementCatalog {
		if !qualifies(a.Code, user, rituals) {
			continue
		}
		res := s.DB.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.UserAchievement{UserID: user.ID, Code: a.Code})
		if res.Error != nil {
			log.Printf("⚠️ [ACHIEVEMENTS] award %s to %s failed: %v", a.Code, user.ID, res.Error)
			continue
		}
		if res.RowsAffected > 0 {
			awarded = append(awarded, a.Code)
			log.Printf("🎖️ [ACHIEVEMENTS] %s → %s", a.Name, user.ID)
		}
	}
	return awarded
}

func qualifies(code string, u *models.User, rituals int64) bool {
	switch code {
	case "FIRST_RITUAL":
		return rituals >= 1
	case "STREAK_7":
		return u.CurrentStreak >= 7
	case "STREAK_30":
		return u.CurrentStreak >= 30
	case "TWITTER_CONNECTED":
		return u.TwitterVerifiedAt != nil
	case "LEVEL_5":
		return u.Level >= 5
	}
	return false
}
