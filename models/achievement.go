package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AchievementType: static catalog row, seeded at boot from AchievementCatalog.
type AchievementType struct {
	Code        string    `gorm:"primaryKey;type:varchar(32)" json:"code"` // e.g., "FIRST_RITUAL"
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Rarity      string    `gorm:"type:varchar(16);default:'common'" json:"rarity"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
}

// UserAchievement: awarded instance, at most one per (user, code).
type UserAchievement struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"uniqueIndex:idx_user_achievement;not null" json:"user_id"`
	Code      string    `gorm:"uniqueIndex:idx_user_achievement;type:varchar(32);not null" json:"code"`
	AwardedAt time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}

func (a *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

var AchievementCatalog = []AchievementType{
	{Code: "FIRST_RITUAL", Name: "First Ritual", Description: "Completed your first daily ritual", Rarity: "common"},
	{Code: "STREAK_7", Name: "Week of Light", Description: "Reached a 7 day ritual streak", Rarity: "rare"},
	{Code: "STREAK_30", Name: "Month of Light", Description: "Reached a 30 day ritual streak", Rarity: "legendary"},
	{Code: "TWITTER_CONNECTED", Name: "Voice of the Tree", Description: "Verified your Twitter account", Rarity: "common"},
	{Code: "LEVEL_5", Name: "Ascendant", Description: "Reached level 5", Rarity: "epic"},
}
