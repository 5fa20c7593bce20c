package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is one wallet account and its denormalized balances.
// AvailablePoints never goes below zero; TotalPoints only grows.
type User struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	WalletAddress string `gorm:"uniqueIndex;not null" json:"wallet_address"` // lower-case 0x address
	WalletNumber  int    `json:"wallet_number"`

	// Balances
	Level           int   `json:"level" gorm:"not null;default:1"`
	TotalPoints     int64 `json:"total_points" gorm:"not null;default:0"`
	AvailablePoints int64 `json:"available_points" gorm:"not null;default:0"`

	// Streaks
	CurrentStreak  int     `json:"current_streak" gorm:"not null;default:0"`
	LongestStreak  int     `json:"longest_streak" gorm:"not null;default:0"`
	LastRitualDate *string `json:"last_ritual_date,omitempty" gorm:"type:varchar(10)"` // YYYY-MM-DD (UTC)

	// Wheel
	FreeSpins           int        `json:"free_spins" gorm:"not null;default:0"`
	ActiveMultiplier    int        `json:"active_multiplier" gorm:"not null;default:1"`
	MultiplierExpiresAt *time.Time `json:"multiplier_expires_at,omitempty"`
	ActiveBoostPercent  int        `json:"active_boost_percent" gorm:"not null;default:0"`
	BoostExpiresAt      *time.Time `json:"boost_expires_at,omitempty"`

	// Referrals
	ReferralCode   string  `gorm:"uniqueIndex;not null" json:"referral_code"`
	ReferredByCode *string `json:"referred_by_code,omitempty"`

	// Social
	TwitterUsername          *string    `gorm:"uniqueIndex" json:"twitter_username,omitempty"`
	TwitterVerifiedAt        *time.Time `json:"twitter_verified_at,omitempty"`
	TwitterVerificationTweet *string    `json:"twitter_verification_tweet,omitempty"`
	TelegramUsername         *string    `json:"telegram_username,omitempty"`

	// Version is bumped on every balance write; updates are conditional on it.
	Version int64 `json:"-" gorm:"not null;default:0"`

	Timestamps
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// MultiplierActive reports whether the wheel multiplier still applies at now.
func (u *User) MultiplierActive(now time.Time) bool {
	return u.ActiveMultiplier > 1 && u.MultiplierExpiresAt != nil && now.Before(*u.MultiplierExpiresAt)
}

// BoostActive reports whether the percentage boost still applies at now.
func (u *User) BoostActive(now time.Time) bool {
	return u.ActiveBoostPercent > 0 && u.BoostExpiresAt != nil && now.Before(*u.BoostExpiresAt)
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
