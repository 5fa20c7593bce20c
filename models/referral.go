package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Referral is an immutable ancestry edge: ReferrerID sits Level steps above ReferredID.
type Referral struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	ReferrerID string `gorm:"index;not null" json:"referrer_id"`
	ReferredID string `gorm:"uniqueIndex:idx_referral_referred_level;not null" json:"referred_id"`
	Level      int    `gorm:"uniqueIndex:idx_referral_referred_level;not null" json:"level"` // 1..3

	ReferralCodeUsed string    `gorm:"not null" json:"referral_code_used"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
