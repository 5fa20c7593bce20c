package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxWelcomeBonus        TransactionType = "welcome_bonus"
	TxDailyRitual         TransactionType = "daily_ritual"
	TxWheelSpin           TransactionType = "wheel_spin"
	TxTaskCompletion      TransactionType = "task_completion"
	TxTwitterVerification TransactionType = "twitter_verification"
	TxReferralReward      TransactionType = "referral_reward"
	TxReconciliation      TransactionType = "reconciliation"
)

// PointsTransaction is the append-only audit trail. Rows are never updated.
type PointsTransaction struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string          `gorm:"index;not null" json:"user_id"`
	Amount      int64           `gorm:"not null" json:"amount"` // signed
	Type        TransactionType `gorm:"type:varchar(32);index;not null" json:"type"`
	Description string          `json:"description"`
	Metadata    *string         `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (t *PointsTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
