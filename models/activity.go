package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DailyRitual: at most one per user per UTC calendar day.
type DailyRitual struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID         string    `gorm:"uniqueIndex:idx_ritual_user_date;not null" json:"user_id"`
	RitualDate     string    `gorm:"uniqueIndex:idx_ritual_user_date;type:varchar(10);not null" json:"ritual_date"`
	PredictionText string    `gorm:"type:text" json:"prediction_text"`
	PredictionData *string   `gorm:"type:jsonb" json:"prediction_data,omitempty"`
	PointsEarned   int64     `json:"points_earned"`
	EvidenceKey    *string   `gorm:"uniqueIndex" json:"evidence_key,omitempty"` // tweet:<id> when verified by tweet
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TaskCompletion: one per (user, task); evidence is globally single-use.
type TaskCompletion struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string    `gorm:"uniqueIndex:idx_task_user_task;not null" json:"user_id"`
	TaskID       string    `gorm:"uniqueIndex:idx_task_user_task;not null" json:"task_id"`
	TaskType     string    `json:"task_type"`
	TaskData     *string   `gorm:"type:jsonb" json:"task_data,omitempty"`
	PointsEarned int64     `json:"points_earned"`
	EvidenceKey  *string   `gorm:"uniqueIndex" json:"evidence_key,omitempty"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// WheelSpin records every draw, free or paid.
type WheelSpin struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string    `gorm:"index;not null" json:"user_id"`
	RewardKind   string    `gorm:"type:varchar(16);not null" json:"reward_kind"`
	RewardValue  int64     `json:"reward_value"`
	RewardIndex  int       `json:"reward_index"`
	IsFree       bool      `json:"is_free"`
	PointsChange int64     `json:"points_change"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (r *DailyRitual) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (c *TaskCompletion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (s *WheelSpin) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
