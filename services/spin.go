// services/spin.go
package services

import (
	"context"
	"time"

	"points-reward-system/models"

	"gorm.io/gorm"
)

type SpinResult struct {
	Reward           WheelSlot `json:"reward"`
	RewardIndex      int       `json:"rewardIndex"`
	PointsChange     int64     `json:"pointsChange"`
	NewTotal         int64     `json:"newTotal"`
	NewAvailable     int64     `json:"newAvailable"`
	FreeSpins        int       `json:"freeSpins"`
	ActiveMultiplier int       `json:"activeMultiplier"`
	ActiveBoost      int       `json:"activeBoost"`
}

// Spin draws one wheel slot. A paid spin costs ExtraSpinCost and is settled in
// the same balance write as its reward.
func (s *RewardService) Spin(ctx context.Context, wallet string, useFree bool) (*SpinResult, error) {
	user, err := s.lookupWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}

	idx, slot := SpinWheel(s.Roll())
	now := s.Ledger.Now()
	paid := !useFree

	var change int64
	updated, _, err := s.Ledger.Grant(ctx, user.ID, func(tx *gorm.DB, u *models.User) (*Posting, error) {
		if useFree && u.FreeSpins <= 0 {
			return nil, ErrNoFreeSpins
		}
		if paid && u.AvailablePoints < ExtraSpinCost {
			return nil, ErrNotEnoughPoints
		}

		change = PointsGained(slot.Reward)
		if paid {
			change -= ExtraSpinCost
		}

		fields := map[string]any{}
		if useFree {
			fields["free_spins"] = u.FreeSpins - 1
		}
		expires := now.Add(BoosterDuration * time.Hour)
		switch r := slot.Reward.(type) {
		case MultiplierReward:
			fields["active_multiplier"] = r.Factor
			fields["multiplier_expires_at"] = expires
		case BoostReward:
			fields["active_boost_percent"] = r.Percent
			fields["boost_expires_at"] = expires
		}

		spin := models.WheelSpin{
			UserID:       u.ID,
			RewardKind:   slot.Reward.Kind(),
			RewardValue:  slot.Reward.Value(),
			RewardIndex:  idx,
			IsFree:       useFree,
			PointsChange: change,
		}
		if err := tx.Create(&spin).Error; err != nil {
			return nil, storageErr("Failed to record spin", err)
		}

		p := &Posting{
			Type:           models.TxWheelSpin,
			Amount:         change,
			TotalDelta:     max(0, change),
			AvailableDelta: change,
			Fields:         fields,
			Description:    DescribeWheelReward(slot.Reward, paid),
			Metadata: map[string]any{
				"reward_type":  slot.Reward.Kind(),
				"reward_value": slot.Reward.Value(),
				"reward_index": idx,
				"is_free":      useFree,
			},
		}
		if change > 0 {
			p.ReferralBase = change
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	result := &SpinResult{
		Reward:           slot,
		RewardIndex:      idx,
		PointsChange:     change,
		NewTotal:         updated.TotalPoints,
		NewAvailable:     updated.AvailablePoints,
		FreeSpins:        updated.FreeSpins,
		ActiveMultiplier: 1,
	}
	if updated.MultiplierActive(now) {
		result.ActiveMultiplier = updated.ActiveMultiplier
	}
	if updated.BoostActive(now) {
		result.ActiveBoost = updated.ActiveBoostPercent
	}
	return result, nil
}
