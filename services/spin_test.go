package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"points-reward-system/models"

	"github.com/stretchr/testify/require"
)

func TestSpinFreeThenPaid(t *testing.T) {
	env := newTestEnv(t)
	user := env.signUp(t, wallet("aaaaaa"), "")
	ctx := context.Background()

	res, err := env.Rewards.Spin(ctx, user.WalletAddress, true)
	require.NoError(t, err)
	require.Equal(t, 0, res.RewardIndex)
	require.Equal(t, int64(10), res.PointsChange)
	require.Equal(t, int64(110), res.NewTotal)
	require.Equal(t, int64(110), res.NewAvailable)
	require.Equal(t, 0, res.FreeSpins)

	_, err = env.Rewards.Spin(ctx, user.WalletAddress, true)
	require.ErrorIs(t, err, ErrNoFreeSpins)

	// paid: +10 reward, -100 cost; total never goes down
	res, err = env.Rewards.Spin(ctx, user.WalletAddress, false)
	require.NoError(t, err)
	require.Equal(t, int64(-90), res.PointsChange)
	require.Equal(t, int64(110), res.NewTotal)
	require.Equal(t, int64(20), res.NewAvailable)

	_, err = env.Rewards.Spin(ctx, user.WalletAddress, false)
	require.ErrorIs(t, err, ErrNotEnoughPoints)

	txs := env.transactions(t, user.ID, models.TxWheelSpin)
	require.Len(t, txs, 2)
	require.Equal(t, "Wheel: +10 Points", txs[0].Description)
	require.Equal(t, "Wheel: +10 Points (-100 cost)", txs[1].Description)
	require.Equal(t, int64(-90), txs[1].Amount)

	var spins int64
	require.NoError(t, env.DB.Model(&models.WheelSpin{}).Where("user_id = ?", user.ID).Count(&spins).Error)
	require.Equal(t, int64(2), spins)
}

func TestSpinBoosterRewards(t *testing.T) {
	env := newTestEnv(t)
	user := env.signUp(t, wallet("aaaaaa"), "")
	ctx := context.Background()

	env.Rewards.Roll = func() float64 { return 0.5 }
	res, err := env.Rewards.Spin(ctx, user.WalletAddress, true)
	require.NoError(t, err)
	require.Equal(t, 2, res.RewardIndex)
	require.Equal(t, "multiplier", res.Reward.Reward.Kind())
	require.Equal(t, int64(0), res.PointsChange)
	require.Equal(t, 2, res.ActiveMultiplier)

	u := env.reload(t, user.ID)
	require.Equal(t, 2, u.ActiveMultiplier)
	require.NotNil(t, u.MultiplierExpiresAt)
	require.WithinDuration(t, env.Clock.Now().Add(24*time.Hour), *u.MultiplierExpiresAt, time.Second)
	require.Equal(t, int64(100), u.TotalPoints)

	env.Rewards.Roll = func() float64 { return 0.955 }
	require.NoError(t, env.DB.Model(u).Update("available_points", 500).Error)
	res, err = env.Rewards.Spin(ctx, user.WalletAddress, false)
	require.NoError(t, err)
	require.Equal(t, 6, res.RewardIndex)
	require.Equal(t, 10, res.ActiveBoost)
	require.Equal(t, int64(-100), res.PointsChange)
	require.Equal(t, int64(400), res.NewAvailable)
}

func TestSpinJackpotPaysReferrer(t *testing.T) {
	env := newTestEnv(t)
	referrer := env.signUp(t, wallet("aaaaaa"), "")
	user := env.signUp(t, wallet("bbbbbb"), referrer.ReferralCode)

	env.Rewards.Roll = func() float64 { return 0.995 }
	res, err := env.Rewards.Spin(context.Background(), user.WalletAddress, true)
	require.NoError(t, err)
	require.Equal(t, 7, res.RewardIndex)
	require.Equal(t, int64(600), res.NewTotal)
	require.Equal(t, int64(175), env.reload(t, referrer.ID).TotalPoints)
}

func TestSpinUnknownWallet(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Rewards.Spin(context.Background(), wallet("ffff01"), true)
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.Rewards.Spin(context.Background(), "0x123", true)
	require.ErrorIs(t, err, ErrInvalidWallet)
}

// Any mix of spins, rituals and tasks keeps the spendable balance at or above zero.
func TestRandomOperationsNeverOverdraw(t *testing.T) {
	env := newTestEnv(t)
	user := env.signUp(t, wallet("aaaaaa"), "")
	ctx := context.Background()

	rng := rand.New(rand.NewPCG(7, 11))
	env.Rewards.Roll = rng.Float64
	tasks := []string{"follow_twitter", "like_pinned", "retweet_pinned", "join_telegram", "join_telegram_chat"}
	expected := []error{ErrNoFreeSpins, ErrNotEnoughPoints, ErrRitualDone, ErrTaskDone}

	lastTotal := user.TotalPoints
	for i := 0; i < 200; i++ {
		var err error
		switch op := rng.IntN(5); op {
		case 0:
			_, err = env.Rewards.Spin(ctx, user.WalletAddress, true)
		case 1, 2:
			_, err = env.Rewards.Spin(ctx, user.WalletAddress, false)
		case 3:
			if rng.IntN(2) == 0 {
				env.Clock.Advance(24 * time.Hour)
			}
			_, err = env.Rewards.CompleteRitual(ctx, user.WalletAddress, "", nil)
		case 4:
			_, err = env.Rewards.CompleteTask(ctx, user.WalletAddress, tasks[rng.IntN(len(tasks))], "social")
		}
		if err != nil {
			known := false
			for _, e := range expected {
				known = known || errors.Is(err, e)
			}
			require.True(t, known, "step %d: unexpected error %v", i, err)
		}

		u := env.reload(t, user.ID)
		require.GreaterOrEqual(t, u.AvailablePoints, int64(0), "step %d", i)
		require.GreaterOrEqual(t, u.TotalPoints, lastTotal, "step %d", i)
		lastTotal = u.TotalPoints
	}
}
