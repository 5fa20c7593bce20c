package services

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateLevelBoundaries(t *testing.T) {
	cases := map[int64]int{
		0: 1, 99: 1, 100: 2, 249: 2, 250: 3, 499: 3, 500: 4,
		999: 4, 1000: 5, 1999: 5, 2000: 6, 2999: 6, 3000: 7,
		1_000_000: MaxLevel,
	}
	for total, want := range cases {
		require.Equal(t, want, CalculateLevel(total), "total=%d", total)
	}
}

func TestCalculateLevelMonotonic(t *testing.T) {
	prev := CalculateLevel(0)
	for p := int64(1); p < 100_000; p += 37 {
		lvl := CalculateLevel(p)
		require.GreaterOrEqual(t, lvl, prev)
		prev = lvl
	}
}

func TestPointsForLevelInverse(t *testing.T) {
	for level := 1; level <= MaxLevel; level++ {
		floor := PointsForLevel(level)
		require.Equal(t, level, CalculateLevel(floor), "level=%d", level)
		if floor > 0 {
			require.Equal(t, level-1, CalculateLevel(floor-1), "level=%d", level)
		}
	}
}

func TestNextLevelPoints(t *testing.T) {
	require.Equal(t, int64(100), NextLevelPoints(1))
	require.Equal(t, int64(2000), NextLevelPoints(5))
	require.Equal(t, PointsForLevel(MaxLevel), NextLevelPoints(MaxLevel))
}

func TestLevelProgress(t *testing.T) {
	p := CalculateLevelProgress(180)
	require.Equal(t, 2, p.Level)
	require.Equal(t, int64(100), p.CurrentFloor)
	require.Equal(t, int64(250), p.NextLevelPoints)
	require.Equal(t, int64(70), p.PointsToNext)
}

func TestCalculateStreakBonus(t *testing.T) {
	require.Equal(t, int64(0), CalculateStreakBonus(1))
	require.Equal(t, int64(0), CalculateStreakBonus(6))
	require.Equal(t, int64(50), CalculateStreakBonus(7))
	require.Equal(t, int64(100), CalculateStreakBonus(14))
	require.Equal(t, int64(100), CalculateStreakBonus(29))
	require.Equal(t, int64(200), CalculateStreakBonus(30))
	require.Equal(t, int64(200), CalculateStreakBonus(365))
}

func TestCalculateReferralReward(t *testing.T) {
	require.Equal(t, int64(15), CalculateReferralReward(100, 1))
	require.Equal(t, int64(7), CalculateReferralReward(100, 2))
	require.Equal(t, int64(3), CalculateReferralReward(100, 3))
	require.Equal(t, int64(7), CalculateReferralReward(50, 1))
	require.Equal(t, int64(0), CalculateReferralReward(10, 3))
	require.Equal(t, int64(0), CalculateReferralReward(100, 4))
	require.Equal(t, int64(0), CalculateReferralReward(-100, 1))
}

func TestApplyBoost(t *testing.T) {
	require.Equal(t, int64(55), ApplyBoost(50, 10))
	require.Equal(t, int64(27), ApplyBoost(25, 10))
	require.Equal(t, int64(50), ApplyBoost(50, 0))
}

func TestWheelProbabilitiesSumToOne(t *testing.T) {
	sum := 0.0
	for _, slot := range WheelRewards {
		sum += slot.Probability
	}
	require.InDelta(t, 1.0, sum, 1e-9)
}

func TestSpinWheelBoundaries(t *testing.T) {
	idx, slot := SpinWheel(0)
	require.Equal(t, 0, idx)
	require.Equal(t, PointsReward{10}, slot.Reward)

	idx, _ = SpinWheel(0.25)
	require.Equal(t, 1, idx)

	idx, slot = SpinWheel(0.995)
	require.Equal(t, 7, idx)
	require.Equal(t, JackpotReward{500}, slot.Reward)

	// a roll past the accumulated mass falls back to the first slot
	idx, _ = SpinWheel(1.5)
	require.Equal(t, 0, idx)
}

func TestSpinWheelDistribution(t *testing.T) {
	const draws = 100_000
	rng := rand.New(rand.NewPCG(1, 2))
	counts := make([]int, len(WheelRewards))
	for i := 0; i < draws; i++ {
		idx, _ := SpinWheel(rng.Float64())
		counts[idx]++
	}
	for i, slot := range WheelRewards {
		observed := float64(counts[i]) / draws
		// 5 standard deviations
		tolerance := 5 * math.Sqrt(slot.Probability*(1-slot.Probability)/draws)
		require.InDelta(t, slot.Probability, observed, tolerance, "slot %d", i)
	}
}

func TestWheelSlotJSON(t *testing.T) {
	raw, err := json.Marshal(WheelRewards[6])
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, "boost", out["type"])
	require.Equal(t, float64(10), out["value"])
	require.Equal(t, "+10% 24h", out["label"])
	require.Equal(t, "#FF6B00", out["color"])
}

func TestWheelSlotJSONEscapesLabel(t *testing.T) {
	slot := WheelSlot{Reward: PointsReward{10}, Label: "line\x01break \"✨\" \u2028", Probability: 0.5, Color: "#000"}
	raw, err := json.Marshal(slot)
	require.NoError(t, err)
	require.True(t, json.Valid(raw))

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, slot.Label, out["label"])
	require.Equal(t, 0.5, out["probability"])
}

func TestWheelLabels(t *testing.T) {
	labels := make([]string, len(WheelRewards))
	for i, slot := range WheelRewards {
		labels[i] = slot.Label
	}
	require.Equal(t, []string{
		"10 Points", "25 Points", "x2 Next", "50 Points",
		"75 Points", "150 Points", "+10% 24h", "500 Points!",
	}, labels)
}

func TestPointsGained(t *testing.T) {
	require.Equal(t, int64(75), PointsGained(PointsReward{75}))
	require.Equal(t, int64(500), PointsGained(JackpotReward{500}))
	require.Equal(t, int64(0), PointsGained(MultiplierReward{2}))
	require.Equal(t, int64(0), PointsGained(BoostReward{10}))
}

func TestDescribeWheelReward(t *testing.T) {
	require.Equal(t, "Wheel: +25 Points", DescribeWheelReward(PointsReward{25}, false))
	require.Equal(t, "JACKPOT! +500 Points! (-100 cost)", DescribeWheelReward(JackpotReward{500}, true))
	require.Equal(t, "Wheel: x2 Multiplier (24h)", DescribeWheelReward(MultiplierReward{2}, false))
}

func TestWalletNumber(t *testing.T) {
	// all zeros sums to 0 which maps to 9
	require.Equal(t, 9, WalletNumber("0x0000000000000000000000000000000000000000"))
	// single 'a' = 10 -> 1
	require.Equal(t, 1, WalletNumber("0xa000000000000000000000000000000000000000"))
	// 40 * 15 = 600 -> 6
	require.Equal(t, 6, WalletNumber("0xffffffffffffffffffffffffffffffffffffffff"))
	for _, addr := range []string{
		"0x52908400098527886e0f7030069857d2e4169ee7",
		"0xde709f2102306220921060314715629080e2fb77",
	} {
		n := WalletNumber(addr)
		require.GreaterOrEqual(t, n, 1)
		require.LessOrEqual(t, n, 9)
	}
}
