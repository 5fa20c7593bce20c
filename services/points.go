// services/points.go
package services

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point values for every reward source.
const (
	DailyRitualPoints         int64 = 50
	ExtraSpinCost             int64 = 100
	TwitterVerificationPoints int64 = 150
	WelcomeBonusPoints        int64 = 100
	WelcomeFreeSpins                = 1
	MaxLevel                        = 75
	BoosterDuration                 = 24 // hours
)

// TaskPoints is the catalog of social tasks and their rewards.
var TaskPoints = map[string]int64{
	"follow_twitter":     100,
	"like_pinned":        25,
	"retweet_pinned":     75,
	"join_telegram":      50,
	"join_telegram_chat": 50,
}

// tweetTasks can be verified with a tweet as evidence.
var tweetTasks = map[string]bool{
	"follow_twitter": true,
	"like_pinned":    true,
	"retweet_pinned": true,
}

// ReferralPercentages by ancestor level.
var ReferralPercentages = map[int]float64{
	1: 0.15,
	2: 0.07,
	3: 0.03,
}

// MaxReferralDepth is the deepest ancestor that earns from a reward.
const MaxReferralDepth = 3

// levelThresholds: minimum total points for levels 2..5.
var levelThresholds = []int64{100, 250, 500, 1000}

// CalculateLevel maps cumulative points to a level in [1, MaxLevel].
func CalculateLevel(total int64) int {
	switch {
	case total < 100:
		return 1
	case total < 250:
		return 2
	case total < 500:
		return 3
	case total < 1000:
		return 4
	case total < 2000:
		return 5
	}
	level := int((total-1000)/1000) + 5
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// PointsForLevel is the smallest total that reaches level.
func PointsForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level <= 5 {
		return levelThresholds[level-2]
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	// level 6 starts at 2000, then every 1000
	return int64(level-5)*1000 + 1000
}

// NextLevelPoints is the total needed for the level after level; MaxLevel has no next.
func NextLevelPoints(level int) int64 {
	if level >= MaxLevel {
		return PointsForLevel(MaxLevel)
	}
	return PointsForLevel(level + 1)
}

// LevelProgress is what the profile shows about the next level.
type LevelProgress struct {
	Level           int   `json:"level"`
	CurrentFloor    int64 `json:"currentLevelPoints"`
	NextLevelPoints int64 `json:"nextLevelPoints"`
	PointsToNext    int64 `json:"pointsToNext"`
}

func CalculateLevelProgress(total int64) LevelProgress {
	level := CalculateLevel(total)
	p := LevelProgress{Level: level, CurrentFloor: PointsForLevel(level)}
	if level >= MaxLevel {
		p.NextLevelPoints = p.CurrentFloor
		return p
	}
	p.NextLevelPoints = NextLevelPoints(level)
	p.PointsToNext = p.NextLevelPoints - total
	return p
}

// CalculateStreakBonus: the highest reached threshold wins.
func CalculateStreakBonus(streak int) int64 {
	switch {
	case streak >= 30:
		return 200
	case streak >= 14:
		return 100
	case streak >= 7:
		return 50
	}
	return 0
}

// CalculateReferralReward is floor(amount * pct[level]); unknown levels earn nothing.
func CalculateReferralReward(amount int64, level int) int64 {
	pct, ok := ReferralPercentages[level]
	if !ok || amount <= 0 {
		return 0
	}
	return int64(math.Floor(float64(amount) * pct))
}

// ApplyBoost adds floor(points * pct / 100).
func ApplyBoost(points int64, pct int) int64 {
	if pct <= 0 || points <= 0 {
		return points
	}
	return points + points*int64(pct)/100
}

// WheelReward is one of PointsReward, JackpotReward, MultiplierReward or BoostReward.
type WheelReward interface {
	Kind() string
	Value() int64
	wheelReward()
}

type PointsReward struct{ Points int64 }
type JackpotReward struct{ Points int64 }
type MultiplierReward struct{ Factor int }
type BoostReward struct{ Percent int }

func (PointsReward) wheelReward()     {}
func (JackpotReward) wheelReward()    {}
func (MultiplierReward) wheelReward() {}
func (BoostReward) wheelReward()      {}

func (PointsReward) Kind() string     { return "points" }
func (JackpotReward) Kind() string    { return "jackpot" }
func (MultiplierReward) Kind() string { return "multiplier" }
func (BoostReward) Kind() string      { return "boost" }

func (r PointsReward) Value() int64     { return r.Points }
func (r JackpotReward) Value() int64    { return r.Points }
func (r MultiplierReward) Value() int64 { return int64(r.Factor) }
func (r BoostReward) Value() int64      { return int64(r.Percent) }

// PointsGained is what a reward credits immediately (boosters credit nothing).
func PointsGained(r WheelReward) int64 {
	switch v := r.(type) {
	case PointsReward:
		return v.Points
	case JackpotReward:
		return v.Points
	}
	return 0
}

// WheelSlot is one segment of the wheel.
type WheelSlot struct {
	Reward      WheelReward
	Label       string
	Probability float64
	Color       string
}

// MarshalJSON keeps the wire shape flat: {type, value, label, probability, color}.
func (s WheelSlot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        string  `json:"type"`
		Value       int64   `json:"value"`
		Label       string  `json:"label"`
		Probability float64 `json:"probability"`
		Color       string  `json:"color"`
	}{s.Reward.Kind(), s.Reward.Value(), s.Label, s.Probability, s.Color})
}

var WheelRewards = []WheelSlot{
	{Reward: PointsReward{10}, Label: "10 Points", Probability: 0.25, Color: "#333"},
	{Reward: PointsReward{25}, Label: "25 Points", Probability: 0.25, Color: "#444"},
	{Reward: MultiplierReward{2}, Label: "x2 Next", Probability: 0.15, Color: "#FF9500"},
	{Reward: PointsReward{50}, Label: "50 Points", Probability: 0.15, Color: "#555"},
	{Reward: PointsReward{75}, Label: "75 Points", Probability: 0.10, Color: "#666"},
	{Reward: PointsReward{150}, Label: "150 Points", Probability: 0.05, Color: "#FFB340"},
	{Reward: BoostReward{10}, Label: "+10% 24h", Probability: 0.04, Color: "#FF6B00"},
	{Reward: JackpotReward{500}, Label: "500 Points!", Probability: 0.01, Color: "#FFD700"},
}

// SpinWheel maps a uniform roll in [0,1) onto the wheel.
// Rounding fall-through lands on the first slot.
func SpinWheel(roll float64) (int, WheelSlot) {
	cumulative := 0.0
	for i, slot := range WheelRewards {
		cumulative += slot.Probability
		if roll < cumulative {
			return i, slot
		}
	}
	return 0, WheelRewards[0]
}

// DescribeWheelReward is the audit description for a spin.
func DescribeWheelReward(r WheelReward, paid bool) string {
	var d string
	switch v := r.(type) {
	case PointsReward:
		d = fmt.Sprintf("Wheel: +%d Points", v.Points)
	case JackpotReward:
		d = fmt.Sprintf("JACKPOT! +%d Points!", v.Points)
	case MultiplierReward:
		d = fmt.Sprintf("Wheel: x%d Multiplier (%dh)", v.Factor, BoosterDuration)
	case BoostReward:
		d = fmt.Sprintf("Wheel: +%d%% Boost (%dh)", v.Percent, BoosterDuration)
	}
	if paid {
		d += fmt.Sprintf(" (-%d cost)", ExtraSpinCost)
	}
	return d
}

// WalletNumber reduces the sum of the address hex digits to 1..9 (0 maps to 9).
func WalletNumber(address string) int {
	hex := address
	if len(hex) >= 2 && hex[:2] == "0x" {
		hex = hex[2:]
	}
	sum := 0
	for _, c := range hex {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c >= 'a' && c <= 'f':
			sum += int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			sum += int(c-'A') + 10
		}
	}
	for sum > 9 {
		next := 0
		for sum > 0 {
			next += sum % 10
			sum /= 10
		}
		sum = next
	}
	if sum == 0 {
		return 9
	}
	return sum
}
