// services/ratelimit.go
package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateAction string

const (
	ActionTwitterVerify RateAction = "twitter_verify"
	ActionDailyRitual   RateAction = "daily_ritual"
	ActionWheelSpin     RateAction = "wheel_spin"
	ActionReferralCheck RateAction = "referral_check"
	ActionAPIGeneral    RateAction = "api_general"
)

type RatePolicy struct {
	Max    int
	Window time.Duration
}

var RatePolicies = map[RateAction]RatePolicy{
	ActionTwitterVerify: {Max: 5, Window: time.Hour},
	ActionDailyRitual:   {Max: 3, Window: 24 * time.Hour},
	ActionWheelSpin:     {Max: 10, Window: time.Hour},
	ActionReferralCheck: {Max: 20, Window: time.Hour},
	ActionAPIGeneral:    {Max: 100, Window: time.Minute},
}

// Decision is the outcome of one Check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// RateLimiter counts requests per (action, identifier) in fixed windows.
type RateLimiter interface {
	Check(ctx context.Context, identifier string, action RateAction) (Decision, error)
}

func policyFor(action RateAction) (RatePolicy, error) {
	p, ok := RatePolicies[action]
	if !ok {
		return RatePolicy{}, fmt.Errorf("unknown rate limit action %q", action)
	}
	return p, nil
}

func longestWindow() time.Duration {
	var longest time.Duration
	for _, p := range RatePolicies {
		if p.Window > longest {
			longest = p.Window
		}
	}
	return longest
}

type windowEntry struct {
	count int
	start time.Time
}

// MemoryLimiter keeps counters in process. Only correct for a single instance.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	Now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{entries: make(map[string]*windowEntry), Now: time.Now}
}

func (m *MemoryLimiter) Check(_ context.Context, identifier string, action RateAction) (Decision, error) {
	policy, err := policyFor(action)
	if err != nil {
		return Decision{}, err
	}
	key := string(action) + ":" + identifier
	now := m.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || now.Sub(entry.start) >= policy.Window {
		m.entries[key] = &windowEntry{count: 1, start: now}
		return Decision{Allowed: true, Limit: policy.Max, Remaining: policy.Max - 1, ResetIn: policy.Window}, nil
	}

	resetIn := policy.Window - now.Sub(entry.start)
	if entry.count >= policy.Max {
		return Decision{Allowed: false, Limit: policy.Max, Remaining: 0, ResetIn: resetIn}, nil
	}
	entry.count++
	return Decision{Allowed: true, Limit: policy.Max, Remaining: policy.Max - entry.count, ResetIn: resetIn}, nil
}

// Sweep drops windows older than the longest policy window and returns how many went.
func (m *MemoryLimiter) Sweep() int {
	cutoff := m.Now().Add(-longestWindow())
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, entry := range m.entries {
		if entry.start.Before(cutoff) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len is the number of live windows.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

const rateLimitKeyPrefix = "ratelimit:"

// RedisLimiter shares counters between instances. Each check is one MULTI/EXEC.
type RedisLimiter struct {
	RDB *redis.Client
}

func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{RDB: rdb}
}

func (r *RedisLimiter) Check(ctx context.Context, identifier string, action RateAction) (Decision, error) {
	policy, err := policyFor(action)
	if err != nil {
		return Decision{}, err
	}
	key := rateLimitKeyPrefix + string(action) + ":" + identifier

	pipe := r.RDB.TxPipeline()
	// a. open the window with its expiry if it does not exist yet
	pipe.SetNX(ctx, key, 0, policy.Window)
	// b. count this request
	countCmd := pipe.Incr(ctx, key)
	// c. remaining lifetime of the window
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		// fail open
		log.Printf("⚠️ [RATE_LIMIT] redis unavailable for %s, allowing request: %v", action, err)
		return Decision{Allowed: true, Limit: policy.Max, Remaining: policy.Max, ResetIn: policy.Window}, nil
	}

	count := int(countCmd.Val())
	resetIn := ttlCmd.Val()
	if resetIn <= 0 {
		resetIn = policy.Window
	}
	if count > policy.Max {
		return Decision{Allowed: false, Limit: policy.Max, Remaining: 0, ResetIn: resetIn}, nil
	}
	return Decision{Allowed: true, Limit: policy.Max, Remaining: policy.Max - count, ResetIn: resetIn}, nil
}
