package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"points-reward-system/database"
	"points-reward-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.OpenSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// fakeTweets serves canned tweets by id.
type fakeTweets struct {
	mu     sync.Mutex
	tweets map[string]*Tweet
	err    error
	calls  int
}

func (f *fakeTweets) FetchTweet(_ context.Context, id string) (*Tweet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tweets[id]
	if !ok {
		return nil, fmt.Errorf("tweet %s not found", id)
	}
	return t, nil
}

func (f *fakeTweets) add(id, screenName, text string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tweets == nil {
		f.tweets = map[string]*Tweet{}
	}
	f.tweets[id] = &Tweet{ID: id, Text: text, ScreenName: screenName, DisplayName: screenName}
	return "https://x.com/" + screenName + "/status/" + id
}

type testEnv struct {
	DB        *gorm.DB
	Clock     *fakeClock
	Referrals *ReferralService
	Ledger    *LedgerService
	Users     *UserService
	Rewards   *RewardService
	Tweets    *fakeTweets
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	referrals := NewReferralService(db)
	ledger := NewLedgerService(db, referrals)
	ledger.Now = clock.Now
	users := NewUserService(db, referrals)
	users.Now = clock.Now
	tweets := &fakeTweets{}
	rewards := NewRewardService(db, ledger, users, tweets, "#kabbalahcode")
	rewards.Roll = func() float64 { return 0 }
	require.NoError(t, rewards.Achievements.SeedCatalog())
	return &testEnv{DB: db, Clock: clock, Referrals: referrals, Ledger: ledger, Users: users, Rewards: rewards, Tweets: tweets}
}

// wallet builds a valid address from a short hex seed.
func wallet(seed string) string {
	const zeros = "0000000000000000000000000000000000000000"
	return "0x" + seed + zeros[len(seed):]
}

func (e *testEnv) signUp(t *testing.T, addr, code string) *models.User {
	t.Helper()
	res, err := e.Users.GetOrCreate(context.Background(), addr, code)
	require.NoError(t, err)
	require.True(t, res.IsNewUser)
	return res.User
}

func (e *testEnv) reload(t *testing.T, id string) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, e.DB.First(&u, "id = ?", id).Error)
	return &u
}

func (e *testEnv) transactions(t *testing.T, userID string, typ models.TransactionType) []models.PointsTransaction {
	t.Helper()
	var txs []models.PointsTransaction
	require.NoError(t, e.DB.Where("user_id = ? AND type = ?", userID, typ).Order("created_at ASC").Find(&txs).Error)
	return txs
}
