package services

import (
	"context"
	"testing"

	"points-reward-system/models"

	"github.com/stretchr/testify/require"
)

func TestVerifyTwitter(t *testing.T) {
	env := newTestEnv(t)
	user := env.signUp(t, wallet("aaaaaa"), "")
	ctx := context.Background()

	url := env.Tweets.add("4001", "Seeker_One", "Joining the #KabbalahCode aaaaaa")
	res, err := env.Rewards.VerifyTwitter(ctx, user.WalletAddress, url)
	require.NoError(t, err)
	require.Equal(t, "seeker_one", res.Username)
	require.Equal(t, "4001", res.TweetID)
	require.Equal(t, TwitterVerificationPoints, res.BonusPoints)

	u := env.reload(t, user.ID)
	require.NotNil(t, u.TwitterUsername)
	require.Equal(t, "seeker_one", *u.TwitterUsername)
	require.NotNil(t, u.TwitterVerifiedAt)
	require.Equal(t, int64(250), u.TotalPoints)
	require.Equal(t, 3, u.Level)
	require.Len(t, env.transactions(t, user.ID, models.TxTwitterVerification), 1)

	var badge int64
	require.NoError(t, env.DB.Model(&models.UserAchievement{}).
		Where("user_id = ? AND code = ?", user.ID, "TWITTER_CONNECTED").Count(&badge).Error)
	require.Equal(t, int64(1), badge)

	_, err = env.Rewards.VerifyTwitter(ctx, user.WalletAddress, url)
	require.ErrorIs(t, err, ErrTwitterVerified)
}

func TestVerifyTwitterHandleBelongsToOneWallet(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp(t, wallet("aaaaaa"), "")
	bob := env.signUp(t, wallet("bbbbbb"), "")
	ctx := context.Background()

	_, err := env.Rewards.VerifyTwitter(ctx, alice.WalletAddress, env.Tweets.add("4101", "seeker", "#kabbalahcode aaaaaa"))
	require.NoError(t, err)

	_, err = env.Rewards.VerifyTwitter(ctx, bob.WalletAddress, env.Tweets.add("4102", "Seeker", "#kabbalahcode bbbbbb"))
	require.ErrorIs(t, err, ErrTwitterTaken)
	require.Equal(t, int64(100), env.reload(t, bob.ID).TotalPoints)
}

func TestVerifyTwitterRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	user := env.signUp(t, wallet("aaaaaa"), "")
	ctx := context.Background()

	_, err := env.Rewards.VerifyTwitter(ctx, user.WalletAddress, "https://twitter.com/seeker")
	require.ErrorIs(t, err, ErrInvalidTweetURL)

	url := env.Tweets.add("4201", "seeker", "#kabbalahcode but no wallet")
	_, err = env.Rewards.VerifyTwitter(ctx, user.WalletAddress, url)
	var re *RewardError
	require.ErrorAs(t, err, &re)
	require.Equal(t, KindUpstream, re.Kind)
	require.Contains(t, re.Message, "aaaaaa")
	require.Nil(t, env.reload(t, user.ID).TwitterVerifiedAt)
}
