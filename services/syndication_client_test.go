package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSyndicationFetchTweet(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id_str":"5001","text":"#KabbalahCode aaaaaa","user":{"screen_name":"seeker","name":"The Seeker"}}`))
	}))
	defer srv.Close()

	client := NewSyndicationClient(srv.URL+"/", time.Second)
	tweet, err := client.FetchTweet(context.Background(), "5001")
	require.NoError(t, err)
	require.Equal(t, "/tweet-result", got.URL.Path)
	require.Equal(t, "5001", got.URL.Query().Get("id"))
	require.Equal(t, syndicationUserAgent, got.Header.Get("User-Agent"))
	require.Equal(t, &Tweet{ID: "5001", Text: "#KabbalahCode aaaaaa", ScreenName: "seeker", DisplayName: "The Seeker"}, tweet)
}

func TestSyndicationNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewSyndicationClient(srv.URL, time.Second).FetchTweet(context.Background(), "1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrFetchTimeout)
}

func TestSyndicationTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewSyndicationClient(srv.URL, 50*time.Millisecond).FetchTweet(context.Background(), "1")
	require.ErrorIs(t, err, ErrFetchTimeout)
}

func TestTweetCheck(t *testing.T) {
	check := TweetCheck{RequiredTag: "#kabbalahcode"}
	addr := wallet("abcdef")

	require.NoError(t, check.Verify(&Tweet{Text: "My #KabbalahCode journey ABCDEF"}, addr))

	for text, msg := range map[string]string{
		"   ":                   "Tweet has no text content",
		"abcdef only":           "Tweet must include #kabbalahcode hashtag",
		"#kabbalahcode nothing": "Tweet must include your wallet identifier: abcdef",
	} {
		err := check.Verify(&Tweet{Text: text}, addr)
		var re *RewardError
		require.ErrorAs(t, err, &re, text)
		require.Equal(t, msg, re.Message)
	}
}
