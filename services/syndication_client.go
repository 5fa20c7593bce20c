// services/syndication_client.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"points-reward-system/utils"
)

// ErrFetchTimeout is returned when the syndication endpoint does not answer in time.
var ErrFetchTimeout = errors.New("tweet fetch timed out")

const syndicationUserAgent = "Mozilla/5.0 (compatible; KabbalahCode/1.0)"

type Tweet struct {
	ID          string
	Text        string
	ScreenName  string
	DisplayName string
}

// TweetFetcher loads public tweet content.
type TweetFetcher interface {
	FetchTweet(ctx context.Context, tweetID string) (*Tweet, error)
}

type SyndicationClient struct {
	BaseURL string
	Client  *http.Client
}

func NewSyndicationClient(baseURL string, timeout time.Duration) *SyndicationClient {
	return &SyndicationClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  utils.NewHTTPClient(timeout),
	}
}

type syndicationResponse struct {
	IDStr string `json:"id_str"`
	Text  string `json:"text"`
	User  struct {
		ScreenName string `json:"screen_name"`
		Name       string `json:"name"`
	} `json:"user"`
}

// FetchTweet calls /tweet-result for one tweet id.
func (c *SyndicationClient) FetchTweet(ctx context.Context, tweetID string) (*Tweet, error) {
	u := fmt.Sprintf("%s/tweet-result?id=%s&token=0", c.BaseURL, url.QueryEscape(tweetID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", syndicationUserAgent)

	resp, err := c.Client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrFetchTimeout
		}
		return nil, fmt.Errorf("syndication request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("⚠️ [SYNDICATION] tweet %s returned %d: %s", tweetID, resp.StatusCode, string(body))
		return nil, fmt.Errorf("syndication returned status %d", resp.StatusCode)
	}

	var out syndicationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if isTimeout(err) {
			return nil, ErrFetchTimeout
		}
		return nil, fmt.Errorf("failed to decode syndication response: %w", err)
	}

	tweet := &Tweet{
		ID:          out.IDStr,
		Text:        out.Text,
		ScreenName:  out.User.ScreenName,
		DisplayName: out.User.Name,
	}
	if tweet.ID == "" {
		tweet.ID = tweetID
	}
	return tweet, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// TweetCheck verifies a fetched tweet carries the campaign tag and the wallet's short id.
type TweetCheck struct {
	RequiredTag string
}

func (c TweetCheck) Verify(tweet *Tweet, wallet string) error {
	text := strings.ToLower(tweet.Text)
	if strings.TrimSpace(text) == "" {
		return upstreamErr("Tweet has no text content", nil)
	}
	tag := strings.ToLower(c.RequiredTag)
	if tag != "" && !strings.Contains(text, tag) {
		return upstreamErr(fmt.Sprintf("Tweet must include %s hashtag", c.RequiredTag), nil)
	}
	walletID := utils.WalletShortID(wallet)
	if !strings.Contains(text, walletID) {
		return upstreamErr(fmt.Sprintf("Tweet must include your wallet identifier: %s", walletID), nil)
	}
	return nil
}

// fetchVerifiedTweet validates the URL, fetches the tweet and checks its content.
func fetchVerifiedTweet(ctx context.Context, fetcher TweetFetcher, check TweetCheck, tweetURL, wallet string) (*Tweet, error) {
	if !utils.IsValidTwitterURL(tweetURL) {
		return nil, ErrInvalidTweetURL
	}
	tweetID := utils.ExtractTweetID(tweetURL)
	if tweetID == "" {
		return nil, validationErr("Could not extract tweet ID from URL")
	}

	tweet, err := fetcher.FetchTweet(ctx, tweetID)
	if errors.Is(err, ErrFetchTimeout) {
		return nil, upstreamErr("Timed out fetching tweet. Please try again.", err)
	}
	if err != nil || tweet == nil {
		return nil, upstreamErr("Could not fetch tweet. Make sure it exists and is public.", err)
	}
	if err := check.Verify(tweet, wallet); err != nil {
		return nil, err
	}
	return tweet, nil
}
