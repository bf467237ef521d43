package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/rs/zerolog"

	"github.com/valpere/feedmunger/internal/retry"
)

const (
	twitterAPIBase    = "https://api.twitter.com/2"
	twitterTimeout    = 30 * time.Second
	twitterMinResults = 5
	twitterMaxResults = 100
	twitterErrBodyMax = 512
)

// TwitterCredentials are the OAuth 1.0a user-context keys of the app and of
// the account that publishes.
type TwitterCredentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// Twitter talks to the X API v2. It implements Searcher and Poster.
type Twitter struct {
	baseURL string
	client  *http.Client
	policy  retry.Policy
	log     zerolog.Logger

	userIDs map[string]string
}

var (
	_ Searcher = (*Twitter)(nil)
	_ Poster   = (*Twitter)(nil)
)

// NewTwitter returns a client signing every request with creds. An empty
// baseURL selects the public API.
func NewTwitter(creds TwitterCredentials, baseURL string, policy retry.Policy, log zerolog.Logger) *Twitter {
	if baseURL == "" {
		baseURL = twitterAPIBase
	}
	cfg := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	client := cfg.Client(context.Background(), oauth1.NewToken(creds.AccessToken, creds.AccessSecret))
	client.Timeout = twitterTimeout

	return &Twitter{
		baseURL: baseURL,
		client:  client,
		policy:  policy,
		log:     log.With().Str("component", "twitter").Logger(),
		userIDs: make(map[string]string),
	}
}

type twitterTweet struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
}

type twitterProblem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Search returns up to limit posts of account newer than since, newest first,
// following the timeline's pagination as needed.
func (t *Twitter) Search(ctx context.Context, account string, since PostID, limit int) ([]Post, error) {
	if limit <= 0 {
		return nil, nil
	}

	userID, err := t.lookupUser(ctx, account)
	if err != nil {
		return nil, err
	}

	var posts []Post
	pageToken := ""
	for len(posts) < limit {
		q := url.Values{}
		q.Set("max_results", strconv.Itoa(clampResults(limit-len(posts))))
		q.Set("tweet.fields", "referenced_tweets")
		if since != "" {
			q.Set("since_id", string(since))
		}
		if pageToken != "" {
			q.Set("pagination_token", pageToken)
		}

		var page struct {
			Data []twitterTweet `json:"data"`
			Meta struct {
				ResultCount int    `json:"result_count"`
				NextToken   string `json:"next_token"`
			} `json:"meta"`
		}
		if err := t.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/tweets", q, nil, &page); err != nil {
			return nil, fmt.Errorf("timeline of %s: %w", account, err)
		}

		for _, tw := range page.Data {
			posts = append(posts, Post{
				ID:      PostID(tw.ID),
				Text:    tw.Text,
				Account: account,
				Reshare: tw.isRetweet(),
			})
		}

		t.log.Debug().
			Str("account", account).
			Int("page_results", len(page.Data)).
			Bool("more", page.Meta.NextToken != "").
			Msg("Fetched timeline page")

		if page.Meta.NextToken == "" || len(page.Data) == 0 {
			break
		}
		pageToken = page.Meta.NextToken
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// Post publishes text on the authenticated account and returns the new ID.
func (t *Twitter) Post(ctx context.Context, text string) (PostID, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("marshal post: %w", err)
	}

	var resp struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := t.do(ctx, http.MethodPost, "/tweets", nil, body, &resp); err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("create post: response carries no id")
	}
	return PostID(resp.Data.ID), nil
}

func (t *Twitter) lookupUser(ctx context.Context, account string) (string, error) {
	if id, ok := t.userIDs[account]; ok {
		return id, nil
	}

	var resp struct {
		Data struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
		Errors []twitterProblem `json:"errors"`
	}
	if err := t.do(ctx, http.MethodGet, "/users/by/username/"+url.PathEscape(account), nil, nil, &resp); err != nil {
		return "", fmt.Errorf("look up %s: %w", account, err)
	}
	if resp.Data.ID == "" {
		detail := "not found"
		if len(resp.Errors) > 0 {
			detail = resp.Errors[0].Detail
		}
		return "", retry.Permanent(fmt.Errorf("look up %s: %s", account, detail))
	}

	t.userIDs[account] = resp.Data.ID
	return resp.Data.ID, nil
}

func (t *Twitter) do(ctx context.Context, method, path string, query url.Values, body []byte, out interface{}) error {
	endpoint := t.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	return retry.Do(ctx, t.policy, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return retry.Permanent(fmt.Errorf("build request: %w", err))
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := t.client.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, twitterErrBodyMax))
			return retry.HTTPStatus(resp.StatusCode,
				fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg)))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Permanent(fmt.Errorf("%s %s: decode response: %w", method, path, err))
		}
		return nil
	})
}

func (tw twitterTweet) isRetweet() bool {
	for _, ref := range tw.ReferencedTweets {
		if ref.Type == "retweeted" {
			return true
		}
	}
	return false
}

func clampResults(n int) int {
	if n < twitterMinResults {
		return twitterMinResults
	}
	if n > twitterMaxResults {
		return twitterMaxResults
	}
	return n
}
