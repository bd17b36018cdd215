package clients

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const REDDIT_AUTH_URL = "https://www.reddit.com/api/v1/access_token"

// RedditClient is an app-only OAuth client for oauth.reddit.com.
type RedditClient struct {
	Config *clientcredentials.Config
	base   *http.Client
	client *http.Client
	mu     sync.Mutex
}

// NewRedditClient builds the client. base supplies the timeout and transport
// for both the token exchange and API calls. An empty tokenURL selects the
// public Reddit token endpoint.
func NewRedditClient(base *http.Client, clientID, clientSecret, tokenURL string) *RedditClient {
	if tokenURL == "" {
		tokenURL = REDDIT_AUTH_URL
	}
	if base == nil {
		base = http.DefaultClient
	}
	rc := &RedditClient{
		Config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		base: base,
	}
	rc.RefreshClient()
	return rc
}

// RefreshClient drops the cached token.
func (rc *RedditClient) RefreshClient() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, rc.base)
	client := rc.Config.Client(ctx)
	client.Timeout = rc.base.Timeout
	rc.client = client
}

// Do sends req with a bearer token, refreshing the token once when Reddit
// answers 401. req must be replayable.
func (rc *RedditClient) Do(req *http.Request) (*http.Response, error) {
	rc.mu.Lock()
	client := rc.client
	rc.mu.Unlock()

	resp, err := client.Do(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	resp.Body.Close()

	slog.Warn("[RedditClient] Token expired - Refreshing and Retrying...")
	rc.RefreshClient()

	rc.mu.Lock()
	client = rc.client
	rc.mu.Unlock()
	return client.Do(req.Clone(req.Context()))
}
