package extractors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/spacesedan/mindtrack/internal/models"
	"golang.org/x/oauth2"
)

const (
	TwitterAPIURL    = "https://api.twitter.com"
	TwitterOEmbedURL = "https://publish.twitter.com/oembed"
)

type TwitterOptions struct {
	BearerToken string
	APIURL      string
	OEmbedURL   string
}

// TwitterExtractor reads tweets through API v2 when a bearer token is
// configured and through the public oEmbed endpoint otherwise.
type TwitterExtractor struct {
	http *http.Client
	api  *http.Client
	opts TwitterOptions
}

func NewTwitterExtractor(client *http.Client, opts TwitterOptions) *TwitterExtractor {
	if opts.APIURL == "" {
		opts.APIURL = TwitterAPIURL
	}
	if opts.OEmbedURL == "" {
		opts.OEmbedURL = TwitterOEmbedURL
	}

	t := &TwitterExtractor{http: client, opts: opts}
	if opts.BearerToken != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		t.api = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.BearerToken,
			TokenType:   "Bearer",
		}))
		t.api.Timeout = client.Timeout
	}
	return t
}

func (t *TwitterExtractor) Extract(ctx context.Context, rawURL string) (*models.ExtractionResult, error) {
	groups := matchGroups(Twitter, rawURL)
	if groups == nil {
		return nil, errors.New("invalid twitter url")
	}
	tweetID := groups[1]

	if t.api != nil {
		result, err := t.extractWithAPI(ctx, tweetID, rawURL)
		if err == nil {
			return result, nil
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
			slog.Warn("[TwitterExtractor] Rate limit hit, falling back to oEmbed",
				slog.String("tweet_id", tweetID))
		} else {
			slog.Warn("[TwitterExtractor] API v2 failed, falling back to oEmbed",
				slog.String("tweet_id", tweetID),
				slog.String("error", err.Error()))
		}
	}

	return t.extractWithOEmbed(ctx, rawURL)
}

type tweetResponse struct {
	Data struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		AuthorID  string `json:"author_id"`
		CreatedAt string `json:"created_at"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			Username string `json:"username"`
			Name     string `json:"name"`
		} `json:"users"`
	} `json:"includes"`
}

func (t *TwitterExtractor) extractWithAPI(ctx context.Context, tweetID, rawURL string) (*models.ExtractionResult, error) {
	query := url.Values{
		"tweet.fields": {"created_at,author_id,text,public_metrics"},
		"expansions":   {"author_id"},
		"user.fields":  {"username,name"},
	}

	var resp tweetResponse
	if err := getJSON(ctx, t.api, fmt.Sprintf("%s/2/tweets/%s", t.opts.APIURL, tweetID), query, &resp); err != nil {
		return nil, err
	}
	if resp.Data.Text == "" {
		return nil, errors.New("tweet payload has no text")
	}

	author := ""
	if len(resp.Includes.Users) > 0 {
		author = resp.Includes.Users[0].Username
	}

	return &models.ExtractionResult{
		Platform: Twitter.DisplayName(),
		Author:   author,
		Content:  resp.Data.Text,
		Date:     formatISODate(resp.Data.CreatedAt),
		URL:      rawURL,
		Method:   "api_v2",
	}, nil
}

func (t *TwitterExtractor) extractWithOEmbed(ctx context.Context, rawURL string) (*models.ExtractionResult, error) {
	var resp oembedResponse
	if err := getJSON(ctx, t.http, t.opts.OEmbedURL, url.Values{"url": {rawURL}}, &resp); err != nil {
		return nil, fmt.Errorf("twitter oembed: %w", err)
	}

	return &models.ExtractionResult{
		Platform: Twitter.DisplayName(),
		Author:   strings.TrimLeft(resp.AuthorName, "@"),
		Content:  embedText(resp.HTML),
		URL:      rawURL,
		Method:   "oembed",
	}, nil
}

func (t *TwitterExtractor) Status() models.PlatformStatus {
	if t.api != nil {
		return models.PlatformStatus{
			Name:       Twitter.DisplayName(),
			Status:     StatusActive,
			Methods:    []string{"API v2", "oEmbed fallback"},
			Configured: true,
		}
	}
	return models.PlatformStatus{
		Name:    Twitter.DisplayName(),
		Status:  StatusActive,
		Methods: []string{"oEmbed"},
	}
}
