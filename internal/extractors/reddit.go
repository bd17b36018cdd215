package extractors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spacesedan/mindtrack/internal/clients"
	"github.com/spacesedan/mindtrack/internal/models"
	"github.com/spacesedan/mindtrack/internal/sentiment"
)

const (
	RedditOAuthURL         = "https://oauth.reddit.com"
	DefaultRedditUserAgent = "MindTrack-AI/1.0 (Mental health analyzer; Academic research)"
)

type RedditOptions struct {
	UserAgent    string
	ClientID     string
	ClientSecret string
	OAuthURL     string
	TokenURL     string
	// JSONURL replaces scheme and host of the post URL for the public
	// listing. Empty keeps the post URL as is.
	JSONURL string
}

// RedditExtractor reads the public JSON listing of a post and falls back
// to the app-only OAuth API when client credentials are configured.
type RedditExtractor struct {
	http  *http.Client
	oauth *clients.RedditClient
	opts  RedditOptions
}

func NewRedditExtractor(client *http.Client, opts RedditOptions) *RedditExtractor {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultRedditUserAgent
	}
	if opts.OAuthURL == "" {
		opts.OAuthURL = RedditOAuthURL
	}

	r := &RedditExtractor{http: client, opts: opts}
	if opts.ClientID != "" && opts.ClientSecret != "" {
		r.oauth = clients.NewRedditClient(client, opts.ClientID, opts.ClientSecret, opts.TokenURL)
	}
	return r
}

func (r *RedditExtractor) Extract(ctx context.Context, rawURL string) (*models.ExtractionResult, error) {
	groups := matchGroups(Reddit, rawURL)
	if groups == nil {
		return nil, &ExtractionError{
			Platform: Reddit.DisplayName(),
			Message:  "Invalid Reddit URL format. Use: https://www.reddit.com/r/subreddit/comments/post_id/title/",
		}
	}
	postID := groups[2]

	result, err := r.extractWithJSON(ctx, rawURL)
	if err == nil || r.oauth == nil {
		return result, err
	}

	slog.Warn("[RedditExtractor] JSON API failed, falling back to OAuth API",
		slog.String("post_id", postID),
		slog.String("error", err.Error()))
	return r.extractWithOAuth(ctx, postID, rawURL)
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Author     string  `json:"author"`
	Subreddit  string  `json:"subreddit"`
	CreatedUTC float64 `json:"created_utc"`
}

func (r *RedditExtractor) jsonURL(rawURL string) (string, error) {
	clean, _, _ := strings.Cut(strings.TrimSpace(rawURL), "?")
	clean = strings.TrimRight(clean, "/") + ".json"
	if r.opts.JSONURL == "" {
		return clean, nil
	}

	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(r.opts.JSONURL, "/") + u.Path, nil
}

func (r *RedditExtractor) extractWithJSON(ctx context.Context, rawURL string) (*models.ExtractionResult, error) {
	endpoint, err := r.jsonURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("reddit json url: %w", err)
	}

	req, err := newRequest(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.opts.UserAgent)

	var listings []redditListing
	if err := doJSON(r.http, req, &listings); err != nil {
		return nil, fmt.Errorf("reddit json api: %w", err)
	}
	return r.toResult(listings, rawURL, "json_api")
}

func (r *RedditExtractor) extractWithOAuth(ctx context.Context, postID, rawURL string) (*models.ExtractionResult, error) {
	endpoint := fmt.Sprintf("%s/comments/%s", strings.TrimRight(r.opts.OAuthURL, "/"), postID)
	req, err := newRequest(ctx, http.MethodGet, endpoint, url.Values{"raw_json": {"1"}}, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.opts.UserAgent)

	var listings []redditListing
	if err := doJSON(r.oauth, req, &listings); err != nil {
		return nil, fmt.Errorf("reddit oauth api: %w", err)
	}
	return r.toResult(listings, rawURL, "oauth_api")
}

func (r *RedditExtractor) toResult(listings []redditListing, rawURL, method string) (*models.ExtractionResult, error) {
	if len(listings) == 0 || len(listings[0].Data.Children) == 0 {
		return nil, errors.New("reddit listing has no post")
	}
	post := listings[0].Data.Children[0].Data

	content := post.Title
	if post.Selftext != "" {
		content += "\n\n" + post.Selftext
	}

	var date string
	if post.CreatedUTC > 0 {
		date = time.Unix(int64(post.CreatedUTC), 0).UTC().Format(dateLayout)
	}

	return &models.ExtractionResult{
		Platform: Reddit.DisplayName(),
		Author:   post.Author,
		Content:  sentiment.ConvertMarkdownToText(content),
		Date:     date,
		URL:      rawURL,
		Method:   method,
	}, nil
}

func (r *RedditExtractor) Status() models.PlatformStatus {
	methods := []string{"JSON API"}
	if r.oauth != nil {
		methods = append(methods, "OAuth fallback")
	}
	return models.PlatformStatus{
		Name:       Reddit.DisplayName(),
		Status:     StatusActive,
		Methods:    methods,
		Configured: r.oauth != nil,
	}
}
