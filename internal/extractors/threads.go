package extractors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/spacesedan/mindtrack/internal/models"
)

const ThreadsGraphURL = "https://graph.threads.net/v1.0"

type ThreadsOptions struct {
	AccessToken string
	GraphURL    string
}

// ThreadsExtractor reads posts through the Threads oEmbed endpoint and
// the Graph API when an access token is configured.
type ThreadsExtractor struct {
	http *http.Client
	opts ThreadsOptions
}

func NewThreadsExtractor(client *http.Client, opts ThreadsOptions) *ThreadsExtractor {
	if opts.GraphURL == "" {
		opts.GraphURL = ThreadsGraphURL
	}
	return &ThreadsExtractor{http: client, opts: opts}
}

func (t *ThreadsExtractor) Extract(ctx context.Context, rawURL string) (*models.ExtractionResult, error) {
	groups := matchGroups(Threads, rawURL)
	if groups == nil {
		return nil, &ExtractionError{Platform: Threads.DisplayName(), Message: "Invalid Threads URL format"}
	}
	threadID := groups[1]

	result, err := t.extractWithOEmbed(ctx, rawURL)
	if err == nil {
		return result, nil
	}
	if t.opts.AccessToken == "" {
		return nil, &ExtractionError{
			Platform:   Threads.DisplayName(),
			Message:    "Threads API requires authentication. Please set THREADS_ACCESS_TOKEN.",
			Suggestion: "Get access token from Meta Developer Portal → Threads API",
			Err:        err,
		}
	}

	slog.Warn("[ThreadsExtractor] oEmbed failed, falling back to Graph API",
		slog.String("thread_id", threadID),
		slog.String("error", err.Error()))
	return t.extractWithGraph(ctx, threadID, rawURL)
}

func (t *ThreadsExtractor) extractWithOEmbed(ctx context.Context, rawURL string) (*models.ExtractionResult, error) {
	query := url.Values{"url": {rawURL}}
	if t.opts.AccessToken != "" {
		query.Set("access_token", t.opts.AccessToken)
	}

	var resp oembedResponse
	if err := getJSON(ctx, t.http, t.opts.GraphURL+"/oembed", query, &resp); err != nil {
		return nil, fmt.Errorf("threads oembed: %w", err)
	}

	content := captionText(resp.HTML)
	if content == "" {
		return nil, errors.New("threads oembed has no text")
	}
	author := resp.AuthorName
	if author == "" {
		author = "Unknown"
	}

	return &models.ExtractionResult{
		Platform: Threads.DisplayName(),
		Author:   author,
		Content:  content,
		URL:      rawURL,
		Method:   "oembed",
	}, nil
}

type threadsPost struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
	Permalink string `json:"permalink"`
}

func (t *ThreadsExtractor) extractWithGraph(ctx context.Context, threadID, rawURL string) (*models.ExtractionResult, error) {
	query := url.Values{
		"fields":       {"id,text,username,timestamp,media_type,media_url,permalink"},
		"access_token": {t.opts.AccessToken},
	}

	var post threadsPost
	if err := getJSON(ctx, t.http, fmt.Sprintf("%s/%s", t.opts.GraphURL, threadID), query, &post); err != nil {
		return nil, fmt.Errorf("threads graph api: %w", err)
	}

	author := post.Username
	if author == "" {
		author = "Unknown"
	}
	content := post.Text
	if content == "" {
		content = "No text content"
	}
	link := post.Permalink
	if link == "" {
		link = rawURL
	}

	return &models.ExtractionResult{
		Platform: Threads.DisplayName(),
		Author:   author,
		Content:  content,
		Date:     formatISODate(post.Timestamp),
		URL:      link,
		Method:   "graph_api",
	}, nil
}

func (t *ThreadsExtractor) Status() models.PlatformStatus {
	if t.opts.AccessToken == "" {
		return models.PlatformStatus{
			Name:    Threads.DisplayName(),
			Status:  StatusPendingConfiguration,
			Methods: []string{"oEmbed", "Graph API"},
		}
	}
	return models.PlatformStatus{
		Name:       Threads.DisplayName(),
		Status:     StatusActive,
		Methods:    []string{"oEmbed", "Graph API"},
		Configured: true,
	}
}
