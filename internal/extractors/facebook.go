package extractors

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/spacesedan/mindtrack/internal/models"
)

const FacebookGraphURL = "https://graph.facebook.com/v18.0"

type FacebookOptions struct {
	AppID       string
	AppSecret   string
	AccessToken string
	GraphURL    string
}

// FacebookExtractor reads posts through oEmbed and falls back to the Graph
// API when an access token is configured.
type FacebookExtractor struct {
	http *http.Client
	opts FacebookOptions
}

func NewFacebookExtractor(client *http.Client, opts FacebookOptions) *FacebookExtractor {
	if opts.GraphURL == "" {
		opts.GraphURL = FacebookGraphURL
	}
	return &FacebookExtractor{http: client, opts: opts}
}

func (f *FacebookExtractor) Extract(ctx context.Context, rawURL string) (*models.ExtractionResult, error) {
	result, err := f.extractWithOEmbed(ctx, rawURL)
	if err == nil {
		return result, nil
	}

	if f.opts.AccessToken == "" {
		return nil, &ExtractionError{
			Platform:   Facebook.DisplayName(),
			Message:    "Could not extract Facebook post. Authentication required for most posts.",
			Suggestion: "Set FACEBOOK_ACCESS_TOKEN to access posts.",
			Err:        err,
		}
	}

	slog.Warn("[FacebookExtractor] oEmbed failed, falling back to Graph API",
		slog.String("error", err.Error()))
	return f.extractWithGraph(ctx, rawURL)
}

func (f *FacebookExtractor) extractWithOEmbed(ctx context.Context, rawURL string) (*models.ExtractionResult, error) {
	query := url.Values{"url": {rawURL}}
	if f.opts.AppID != "" && f.opts.AppSecret != "" {
		query.Set("access_token", f.opts.AppID+"|"+f.opts.AppSecret)
	}

	var resp oembedResponse
	if err := getJSON(ctx, f.http, f.opts.GraphURL+"/oembed_post", query, &resp); err != nil {
		return nil, fmt.Errorf("facebook oembed: %w", err)
	}

	content := captionText(resp.HTML)
	if content == "" {
		content = "No content available"
	}
	author := resp.AuthorName
	if author == "" {
		author = "Unknown"
	}

	return &models.ExtractionResult{
		Platform: Facebook.DisplayName(),
		Author:   author,
		Content:  content,
		URL:      rawURL,
		Method:   "oembed",
	}, nil
}

type facebookPost struct {
	Message      string `json:"message"`
	Story        string `json:"story"`
	CreatedTime  string `json:"created_time"`
	PermalinkURL string `json:"permalink_url"`
	From         struct {
		Name string `json:"name"`
	} `json:"from"`
}

func (f *FacebookExtractor) extractWithGraph(ctx context.Context, rawURL string) (*models.ExtractionResult, error) {
	postID, ok := FacebookPostID(rawURL)
	if !ok {
		return nil, &ExtractionError{Platform: Facebook.DisplayName(), Message: "Invalid Facebook URL format"}
	}

	query := url.Values{
		"fields":       {"message,created_time,from,permalink_url,story,type"},
		"access_token": {f.opts.AccessToken},
	}

	var post facebookPost
	if err := getJSON(ctx, f.http, fmt.Sprintf("%s/%s", f.opts.GraphURL, postID), query, &post); err != nil {
		return nil, &ExtractionError{
			Platform:   Facebook.DisplayName(),
			Message:    fmt.Sprintf("Graph API request failed: %v", err),
			Suggestion: "You may need Page Public Content Access permission from Meta.",
			Err:        err,
		}
	}

	content := post.Message
	if content == "" {
		content = post.Story
	}
	if content == "" {
		content = "No content available"
	}
	author := post.From.Name
	if author == "" {
		author = "Unknown"
	}
	link := post.PermalinkURL
	if link == "" {
		link = rawURL
	}

	return &models.ExtractionResult{
		Platform: Facebook.DisplayName(),
		Author:   author,
		Content:  content,
		Date:     formatISODate(post.CreatedTime),
		URL:      link,
		Method:   "graph_api",
	}, nil
}

// FacebookPostID returns the Graph API id of a post URL: the segment after
// /posts/, or <page>_<story> for permalink.php links.
func FacebookPostID(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if _, after, ok := strings.Cut(strings.TrimRight(rawURL, "/"), "/posts/"); ok {
		id, _, _ := strings.Cut(after, "/")
		id, _, _ = strings.Cut(id, "?")
		return id, id != ""
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	story, page := u.Query().Get("story_fbid"), u.Query().Get("id")
	if story == "" || page == "" {
		return "", false
	}
	return page + "_" + story, true
}

func (f *FacebookExtractor) Status() models.PlatformStatus {
	configured := f.opts.AccessToken != "" || (f.opts.AppID != "" && f.opts.AppSecret != "")
	status := StatusPendingConfiguration
	if configured {
		status = StatusActive
	}
	return models.PlatformStatus{
		Name:       Facebook.DisplayName(),
		Status:     status,
		Methods:    []string{"oEmbed", "Graph API"},
		Configured: configured,
	}
}
