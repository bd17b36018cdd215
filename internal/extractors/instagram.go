package extractors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/spacesedan/mindtrack/internal/models"
)

const (
	InstagramOEmbedURL  = "https://graph.facebook.com/v18.0/instagram_oembed"
	ApifyURL            = "https://api.apify.com"
	apifyInstagramActor = "apify~instagram-scraper"
)

type InstagramOptions struct {
	AppID      string
	AppSecret  string
	ApifyToken string
	OEmbedURL  string
	ApifyURL   string
}

// InstagramExtractor tries the Meta oEmbed endpoint and then the Apify
// scraper, using whichever of the two is configured.
type InstagramExtractor struct {
	http *http.Client
	opts InstagramOptions
}

func NewInstagramExtractor(client *http.Client, opts InstagramOptions) *InstagramExtractor {
	if opts.OEmbedURL == "" {
		opts.OEmbedURL = InstagramOEmbedURL
	}
	if opts.ApifyURL == "" {
		opts.ApifyURL = ApifyURL
	}
	return &InstagramExtractor{http: client, opts: opts}
}

func (i *InstagramExtractor) oembedConfigured() bool {
	return i.opts.AppID != "" && i.opts.AppSecret != ""
}

func (i *InstagramExtractor) Extract(ctx context.Context, rawURL string) (*models.ExtractionResult, error) {
	var errs []error

	if i.oembedConfigured() {
		result, err := i.extractWithOEmbed(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		slog.Warn("[InstagramExtractor] Meta oEmbed blocked",
			slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if i.opts.ApifyToken != "" {
		slog.Info("[InstagramExtractor] Falling back to Apify scraper")
		result, err := i.extractWithApify(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		errs = append(errs, err)
	}

	return nil, &ExtractionError{
		Platform:   Instagram.DisplayName(),
		Message:    "Instagram extraction requires Meta app review or Apify API token. Try Twitter/Reddit!",
		Suggestion: "Instagram support coming soon after Meta approval",
		Err:        errors.Join(errs...),
	}
}

func (i *InstagramExtractor) extractWithOEmbed(ctx context.Context, rawURL string) (*models.ExtractionResult, error) {
	var resp oembedResponse
	err := getJSON(ctx, i.http, i.opts.OEmbedURL, url.Values{"url": {rawURL}}, &resp)
	if err != nil {
		// Public posts sometimes answer without a token.
		query := url.Values{"url": {rawURL}, "access_token": {i.opts.AppID + "|" + i.opts.AppSecret}}
		if err = getJSON(ctx, i.http, i.opts.OEmbedURL, query, &resp); err != nil {
			return nil, fmt.Errorf("instagram oembed: %w", err)
		}
	}

	caption := captionText(resp.HTML)
	if caption == "" {
		caption = "No caption available"
	}
	author := resp.AuthorName
	if author == "" {
		author = "Unknown"
	}

	return &models.ExtractionResult{
		Platform: Instagram.DisplayName(),
		Author:   author,
		Content:  caption,
		URL:      rawURL,
		Method:   "oembed",
	}, nil
}

type apifyPost struct {
	OwnerUsername string `json:"ownerUsername"`
	OwnerFullName string `json:"ownerFullName"`
	Caption       string `json:"caption"`
	Timestamp     string `json:"timestamp"`
}

func (i *InstagramExtractor) extractWithApify(ctx context.Context, rawURL string) (*models.ExtractionResult, error) {
	body, err := json.Marshal(map[string]any{
		"directUrls":   []string{rawURL},
		"resultsType":  "posts",
		"resultsLimit": 1,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items", i.opts.ApifyURL, apifyInstagramActor)
	req, err := newRequest(ctx, http.MethodPost, endpoint, url.Values{"token": {i.opts.ApifyToken}}, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var posts []apifyPost
	if err := doJSON(i.http, req, &posts); err != nil {
		return nil, fmt.Errorf("apify scraper: %w", err)
	}
	if len(posts) == 0 {
		return nil, errors.New("no data found for this Instagram post")
	}

	post := posts[0]
	author := post.OwnerUsername
	if author == "" {
		author = "Unknown"
	}
	return &models.ExtractionResult{
		Platform: Instagram.DisplayName(),
		Author:   author,
		Content:  post.Caption,
		Date:     formatISODate(post.Timestamp),
		URL:      rawURL,
		Method:   "apify_scraper",
	}, nil
}

func (i *InstagramExtractor) Status() models.PlatformStatus {
	var methods []string
	if i.oembedConfigured() {
		methods = append(methods, "Meta oEmbed")
	}
	if i.opts.ApifyToken != "" {
		methods = append(methods, "Apify scraper")
	}
	if len(methods) == 0 {
		return models.PlatformStatus{
			Name:    Instagram.DisplayName(),
			Status:  StatusPendingConfiguration,
			Methods: []string{"Meta oEmbed", "Apify scraper"},
		}
	}
	return models.PlatformStatus{
		Name:       Instagram.DisplayName(),
		Status:     StatusActive,
		Methods:    methods,
		Configured: true,
	}
}
