package extractors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spacesedan/mindtrack/internal/clients"
)

// Doer is satisfied by *http.Client and clients.RedditClient.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

const dateLayout = "2006-01-02 15:04:05 UTC"

func newRequest(ctx context.Context, method, endpoint string, query url.Values, body io.Reader) (*http.Request, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", endpoint, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", clients.USER_AGENT)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON sends req and decodes a 2xx JSON answer into out.
func doJSON(client Doer, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: req.URL.Host + req.URL.Path, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Host+req.URL.Path, err)
	}
	return nil
}

func getJSON(ctx context.Context, client Doer, endpoint string, query url.Values, out any) error {
	req, err := newRequest(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return err
	}
	return doJSON(client, req, out)
}

// formatISODate renders an RFC 3339 timestamp in the response date layout
// and returns the input unchanged when it does not parse.
func formatISODate(value string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02T15:04:05Z0700"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Format(dateLayout)
		}
	}
	return value
}

// oembedResponse is the shared subset of the oEmbed answers.
type oembedResponse struct {
	AuthorName string `json:"author_name"`
	AuthorURL  string `json:"author_url"`
	HTML       string `json:"html"`
}
