package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/spacesedan/mindtrack/internal/models"
)

// InferenceClient talks to a hosted copy of the emotion classifier, e.g. a
// Hugging Face Space serving the DistilBERT export.
type InferenceClient struct {
	Client    *http.Client
	endpoint  string
	healthURL string
	retries   int
	backoff   time.Duration
}

func NewInferenceClient(endpoint string, timeout time.Duration) *InferenceClient {
	slog.Info("[InferenceClient] Initializing Client",
		slog.String("endpoint", endpoint),
		slog.Duration("timeout", timeout))

	return &InferenceClient{
		Client:    &http.Client{Timeout: timeout},
		endpoint:  endpoint,
		healthURL: healthURL(endpoint),
		retries:   MAX_RETRIES,
		backoff:   INITIAL_BACKOFF,
	}
}

// WithRetry overrides the retry budget and the first backoff step.
func (c *InferenceClient) WithRetry(retries int, backoff time.Duration) *InferenceClient {
	c.retries = max(retries, 1)
	c.backoff = backoff
	return c
}

// DoWithRetry retries transport errors and 5xx responses with exponential
// backoff. The request body is rewound between attempts.
func (c *InferenceClient) DoWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := c.backoff

	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			if req.Body, err = req.GetBody(); err != nil {
				return nil, fmt.Errorf("rewind request body: %w", err)
			}
		}

		resp, err = c.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		slog.Warn("[InferenceClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		if attempt == c.retries-1 {
			break
		}
		if resp != nil {
			resp.Body.Close()
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, MAX_BACKOFF)
	}

	if err == nil && resp != nil {
		resp.Body.Close()
		err = fmt.Errorf("status code %d", resp.StatusCode)
	}
	return nil, err
}

func (c *InferenceClient) Classify(ctx context.Context, text string) (models.InferenceResponse, error) {
	var result models.InferenceResponse
	start := time.Now()

	if err := c.postJSON(ctx, c.endpoint, models.InferenceRequest{Text: text}, &result); err != nil {
		slog.Error("[InferenceClient] Classification request failed",
			slog.Duration("elapsed", time.Since(start)))
		return result, err
	}

	slog.Debug("[InferenceClient] Classification request successful",
		slog.String("label", result.Label),
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}

// HealthCheck reports whether the service answers its health route with 2xx.
func (c *InferenceClient) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := c.Client.Do(req)
	if err != nil {
		slog.Warn("[InferenceClient] Health check failed",
			slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *InferenceClient) postJSON(ctx context.Context, endpoint string, input any, output any) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		slog.Error("[InferenceClient] Failed to build request",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := c.DoWithRetry(req)
	if err != nil {
		slog.Error("[InferenceClient] Failed request after retries",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[InferenceClient] Failed to unmarshal response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func healthURL(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	u.Path = "/health"
	u.RawQuery = ""
	return u.String()
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
