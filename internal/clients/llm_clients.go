package clients

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
)

// NewOpenAIClient builds an OpenAI client with its own HTTP timeout. A
// non-empty baseURL targets an OpenAI-compatible gateway.
func NewOpenAIClient(apiKey, baseURL string, timeout time.Duration) *openai.Client {
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(apiKey),
		openaioption.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if baseURL != "" {
		opts = append(opts, openaioption.WithBaseURL(baseURL))
	}

	slog.Info("[OpenAIClient] OpenAI client initialized with custom HTTP timeout",
		slog.Duration("timeout", timeout))
	return openai.NewClient(opts...)
}

func NewAnthropicClient(apiKey string, timeout time.Duration) anthropic.Client {
	slog.Info("[AnthropicClient] Anthropic client initialized with custom HTTP timeout",
		slog.Duration("timeout", timeout))
	return anthropic.NewClient(
		anthropicoption.WithAPIKey(apiKey),
		anthropicoption.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
}
