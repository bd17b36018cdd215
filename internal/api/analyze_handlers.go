package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spacesedan/mindtrack/internal/extractors"
	"github.com/spacesedan/mindtrack/internal/models"
)

type analysisEnvelope struct {
	Sentiment        string                   `json:"sentiment"`
	Confidence       float64                  `json:"confidence"`
	Timestamp        int64                    `json:"timestamp"`
	Categories       []string                 `json:"categories"`
	Emotions         []string                 `json:"detected_emotions"`
	PrimaryEmotion   string                   `json:"primary_emotion"`
	Concerns         []string                 `json:"key_concerns"`
	Tone             []string                 `json:"tone_analysis"`
	Suggestions      []models.Suggestion      `json:"ai_suggestions"`
	ImmediateActions []string                 `json:"immediate_actions"`
	Resources        []models.SupportResource `json:"support_resources"`
	AIGenerated      bool                     `json:"ai_generated"`
	PredictionSource string                   `json:"prediction_source"`
	Probabilities    map[string]float64       `json:"probabilities,omitempty"`
	Polarity         float64                  `json:"polarity"`
	Crisis           bool                     `json:"crisis"`
	Message          string                   `json:"message"`
}

func newAnalysisEnvelope(result models.AnalysisResult) analysisEnvelope {
	concerns := result.Context.Concerns
	if len(concerns) == 0 {
		concerns = []string{"General wellness"}
	}
	tone := result.Context.Tone
	if len(tone) == 0 {
		tone = []string{"calm"}
	}
	return analysisEnvelope{
		Sentiment:        result.Sentiment,
		Confidence:       result.Confidence,
		Timestamp:        result.CreatedAt.UnixMilli(),
		Categories:       result.Context.Emotions,
		Emotions:         result.Context.Emotions,
		PrimaryEmotion:   result.Context.PrimaryEmotion,
		Concerns:         concerns,
		Tone:             tone,
		Suggestions:      result.Suggestions,
		ImmediateActions: result.ImmediateActions,
		Resources:        result.Resources,
		AIGenerated:      result.AIGenerated,
		PredictionSource: result.PredictionSource,
		Probabilities:    result.Probabilities,
		Polarity:         result.Polarity,
		Crisis:           result.Context.Crisis,
		Message:          "AI-powered contextual analysis complete",
	}
}

// bindObject decodes a non-empty JSON object body.
func bindObject(c *gin.Context) (map[string]any, bool) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || len(body) == 0 {
		return nil, false
	}
	return body, true
}

// AnalyzeText runs the full analysis, recommendations included.
func (h *Handler) AnalyzeText(c *gin.Context) {
	body, ok := bindObject(c)
	if !ok {
		c.JSON(http.StatusBadRequest, errorEnvelope("No data provided"))
		return
	}

	raw, _ := body["text"].(string)
	text, required, problem := h.bounds.check(raw)
	switch {
	case required:
		c.JSON(http.StatusBadRequest, errorEnvelope("Text is required"))
		return
	case problem != "":
		c.JSON(http.StatusBadRequest, errorEnvelope(problem))
		return
	}

	result := h.analyzer.Analyze(c.Request.Context(), text)
	c.JSON(http.StatusOK, newAnalysisEnvelope(result))
}

// AnalyzeURL extracts the text of a social media post.
func (h *Handler) AnalyzeURL(c *gin.Context) {
	body, ok := bindObject(c)
	if !ok {
		c.JSON(http.StatusBadRequest, errorEnvelope("No data provided"))
		return
	}

	rawURL, _ := body["url"].(string)
	result, err := h.extractor.Extract(c.Request.Context(), rawURL)
	if err != nil {
		h.extractionFailed(c, err)
		return
	}

	author := result.Author
	if author == "" {
		author = "Unknown"
	}
	method := result.Method
	if method == "" {
		method = "unknown"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"platform": result.Platform,
		"data": gin.H{
			"content":           result.Content,
			"author":            author,
			"date":              result.Date,
			"url":               rawURL,
			"extraction_method": method,
		},
	})
}

func (h *Handler) extractionFailed(c *gin.Context, err error) {
	if errors.Is(err, extractors.ErrInvalidURL) {
		c.JSON(http.StatusBadRequest, errorEnvelope("URL is required"))
		return
	}

	var extractionErr *extractors.ExtractionError
	if !errors.As(err, &extractionErr) {
		slog.Error("[API] Unexpected extraction failure",
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, errorEnvelope("Internal server error occurred while processing URL"))
		return
	}

	if extractionErr.Unsupported {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":             false,
			"error":               extractionErr.Message,
			"supported_platforms": extractionErr.Supported,
		})
		return
	}

	platform := extractionErr.Platform
	if platform == "" {
		platform = "Unknown"
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"success":  false,
		"error":    extractionErr.Message,
		"platform": platform,
		"message":  extractionErr.Suggestion,
	})
}

// Platforms groups the extractors by whether they are ready to use.
func (h *Handler) Platforms(c *gin.Context) {
	available := []models.PlatformStatus{}
	pending := []models.PlatformStatus{}
	for _, status := range h.extractor.Platforms() {
		if status.Status == extractors.StatusActive {
			available = append(available, status)
		} else {
			pending = append(pending, status)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"platforms": gin.H{
			"available": available,
			"pending":   pending,
		},
	})
}
