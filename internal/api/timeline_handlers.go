package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spacesedan/mindtrack/internal/db"
	"github.com/spacesedan/mindtrack/internal/events"
	"github.com/spacesedan/mindtrack/internal/models"
)

type predictionBody struct {
	EmotionClass       string             `json:"emotion_class"`
	Label              int                `json:"label"`
	Confidence         float64            `json:"confidence"`
	ClassProbabilities map[string]float64 `json:"class_probabilities"`
}

type classificationResponse struct {
	AnalysisID       string         `json:"analysis_id"`
	Timestamp        string         `json:"timestamp"`
	InputText        string         `json:"input_text"`
	Prediction       predictionBody `json:"prediction"`
	ProcessingTimeMS int64          `json:"processing_time_ms"`
	PredictionSource string         `json:"prediction_source"`
}

type dateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type timelineResponse struct {
	Count     int                    `json:"count"`
	DateRange dateRange              `json:"date_range"`
	Analyses  []models.TimelineEntry `json:"analyses"`
}

func labelIndex(label string) int {
	if label == models.LabelStressed {
		return 1
	}
	return 0
}

// ClassifyText classifies text, stores it on the timeline and publishes
// an analysis event.
func (h *Handler) ClassifyText(c *gin.Context) {
	var body struct {
		Text string `json:"text"`
	}
	// A missing or malformed body reads as an empty text.
	_ = c.ShouldBindJSON(&body)

	text, required, problem := h.bounds.check(body.Text)
	switch {
	case required:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text input is required"})
		return
	case problem != "":
		c.JSON(http.StatusBadRequest, gin.H{"error": problem})
		return
	}

	ctx := c.Request.Context()
	result := h.analyzer.Evaluate(ctx, text)

	entry := models.NewTimelineEntry(result, h.modelVersion)
	if err := h.repo.Save(ctx, entry); err != nil {
		slog.Error("[API] Failed to save analysis",
			slog.String("analysis_id", entry.ID),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, errorEnvelope("Internal server error"))
		return
	}
	h.publish(ctx, entry)

	c.JSON(http.StatusOK, classificationResponse{
		AnalysisID: result.ID,
		Timestamp:  result.CreatedAt.Format(time.RFC3339Nano),
		InputText:  result.Text,
		Prediction: predictionBody{
			EmotionClass:       result.Sentiment,
			Label:              labelIndex(result.Sentiment),
			Confidence:         result.Confidence,
			ClassProbabilities: result.Probabilities,
		},
		ProcessingTimeMS: result.ProcessingTime.Milliseconds(),
		PredictionSource: result.PredictionSource,
	})
}

// publish is best effort; the entry is already stored.
func (h *Handler) publish(ctx context.Context, entry models.TimelineEntry) {
	if err := h.publisher.Publish(context.WithoutCancel(ctx), events.NewEvent(entry)); err != nil {
		slog.Warn("[API] Failed to publish analysis event",
			slog.String("analysis_id", entry.ID),
			slog.String("driver", h.publisher.Driver()),
			slog.String("error", err.Error()))
	}
}

// Timeline lists the analyses of the last ?days=N days, oldest first.
// A missing or non-positive value means DEFAULT_TIMELINE_DAYS.
func (h *Handler) Timeline(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(DEFAULT_TIMELINE_DAYS)))
	if err != nil || days <= 0 {
		days = DEFAULT_TIMELINE_DAYS
	}

	end := h.now().UTC()
	start := end.AddDate(0, 0, -days)

	entries, err := h.repo.List(c.Request.Context(), start)
	if err != nil {
		h.storageFailed(c, "timeline", err)
		return
	}

	analyses := make([]models.TimelineEntry, 0, len(entries))
	for _, e := range entries {
		if !e.CreatedAt.After(end) {
			analyses = append(analyses, e)
		}
	}

	c.JSON(http.StatusOK, timelineResponse{
		Count:     len(analyses),
		DateRange: dateRange{Start: start.Format(time.RFC3339), End: end.Format(time.RFC3339)},
		Analyses:  analyses,
	})
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := db.Stats(c.Request.Context(), h.repo)
	if err != nil {
		h.storageFailed(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) Clear(c *gin.Context) {
	deleted, err := h.repo.Clear(c.Request.Context())
	if err != nil {
		h.storageFailed(c, "clear", err)
		return
	}

	slog.Info("[API] Cleared timeline",
		slog.Int("deleted", deleted))
	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("Deleted %d entries", deleted),
		"deleted_count": deleted,
	})
}

func (h *Handler) storageFailed(c *gin.Context, operation string, err error) {
	slog.Error("[API] Timeline repository failed",
		slog.String("operation", operation),
		slog.String("driver", h.repo.Driver()),
		slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, errorEnvelope("Internal server error"))
}
