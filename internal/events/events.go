// Package events publishes persisted analyses to a message broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spacesedan/mindtrack/internal/metrics"
	"github.com/spacesedan/mindtrack/internal/models"
)

const (
	EVENT_SOURCE  = "mindtrack-api"
	EVENT_VERSION = "1.0"
)

type Publisher interface {
	Driver() string
	Publish(ctx context.Context, event models.AnalysisEvent) error
	Close()
}

func NewEvent(entry models.TimelineEntry) models.AnalysisEvent {
	return models.AnalysisEvent{
		Entry:     entry,
		Source:    EVENT_SOURCE,
		Version:   EVENT_VERSION,
		Timestamp: time.Now().UTC(),
	}
}

// Decode parses a message body written by a Publisher.
func Decode(data []byte) (models.AnalysisEvent, error) {
	var event models.AnalysisEvent
	err := json.Unmarshal(data, &event)
	return event, err
}

type noop struct{}

// Noop discards every event.
func Noop() Publisher { return noop{} }

func (noop) Driver() string                                      { return "none" }
func (noop) Publish(context.Context, models.AnalysisEvent) error { return nil }
func (noop) Close()                                              {}

type instrumented struct {
	Publisher
}

// Instrument counts published events by driver and outcome.
func Instrument(p Publisher) Publisher {
	return instrumented{Publisher: p}
}

func (p instrumented) Publish(ctx context.Context, event models.AnalysisEvent) error {
	err := p.Publisher.Publish(ctx, event)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.EventsPublished.WithLabelValues(p.Driver(), status).Inc()
	return err
}
