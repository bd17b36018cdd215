package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spacesedan/mindtrack/internal/metrics"
	"github.com/spacesedan/mindtrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	err    error
	events []models.AnalysisEvent
}

func (p *recordingPublisher) Driver() string { return "recording" }

func (p *recordingPublisher) Publish(_ context.Context, event models.AnalysisEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() {}

func TestNewEventAndDecode(t *testing.T) {
	entry := models.TimelineEntry{ID: "abc", Label: models.LabelNormal, Confidence: 0.8, CreatedAt: time.Now().UTC()}
	event := NewEvent(entry)
	assert.Equal(t, EVENT_SOURCE, event.Source)
	assert.Equal(t, EVENT_VERSION, event.Version)

	data, err := json.Marshal(event)
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "abc", decoded.Entry.ID)

	_, err = Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestInstrumentCountsOutcomes(t *testing.T) {
	ok := metrics.EventsPublished.WithLabelValues("recording", "success")
	failed := metrics.EventsPublished.WithLabelValues("recording", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	inner := &recordingPublisher{}
	p := Instrument(inner)
	require.NoError(t, p.Publish(context.Background(), NewEvent(models.TimelineEntry{ID: "1"})))

	inner.err = errors.New("broker gone")
	assert.Error(t, p.Publish(context.Background(), NewEvent(models.TimelineEntry{ID: "2"})))

	assert.Len(t, inner.events, 2)
	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestNoop(t *testing.T) {
	p := Noop()
	assert.Equal(t, "none", p.Driver())
	assert.NoError(t, p.Publish(context.Background(), models.AnalysisEvent{}))
	p.Close()
}
