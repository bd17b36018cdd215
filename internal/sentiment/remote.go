package sentiment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/spacesedan/mindtrack/internal/models"
)

type Inferencer interface {
	Classify(ctx context.Context, text string) (models.InferenceResponse, error)
}

var ErrClassifierUnhealthy = errors.New("remote classifier failed its last health check")

// RemoteClassifier delegates to a hosted copy of the DistilBERT model.
type RemoteClassifier struct {
	client  Inferencer
	healthy *atomic.Bool
}

func NewRemoteClassifier(client Inferencer) *RemoteClassifier {
	return &RemoteClassifier{client: client}
}

// WithHealth skips the remote call while healthy is false. The flag is
// kept current by monitoring.MonitorClassifierHealth.
func (r *RemoteClassifier) WithHealth(healthy *atomic.Bool) *RemoteClassifier {
	r.healthy = healthy
	return r
}

func (r *RemoteClassifier) Name() string { return "remote" }

func (r *RemoteClassifier) Classify(ctx context.Context, text string) (models.Prediction, error) {
	if r.healthy != nil && !r.healthy.Load() {
		return models.Prediction{}, ErrClassifierUnhealthy
	}
	resp, err := r.client.Classify(ctx, text)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("remote classify: %w", err)
	}

	var scores []LabelScore
	if len(resp.Probabilities) > 0 {
		labels := make([]string, 0, len(resp.Probabilities))
		for label := range resp.Probabilities {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			scores = append(scores, LabelScore{Label: label, Score: resp.Probabilities[label]})
		}
	} else {
		scores = []LabelScore{{Label: resp.Label, Score: resp.Confidence}}
	}

	return PredictionFromScores(scores, models.SourceRemoteModel)
}
