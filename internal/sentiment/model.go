package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/spacesedan/mindtrack/internal/models"
)

const modelPipelineName = "mindtrackEmotionPipeline"

// ModelClassifier runs the fine-tuned DistilBERT export through a hugot
// text classification pipeline. The session is created on first use and
// inference is serialised.
type ModelClassifier struct {
	modelPath string
	source    string

	once     sync.Once
	loadErr  error
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	mu       sync.Mutex
}

func NewModelClassifier(modelPath string) *ModelClassifier {
	return &ModelClassifier{modelPath: modelPath, source: models.SourceModel}
}

func (m *ModelClassifier) Name() string { return "model" }

// Load initialises the session and pipeline once. Later calls return the
// first result.
func (m *ModelClassifier) Load() error {
	m.once.Do(func() {
		m.loadErr = m.load()
	})
	return m.loadErr
}

func (m *ModelClassifier) load() error {
	if _, err := os.Stat(m.modelPath); err != nil {
		slog.Warn("[ModelClassifier] Model not found, keyword analysis will be used",
			slog.String("path", m.modelPath))
		return fmt.Errorf("%w: %s", ErrModelNotLoaded, m.modelPath)
	}

	start := time.Now()
	session, err := hugot.NewORTSession()
	if err != nil {
		return fmt.Errorf("create hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: m.modelPath,
		Name:      modelPipelineName,
		Options: []hugot.TextClassificationOption{
			pipelines.WithSoftmax(),
		},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		session.Destroy()
		return fmt.Errorf("create classification pipeline: %w", err)
	}

	m.session = session
	m.pipeline = pipeline
	slog.Info("[ModelClassifier] Model loaded",
		slog.String("path", m.modelPath),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (m *ModelClassifier) Loaded() bool {
	return m.Load() == nil
}

func (m *ModelClassifier) Classify(ctx context.Context, text string) (models.Prediction, error) {
	if err := m.Load(); err != nil {
		return models.Prediction{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Prediction{}, err
	}

	m.mu.Lock()
	output, err := m.pipeline.RunPipeline([]string{text})
	m.mu.Unlock()
	if err != nil {
		return models.Prediction{}, fmt.Errorf("run classification pipeline: %w", err)
	}
	if len(output.ClassificationOutputs) == 0 {
		return models.Prediction{}, fmt.Errorf("classification pipeline returned no output")
	}

	scores := make([]LabelScore, 0, len(output.ClassificationOutputs[0]))
	for _, o := range output.ClassificationOutputs[0] {
		scores = append(scores, LabelScore{Label: o.Label, Score: float64(o.Score)})
	}
	return PredictionFromScores(scores, m.source)
}

func (m *ModelClassifier) Close() {
	if m.session != nil {
		m.session.Destroy()
	}
}

type LabelScore struct {
	Label string
	Score float64
}

// PredictionFromScores turns raw label scores into a prediction. When only
// the top label is reported the other class gets the complement.
func PredictionFromScores(scores []LabelScore, source string) (models.Prediction, error) {
	if len(scores) == 0 {
		return models.Prediction{}, fmt.Errorf("no label scores")
	}

	var stressed float64
	var seenStressed, seenNormal bool
	best := LabelScore{Score: -1}
	for _, s := range scores {
		label, ok := NormalizeLabel(s.Label)
		if !ok {
			return models.Prediction{}, fmt.Errorf("unknown model label %q", s.Label)
		}
		switch label {
		case models.LabelStressed:
			stressed = s.Score
			seenStressed = true
		case models.LabelNormal:
			if !seenStressed {
				stressed = 1 - s.Score
			}
			seenNormal = true
		}
		if s.Score > best.Score {
			best = LabelScore{Label: label, Score: s.Score}
		}
	}
	if !seenStressed && !seenNormal {
		return models.Prediction{}, fmt.Errorf("no usable label scores")
	}

	stressed = clamp(stressed, 0, 1)
	label := models.LabelNormal
	confidence := 1 - stressed
	if stressed > 0.5 || (stressed == 0.5 && best.Label == models.LabelStressed) {
		label = models.LabelStressed
		confidence = stressed
	}

	return models.Prediction{
		Label:         label,
		Confidence:    round3(confidence),
		Probabilities: binaryProbabilities(stressed),
		Source:        source,
		RawConfidence: confidence,
	}, nil
}
