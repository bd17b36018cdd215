package models

import "time"

const (
	LabelNormal   = "Normal"
	LabelStressed = "Stressed/Depressed"
)

const (
	SourceKeyword         = "Keyword Analysis"
	SourceModel           = "AI Model (DistilBERT)"
	SourceModelValidated  = "AI Model (DistilBERT) - Keyword Validated"
	SourceRemoteModel     = "AI Model (Remote DistilBERT)"
	SourceRemoteValidated = "AI Model (Remote DistilBERT) - Keyword Validated"
)

// Prediction is the output of a single classifier run.
type Prediction struct {
	Label         string             `json:"label"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"class_probabilities"`
	Source        string             `json:"prediction_source"`
	Matches       []string           `json:"matched_keywords,omitempty"`

	// RawConfidence is the unrounded model score behind Confidence. Zero
	// when the classifier only reports the rounded value.
	RawConfidence float64 `json:"-"`
}

type Suggestion struct {
	Priority    string `json:"priority" yaml:"priority"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Rationale   string `json:"rationale" yaml:"rationale"`
}

type SupportResource struct {
	Name         string `json:"name" yaml:"name"`
	Type         string `json:"type" yaml:"type"`
	Contact      string `json:"contact" yaml:"contact"`
	Description  string `json:"description" yaml:"description"`
	Availability string `json:"availability" yaml:"availability"`
}

// EmotionContext is what the tagger extracts from a piece of text.
type EmotionContext struct {
	Emotions        []string `json:"detected_emotions"`
	PrimaryEmotion  string   `json:"primary_emotion"`
	Tone            []string `json:"tone_analysis"`
	Concerns        []string `json:"key_concerns"`
	MentalHealthHit bool     `json:"-"`
	Crisis          bool     `json:"crisis"`
}

type AnalysisResult struct {
	ID               string             `json:"analysis_id"`
	Text             string             `json:"input_text"`
	Sentiment        string             `json:"sentiment"`
	Confidence       float64            `json:"confidence"`
	Probabilities    map[string]float64 `json:"probabilities"`
	PredictionSource string             `json:"prediction_source"`
	Polarity         float64            `json:"polarity"`
	Context          EmotionContext     `json:"context"`
	Suggestions      []Suggestion       `json:"ai_suggestions"`
	ImmediateActions []string           `json:"immediate_actions"`
	Resources        []SupportResource  `json:"support_resources"`
	AIGenerated      bool               `json:"ai_generated"`
	ProcessingTime   time.Duration      `json:"-"`
	CreatedAt        time.Time          `json:"created_at"`
}

// InferenceRequest and InferenceResponse are the wire format of the remote
// classification service.
type InferenceRequest struct {
	Text string `json:"text"`
}

type InferenceResponse struct {
	Label         string             `json:"label"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
}
