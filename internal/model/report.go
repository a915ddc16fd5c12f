package model

import "time"

// ScoreReport is the complete result of scoring one text
type ScoreReport struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject,omitempty"` // File name, URL or "stdin"
	Query     string    `json:"query,omitempty"`   // Optional relevance query
	Adapter   string    `json:"adapter,omitempty"` // HTML adapter used for HTML inputs
	ScoredAt  time.Time `json:"scored_at"`
	Buckets   int       `json:"buckets"` // n, the highest tracked citation index
	Normalize bool      `json:"normalize"`

	Paragraphs int `json:"paragraphs"`
	Sentences  int `json:"sentences"`

	// Sources maps citation indices to URLs when the input page declares them
	Sources map[int]string `json:"sources,omitempty"`

	// Hallucinated lists citation indices found in the text outside [1, n]
	Hallucinated []int `json:"hallucinated,omitempty"`

	Citation  map[string][]float64 `json:"citation"`          // Per-citation vectors keyed by metric name
	Composite map[string][]float64 `json:"composite"`         // Weighted per-citation composites
	Overall   OverallScores        `json:"overall"`           // Whole-document scores in [0, 1]
	Summary   map[string]float64   `json:"summary"`           // Rounded percentages
	Signals   []Signal             `json:"signals,omitempty"` // Breakdown of whole-document scores

	Treatments []TreatmentResult `json:"treatments,omitempty"`
}

// OverallScores holds the whole-document scores
type OverallScores struct {
	Authoritativeness float64 `json:"authoritativeness"`
	Sourceability     float64 `json:"sourceability"`
	Uniqueness        float64 `json:"uniqueness"`
}

// TreatmentResult records one LLM rewrite and how its scores moved
type TreatmentResult struct {
	Method   string             `json:"method"`
	Provider string             `json:"provider,omitempty"`
	Model    string             `json:"model,omitempty"`
	Content  string             `json:"content,omitempty"`
	Summary  map[string]float64 `json:"summary,omitempty"`
	Delta    map[string]float64 `json:"delta,omitempty"` // Treated minus original, in percentage points
	Error    string             `json:"error,omitempty"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"` // Inputs and formulas
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalAuthoritativeness SignalType = "authoritativeness"
	SignalSourceability     SignalType = "sourceability"
	SignalUniqueness        SignalType = "uniqueness"
	SignalHallucination     SignalType = "hallucinated_citation"
	SignalNoCitations       SignalType = "no_citations"
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
