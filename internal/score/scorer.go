package score

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/geoscore/internal/extract"
	"github.com/ppiankov/geoscore/internal/metrics"
	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/nlp"
	"go.uber.org/zap"
)

// MaxBuckets caps the bucket count n; every metric allocates n floats
const MaxBuckets = 1000

// ErrInvalidBuckets is returned when the bucket count n is outside [1, MaxBuckets]
var ErrInvalidBuckets = errors.New("bucket count out of range")

// CheckBuckets validates a bucket count
func CheckBuckets(n int) error {
	if n < 1 || n > MaxBuckets {
		return fmt.Errorf("%w: got %d, want 1..%d", ErrInvalidBuckets, n, MaxBuckets)
	}
	return nil
}

// Mode selects which score family ComputeScores reports
type Mode int

const (
	ModeCitation Mode = iota
	ModeDocument
	ModeAll
)

var modeNames = map[Mode]string{
	ModeCitation: "citation",
	ModeDocument: "document",
	ModeAll:      "all",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses "citation", "document" or "all"
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if key == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q (supported: citation, document, all)", s)
}

// Whole-document report keys
const (
	KeyAuthoritativeness = "Authoritativeness"
	KeySourceability     = "Source-ability"
	KeyUniqueness        = "Uniqueness"
)

// overallPrefix keeps whole-document keys apart from the per-citation
// "Uniqueness" when both families share one map
const overallPrefix = "Overall "

// OverallKeys returns the whole-document summary keys of a ScoreReport in
// display order
func OverallKeys() []string {
	return []string{
		overallPrefix + KeyAuthoritativeness,
		overallPrefix + KeySourceability,
		overallPrefix + KeyUniqueness,
	}
}

func documentScores(out map[string]float64, prefix string, auth, source, unique float64) {
	out[prefix+KeyAuthoritativeness] = Round2(auth * 100)
	out[prefix+KeySourceability] = Round2(source * 100)
	out[prefix+KeyUniqueness] = Round2(unique * 100)
}

// Scorer computes citation-impression and whole-document scores. It holds
// no per-call state and is safe for concurrent use.
type Scorer struct {
	seg    *extract.Segmenter
	nlp    nlp.Toolkit
	logger *zap.Logger
}

// NewScorer creates a scorer on top of a segmenter. A nil logger discards
// output.
func NewScorer(seg *extract.Segmenter, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		seg:    seg,
		nlp:    seg.Toolkit(),
		logger: logger,
	}
}

// Segment exposes the underlying segmenter
func (s *Scorer) Segment(text string) model.Document {
	return s.seg.Segment(text)
}

func (s *Scorer) guard(n int) *bucketGuard {
	return newBucketGuard(n, s.logger)
}

// ScoreDocument segments text and computes every per-citation vector,
// composite and whole-document score
func (s *Scorer) ScoreDocument(text, query string, n int, normalize bool) (*model.ScoreReport, error) {
	if err := CheckBuckets(n); err != nil {
		return nil, err
	}

	started := time.Now()
	doc := s.seg.Segment(text)
	sents := doc.Sentences()
	g := s.guard(n)
	hasQuery := strings.TrimSpace(query) != ""

	report := &model.ScoreReport{
		ID:         uuid.NewString(),
		Query:      query,
		ScoredAt:   started.UTC(),
		Buckets:    n,
		Normalize:  normalize,
		Paragraphs: len(doc),
		Sentences:  len(sents),
		Citation:   make(map[string][]float64),
		Composite:  make(map[string][]float64),
	}

	for _, m := range Metrics() {
		if m.NeedsQuery() && !hasQuery {
			continue
		}
		vec := Normalize(rawMetrics[m](s, sents, query, g), normalize)
		if m.Composite() {
			report.Composite[m.String()] = vec
		} else {
			report.Citation[m.String()] = vec
		}
	}

	var signals []model.Signal
	auth, authSignal := s.calculateAuthoritativeness(sents)
	source, sourceSignal := s.calculateSourceability(sents)
	unique, uniqueSignal := s.calculateUniqueness(sents)
	signals = append(signals, authSignal, sourceSignal, uniqueSignal)

	report.Overall = model.OverallScores{
		Authoritativeness: auth,
		Sourceability:     source,
		Uniqueness:        unique,
	}

	report.Hallucinated = g.hallucinated()
	if len(report.Hallucinated) > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalHallucination,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d citation index(es) outside [1, %d] were ignored", len(report.Hallucinated), n),
			Data: map[string]interface{}{
				"indices": report.Hallucinated,
				"buckets": n,
			},
		})
	}
	if len(doc.CitationIndices()) == 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalNoCitations,
			Severity:    model.SeverityWarning,
			Description: "No citation markers found; per-citation scores fall back to uniform",
			Data:        map[string]interface{}{"sentences": len(sents)},
		})
	}
	report.Signals = signals

	report.Summary = make(map[string]float64)
	for key, vec := range report.Citation {
		report.Summary[key] = AveragePercent(vec)
	}
	for key, vec := range report.Composite {
		report.Summary[key] = AveragePercent(vec)
	}
	documentScores(report.Summary, overallPrefix, auth, source, unique)

	metrics.RecordScoring(ModeAll.String(), started)
	s.logger.Debug("scored document",
		zap.String("id", report.ID),
		zap.Int("paragraphs", report.Paragraphs),
		zap.Int("sentences", report.Sentences),
		zap.Int("hallucinated", len(report.Hallucinated)),
		zap.Duration("elapsed", time.Since(started)))

	return report, nil
}

// ComputeScores returns rounded percentages keyed by metric name. Citation
// mode averages the positive buckets of each vector; document mode reports
// the whole-document scores. Relevance and Influence appear only with a
// query. In ModeAll the document keys carry an "Overall " prefix.
func (s *Scorer) ComputeScores(text, query string, n int, normalize bool, mode Mode) (map[string]float64, error) {
	if err := CheckBuckets(n); err != nil {
		return nil, err
	}
	if _, ok := modeNames[mode]; !ok {
		return nil, fmt.Errorf("unknown mode %d", int(mode))
	}

	started := time.Now()
	sents := s.seg.Segment(text).Sentences()
	hasQuery := strings.TrimSpace(query) != ""
	out := make(map[string]float64)

	if mode == ModeCitation || mode == ModeAll {
		g := s.guard(n)
		for _, m := range Metrics() {
			if m.NeedsQuery() && !hasQuery {
				continue
			}
			out[m.String()] = AveragePercent(Normalize(rawMetrics[m](s, sents, query, g), normalize))
		}
	}

	if mode == ModeDocument || mode == ModeAll {
		auth, _ := s.calculateAuthoritativeness(sents)
		source, _ := s.calculateSourceability(sents)
		unique, _ := s.calculateUniqueness(sents)
		prefix := ""
		if mode == ModeAll {
			prefix = overallPrefix
		}
		documentScores(out, prefix, auth, source, unique)
	}

	metrics.RecordScoring(mode.String(), started)
	return out, nil
}

// CitationScores returns normalized Word+Position per bucket as percentages,
// the visibility estimate used for traffic prediction
func (s *Scorer) CitationScores(text string, n int) ([]float64, error) {
	if err := CheckBuckets(n); err != nil {
		return nil, err
	}

	started := time.Now()
	sents := s.seg.Segment(text).Sentences()
	scores := Normalize(s.rawWordPosition(sents, "", s.guard(n)), true)

	out := make([]float64, len(scores))
	for i, v := range scores {
		out[i] = Round2(v * 100)
	}

	metrics.RecordScoring("visibility", started)
	return out, nil
}
