package score

import "github.com/ppiankov/geoscore/internal/model"

// Composite weights. Each set sums to 1.0.
const (
	authInfluenceWeight = 0.5
	authPositionWeight  = 0.3
	authRelevanceWeight = 0.2

	sourceWordWeight      = 0.4
	sourceFollowUpWeight  = 0.4
	sourceRelevanceWeight = 0.2

	uniqueUniquenessWeight = 0.6
	uniqueDiversityWeight  = 0.4
)

// Authoritativeness blends influence, inverted position and relevance per
// citation
func (s *Scorer) Authoritativeness(doc model.Document, query string, n int, normalize bool) []float64 {
	return s.Compute(MetricAuthoritativeness, doc, query, n, normalize)
}

// Sourceability blends word count, follow-up and relevance per citation
func (s *Scorer) Sourceability(doc model.Document, query string, n int, normalize bool) []float64 {
	return s.Compute(MetricSourceability, doc, query, n, normalize)
}

// UniquenessCited blends uniqueness and diversity per citation
func (s *Scorer) UniquenessCited(doc model.Document, n int, normalize bool) []float64 {
	return s.Compute(MetricUniquenessCited, doc, "", n, normalize)
}

func (s *Scorer) rawAuthoritativeness(sents []model.Sentence, query string, g *bucketGuard) []float64 {
	return blendAuthoritativeness(
		s.rawInfluence(sents, query, g),
		s.rawPositionOnly(sents, query, g),
		s.rawRelevance(sents, query, g),
	)
}

func (s *Scorer) rawSourceability(sents []model.Sentence, query string, g *bucketGuard) []float64 {
	return blendSourceability(
		s.rawWordOnly(sents, query, g),
		s.rawFollowUp(sents, query, g),
		s.rawRelevance(sents, query, g),
	)
}

func (s *Scorer) rawUniquenessCited(sents []model.Sentence, query string, g *bucketGuard) []float64 {
	return blendUniquenessCited(
		s.rawUniqueness(sents, query, g),
		s.rawDiversity(sents, query, g),
	)
}

// The blend functions take raw vectors of equal length

func blendAuthoritativeness(influence, position, relevance []float64) []float64 {
	out := make([]float64, len(influence))
	for i := range out {
		inverted := 0.0
		if position[i] <= 1 {
			inverted = 1 - position[i]
		}
		out[i] = authInfluenceWeight*influence[i] +
			authPositionWeight*inverted +
			authRelevanceWeight*relevance[i]
	}
	return out
}

func blendSourceability(wordOnly, followUp, relevance []float64) []float64 {
	out := make([]float64, len(wordOnly))
	for i := range out {
		out[i] = sourceWordWeight*wordOnly[i] +
			sourceFollowUpWeight*followUp[i] +
			sourceRelevanceWeight*relevance[i]
	}
	return out
}

func blendUniquenessCited(uniqueness, diversity []float64) []float64 {
	out := make([]float64, len(uniqueness))
	for i := range out {
		out[i] = uniqueUniquenessWeight*uniqueness[i] + uniqueDiversityWeight*diversity[i]
	}
	return out
}
