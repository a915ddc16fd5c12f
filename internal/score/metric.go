package score

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMetric is returned by ParseMetric for names outside the table
var ErrUnknownMetric = errors.New("unknown metric")

// Metric selects one per-citation score vector
type Metric int

const (
	MetricWordPosition Metric = iota
	MetricWordOnly
	MetricPositionOnly
	MetricRelevance
	MetricInfluence
	MetricFollowUp
	MetricDiversity
	MetricUniqueness
	MetricAuthoritativeness
	MetricSourceability
	MetricUniquenessCited
)

type metricInfo struct {
	name      string // report key
	slug      string // CLI and API key
	composite bool
	query     bool // only meaningful with a query
}

var metricTable = [...]metricInfo{
	MetricWordPosition:      {name: "Word+Position", slug: "word-position"},
	MetricWordOnly:          {name: "Word-only", slug: "word-only"},
	MetricPositionOnly:      {name: "Position-only", slug: "position-only"},
	MetricRelevance:         {name: "Relevance", slug: "relevance", query: true},
	MetricInfluence:         {name: "Influence", slug: "influence", query: true},
	MetricFollowUp:          {name: "Follow-up", slug: "follow-up"},
	MetricDiversity:         {name: "Diversity", slug: "diversity"},
	MetricUniqueness:        {name: "Uniqueness", slug: "uniqueness"},
	MetricAuthoritativeness: {name: "Authoritativeness (cited)", slug: "authoritativeness", composite: true},
	MetricSourceability:     {name: "Source-ability (cited)", slug: "sourceability", composite: true},
	MetricUniquenessCited:   {name: "Uniqueness (cited)", slug: "uniqueness-cited", composite: true},
}

// Metrics returns every metric in report order
func Metrics() []Metric {
	out := make([]Metric, len(metricTable))
	for i := range metricTable {
		out[i] = Metric(i)
	}
	return out
}

func (m Metric) valid() bool {
	return m >= 0 && int(m) < len(metricTable)
}

// String returns the report key, e.g. "Word+Position"
func (m Metric) String() string {
	if !m.valid() {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return metricTable[m].name
}

// Slug returns the lower-case identifier used on the command line
func (m Metric) Slug() string {
	if !m.valid() {
		return ""
	}
	return metricTable[m].slug
}

// Composite reports whether the metric is a weighted blend of base metrics
func (m Metric) Composite() bool {
	return m.valid() && metricTable[m].composite
}

// NeedsQuery reports whether the metric is only reported with a query
func (m Metric) NeedsQuery() bool {
	return m.valid() && metricTable[m].query
}

// ParseMetric accepts a slug or report key, case-insensitively
func ParseMetric(s string) (Metric, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	slug := strings.NewReplacer("_", "-", " ", "-", "+", "-").Replace(key)

	for i, info := range metricTable {
		if key == strings.ToLower(info.name) || slug == info.slug {
			return Metric(i), nil
		}
	}

	slugs := make([]string, len(metricTable))
	for i, info := range metricTable {
		slugs[i] = info.slug
	}
	return 0, fmt.Errorf("%w %q (supported: %s)", ErrUnknownMetric, s, strings.Join(slugs, ", "))
}
