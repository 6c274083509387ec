package learn

import (
	"context"
	"encoding/json"
)

// PatternRecord is the serialized shape handed to a PatternSink. Selectors
// are plain strings; Sample bundles confidence, rules, and metadata as an
// opaque JSON blob whose layout belongs to the store, not to this package.
type PatternRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Selectors   []string        `json:"selectors"`
	Sample      json.RawMessage `json:"sample"`
}

// PatternSink persists learned patterns, scoped by the site domain they
// were learned from. The link store implements this.
type PatternSink interface {
	SavePattern(ctx context.Context, domain string, rec PatternRecord) error
}

// record serializes a pattern for the sink.
func record(p *Pattern) PatternRecord {
	selectors := make([]string, 0, len(p.Selectors))
	for _, sel := range p.Selectors {
		selectors = append(selectors, sel.Value)
	}

	sample, _ := json.Marshal(struct {
		Confidence  float64      `json:"confidence"`
		Rules       []Rule       `json:"rules"`
		Validations []Validation `json:"validations,omitempty"`
		Meta        PatternMeta  `json:"meta"`
	}{p.Confidence, p.Rules, p.Validations, p.Meta})

	return PatternRecord{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Selectors:   selectors,
		Sample:      sample,
	}
}
