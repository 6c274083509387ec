package learn

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// fullConfidenceCount is the match count at which a single validation run
// saturates at full confidence.
const fullConfidenceCount = 10

// ValidatePattern re-tests a registered pattern against testURL, appends
// the result, and recomputes the pattern's confidence.
func (s *Service) ValidatePattern(ctx context.Context, patternID, testURL string) (Validation, error) {
	p := s.GetPattern(patternID)
	if p == nil {
		return Validation{}, fmt.Errorf("%w: %s", ErrPatternNotFound, patternID)
	}

	v := s.runValidation(ctx, p, testURL)
	appendValidation(p, v)

	s.log.Info("learn: pattern validated",
		"pattern", p.ID, "url", testURL, "success", v.Success,
		"extracted", v.ExtractedCount, "confidence", p.Confidence)
	return v, nil
}

// runValidation navigates to testURL and runs a count-only query per rule.
// Navigation failure short-circuits with zero confidence. A single rule
// failure is captured into Errors without aborting the remaining rules,
// but any rule error fails the validation as a whole.
func (s *Service) runValidation(ctx context.Context, p *Pattern, testURL string) Validation {
	v := Validation{At: time.Now().UnixMilli(), URL: testURL}

	if err := s.driver.Navigate(ctx, testURL); err != nil {
		v.Errors = append(v.Errors, fmt.Sprintf("navigate %s: %v", testURL, err))
		return v
	}

	for _, r := range p.Rules {
		raw, err := s.driver.Evaluate(ctx, countJS(r.Selector.Value))
		if err != nil {
			v.Errors = append(v.Errors, fmt.Sprintf("rule %s: %v", r.Field, err))
			continue
		}
		var n int
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			v.Errors = append(v.Errors, fmt.Sprintf("rule %s: decode count: %v", r.Field, err))
			continue
		}
		v.ExtractedCount += n
	}

	v.Success = v.ExtractedCount > 0 && len(v.Errors) == 0
	if v.Success {
		v.Confidence = min(float64(v.ExtractedCount)/fullConfidenceCount, 1.0)
	}
	return v
}

// appendValidation appends v and recomputes the pattern's confidence and
// success-rate metadata.
func appendValidation(p *Pattern, v Validation) {
	p.Validations = append(p.Validations, v)
	p.Confidence = patternConfidence(p.Validations)
	p.Meta.SuccessRate = successRate(p.Validations)
	p.Meta.LastValidated = v.At
}

// patternConfidence blends average per-run confidence (70%) with the
// fraction of successful runs (30%). With no validations it returns 0.5:
// an uninformed prior deliberately above zero so an unvalidated but
// plausible pattern is still listed and usable.
func patternConfidence(vs []Validation) float64 {
	if len(vs) == 0 {
		return 0.5
	}
	var sum float64
	for _, v := range vs {
		sum += v.Confidence
	}
	avg := sum / float64(len(vs))
	return 0.7*avg + 0.3*successRate(vs)
}

func successRate(vs []Validation) float64 {
	if len(vs) == 0 {
		return 0
	}
	var ok int
	for _, v := range vs {
		if v.Success {
			ok++
		}
	}
	return float64(ok) / float64(len(vs))
}
