package learn

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// ApplyPattern navigates to url and extracts a value per matching element
// for every rule in the pattern. Records come back flat, in rule order
// then DOM order.
func (s *Service) ApplyPattern(ctx context.Context, patternID, url string) ([]Extracted, error) {
	p := s.GetPattern(patternID)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPatternNotFound, patternID)
	}

	if err := s.driver.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}

	var out []Extracted
	for _, r := range p.Rules {
		raw, err := s.driver.Evaluate(ctx, extractJS(r.Selector.Value))
		if err != nil {
			return nil, fmt.Errorf("%w: rule %s: %v", ErrDriverAction, r.Field, err)
		}
		var rows []rawExtract
		if err := json.Unmarshal([]byte(raw), &rows); err != nil {
			return nil, fmt.Errorf("learn: decode extraction for rule %s: %w", r.Field, err)
		}
		for _, row := range rows {
			out = append(out, Extracted{
				Field: r.Field,
				Value: ApplyTransform(r.Transform, row.Text, row.Href, row.Datetime),
				Kind:  row.Kind,
			})
		}
	}

	s.log.Info("learn: pattern applied", "pattern", p.ID, "url", url, "records", len(out))
	return out, nil
}

var digitRun = regexp.MustCompile(`\d+`)

// ApplyTransform coerces raw element material per a rule's transform:
// text passes through unmodified, href takes the resolved link target,
// number parses the first digit run (defaulting to 0), date prefers a
// datetime attribute over visible text.
func ApplyTransform(t Transform, text, href, datetime string) string {
	switch t {
	case TransformHref:
		return href
	case TransformNumber:
		m := digitRun.FindString(text)
		n, err := strconv.Atoi(m)
		if err != nil {
			return "0"
		}
		return strconv.Itoa(n)
	case TransformDate:
		if datetime != "" {
			return datetime
		}
		return text
	default:
		return text
	}
}
