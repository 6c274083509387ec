package learn

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/notactuallytreyanastasio/browser-mcp/idgen"
)

// initialConfidence is a placeholder assigned at synthesis time; real
// confidence is established by validation.
const initialConfidence = 0.8

// maxFallbacks caps how many original concrete selectors a generalized
// selector retains.
const maxFallbacks = 3

// synthesize derives patterns from a session's extract interactions.
// Interactions are grouped by field; a group needs at least two concrete
// examples before generalization is attempted, since one example cannot
// reveal which part of a selector is incidental vs. structural. With
// combine=false each surviving field yields its own single-rule pattern;
// with combine=true all rules bundle into one pattern for the session.
func synthesize(sess *Session, combine bool, newID idgen.Generator) []*Pattern {
	type group struct {
		field     string
		selectors []string
	}

	var groups []*group
	byField := make(map[string]*group)
	for _, inter := range sess.Interactions {
		if inter.Action.Kind != ActionExtract {
			continue
		}
		g, ok := byField[inter.Action.Field]
		if !ok {
			g = &group{field: inter.Action.Field}
			byField[inter.Action.Field] = g
			groups = append(groups, g)
		}
		g.selectors = append(g.selectors, inter.Action.Selector)
	}

	var rules []Rule
	var examples int
	for _, g := range groups {
		if len(g.selectors) < 2 {
			continue
		}
		canonical := canonicalSelector(g.selectors)
		if canonical == "" {
			continue
		}

		sel := Selector{
			Type:       SelectorCSS,
			Value:      canonical,
			Role:       g.field,
			Confidence: initialConfidence,
			Fallbacks:  fallbacks(g.selectors),
		}
		rules = append(rules, Rule{
			Field:     g.field,
			Selector:  sel,
			Transform: inferTransform(g.field),
			Required:  true,
		})
		examples += len(g.selectors)
	}

	if len(rules) == 0 {
		return nil
	}

	if combine {
		p := newPattern(newID(), sess.Site, "listing", rules, examples)
		p.Description = fmt.Sprintf("Extracts %s from %s (learned from %d examples)",
			fieldList(rules), sess.Site, examples)
		return []*Pattern{p}
	}

	patterns := make([]*Pattern, 0, len(rules))
	for _, r := range rules {
		patterns = append(patterns, newFieldPattern(newID(), sess, r))
	}
	return patterns
}

func newFieldPattern(id string, sess *Session, r Rule) *Pattern {
	learned := 0
	for _, inter := range sess.Interactions {
		if inter.Action.Kind == ActionExtract && inter.Action.Field == r.Field {
			learned++
		}
	}
	p := newPattern(id, sess.Site, r.Field, []Rule{r}, learned)
	p.Description = fmt.Sprintf("Extracts %s from %s (learned from %d examples)",
		r.Field, sess.Site, learned)
	return p
}

func newPattern(id, site, label string, rules []Rule, learnedFrom int) *Pattern {
	selectors := make([]Selector, 0, len(rules))
	for _, r := range rules {
		selectors = append(selectors, r.Selector)
	}
	return &Pattern{
		ID:         id,
		Name:       site + " " + label,
		Confidence: initialConfidence,
		Selectors:  selectors,
		Rules:      rules,
		Meta:       PatternMeta{LearnedFrom: learnedFrom},
	}
}

func fieldList(rules []Rule) string {
	fields := make([]string, 0, len(rules))
	for _, r := range rules {
		fields = append(fields, r.Field)
	}
	return strings.Join(fields, ", ")
}

var indexSegment = regexp.MustCompile(`\[\d+\]`)

// generalizeSelector strips bracketed numeric index segments (positional
// indexes) so that selectors differing only by position collapse to one.
func generalizeSelector(sel string) string {
	return strings.Join(strings.Fields(indexSegment.ReplaceAllString(sel, "")), " ")
}

// canonicalSelector picks the selector a field group generalizes to. One
// distinct concrete selector is used verbatim; otherwise every selector is
// generalized and the most frequent generalized form wins, ties broken by
// first occurrence. Deterministic for a given ordered input.
func canonicalSelector(selectors []string) string {
	if len(selectors) == 0 {
		return ""
	}

	distinct := make(map[string]bool)
	for _, s := range selectors {
		distinct[s] = true
	}
	if len(distinct) == 1 {
		return selectors[0]
	}

	counts := make(map[string]int)
	var order []string
	for _, s := range selectors {
		g := generalizeSelector(s)
		if g == "" {
			continue
		}
		if counts[g] == 0 {
			order = append(order, g)
		}
		counts[g]++
	}

	best := ""
	for _, g := range order {
		if best == "" || counts[g] > counts[best] {
			best = g
		}
	}
	return best
}

// fallbacks retains up to maxFallbacks original concrete selectors, in
// source order.
func fallbacks(selectors []string) []string {
	n := min(len(selectors), maxFallbacks)
	out := make([]string, n)
	copy(out, selectors[:n])
	return out
}

// inferTransform is a pure function of the field name: names mentioning
// URLs get the href transform, counts get number, dates get date,
// everything else plain text.
func inferTransform(field string) Transform {
	f := strings.ToLower(field)
	switch {
	case strings.Contains(f, "url"), strings.Contains(f, "link"), strings.Contains(f, "href"):
		return TransformHref
	case strings.Contains(f, "score"), strings.Contains(f, "point"), strings.Contains(f, "count"):
		return TransformNumber
	case strings.Contains(f, "date"), strings.Contains(f, "time"):
		return TransformDate
	default:
		return TransformText
	}
}
