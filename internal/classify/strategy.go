package classify

import (
	"fmt"
	"sort"
)

// FallbackReason is the exact reasoning entry recorded when no rule in the
// whole table matched.
const FallbackReason = "no rule matched, fallback applied"

const (
	defaultedTypeReason    = "no type rule matched, defaulted to follow-up"
	defaultedUrgencyReason = "no urgency rule matched, defaulted to low"
)

// Decision is a raw classification of message text, before any context
// blending.
type Decision struct {
	Type           string
	TypeMatched    bool
	Urgency        string
	UrgencyMatched bool
	Confidence     float64
	Reasoning      []string
	Fallback       bool // true when nothing in the table matched
}

// Strategy scores message text into a Decision. The rule-table strategy is
// the shipped implementation; anything else (a learned scorer, a remote
// model) can be swapped in behind this interface without changing the
// summary or task contracts.
type Strategy interface {
	Decide(text string) Decision
}

type firedRule struct {
	kind  string // "type" or "urgency"
	label string
	rule  Rule
	order int // position in the table, for stable ties
}

// RuleStrategy evaluates the weighted rule table: every matching rule
// fires, weights aggregate per candidate label, the highest aggregate wins
// and ties break to the lexicographically smallest label.
type RuleStrategy struct {
	set Ruleset

	normTypes   []string
	normUrgency []string
}

func NewRuleStrategy(set Ruleset) *RuleStrategy {
	s := &RuleStrategy{set: set}
	s.normTypes = make([]string, len(set.TypeRules))
	for i, r := range set.TypeRules {
		s.normTypes[i] = Normalize(r.Pattern)
	}
	s.normUrgency = make([]string, len(set.UrgencyRules))
	for i, r := range set.UrgencyRules {
		s.normUrgency[i] = Normalize(r.Pattern)
	}
	return s
}

func (s *RuleStrategy) Decide(text string) Decision {
	norm := Normalize(text)

	var fired []firedRule
	typeAgg := make(map[string]float64)
	urgencyAgg := make(map[string]float64)

	for i, r := range s.set.TypeRules {
		if containsPattern(norm, s.normTypes[i]) {
			typeAgg[r.Label] += r.Weight
			fired = append(fired, firedRule{kind: "type", label: r.Label, rule: r, order: i})
		}
	}
	base := len(s.set.TypeRules)
	for i, r := range s.set.UrgencyRules {
		if containsPattern(norm, s.normUrgency[i]) {
			urgencyAgg[r.Label] += r.Weight
			fired = append(fired, firedRule{kind: "urgency", label: r.Label, rule: r, order: base + i})
		}
	}

	if len(fired) == 0 {
		return Decision{
			Type:       "follow-up",
			Urgency:    "low",
			Confidence: s.set.FallbackConfidence,
			Reasoning:  []string{FallbackReason},
			Fallback:   true,
		}
	}

	d := Decision{}
	d.Type, d.TypeMatched = winner(typeAgg, "follow-up")
	d.Urgency, d.UrgencyMatched = winner(urgencyAgg, "low")
	if d.TypeMatched {
		d.Confidence = clamp01(typeAgg[d.Type] / total(typeAgg))
	} else {
		d.Confidence = s.set.FallbackConfidence
	}

	// Descending weight; equal weights keep table order.
	sort.SliceStable(fired, func(i, j int) bool {
		if fired[i].rule.Weight != fired[j].rule.Weight {
			return fired[i].rule.Weight > fired[j].rule.Weight
		}
		return fired[i].order < fired[j].order
	})
	for _, f := range fired {
		d.Reasoning = append(d.Reasoning,
			fmt.Sprintf("match: %s/%s %q (+%.1f)", f.kind, f.label, f.rule.Pattern, f.rule.Weight))
	}
	if !d.TypeMatched {
		d.Reasoning = append(d.Reasoning, defaultedTypeReason)
	}
	if !d.UrgencyMatched {
		d.Reasoning = append(d.Reasoning, defaultedUrgencyReason)
	}
	return d
}

// winner picks the label with the highest aggregate weight; ties break to
// the lexicographically smallest label so identical inputs can never flip.
func winner(agg map[string]float64, fallbackLabel string) (string, bool) {
	if len(agg) == 0 {
		return fallbackLabel, false
	}
	best := ""
	bestWeight := -1.0
	for label, w := range agg {
		if w > bestWeight || (w == bestWeight && label < best) {
			best = label
			bestWeight = w
		}
	}
	return best, true
}

func total(agg map[string]float64) float64 {
	t := 0.0
	for _, w := range agg {
		t += w
	}
	return t
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
