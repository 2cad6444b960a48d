// Package classify turns message text into type, intent, urgency,
// confidence and an auditable reasoning trace using a fixed weighted rule
// table. Evaluation is deterministic: identical input and context always
// produce identical output, including reasoning order.
package classify

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"inbrief/internal/model"
)

// Rule contributes weight to one candidate label when its pattern occurs in
// the normalized message text. Patterns match whole words; multi-word
// patterns match contiguous word sequences.
type Rule struct {
	Pattern string  `yaml:"pattern"`
	Weight  float64 `yaml:"weight"`
	Label   string  `yaml:"label"`
}

// Ruleset is the complete classification table plus the constants the
// engines read. A YAML file may replace any section; omitted sections keep
// the built-in defaults.
type Ruleset struct {
	FallbackConfidence float64  `yaml:"fallback_confidence"`
	TypeRules          []Rule   `yaml:"type_rules"`
	UrgencyRules       []Rule   `yaml:"urgency_rules"`
	EscalationKeywords []string `yaml:"escalation_keywords"`
}

// Default returns the built-in table.
func Default() Ruleset {
	return Ruleset{
		FallbackConfidence: 0.3,
		TypeRules: []Rule{
			{Pattern: "did the", Weight: 1.2, Label: "follow-up"},
			{Pattern: "get done", Weight: 1.2, Label: "follow-up"},
			{Pattern: "follow up", Weight: 1.0, Label: "follow-up"},
			{Pattern: "status", Weight: 1.0, Label: "follow-up"},
			{Pattern: "update", Weight: 1.0, Label: "follow-up"},
			{Pattern: "any news", Weight: 1.0, Label: "follow-up"},
			{Pattern: "checking in", Weight: 1.0, Label: "follow-up"},
			{Pattern: "schedule a meeting", Weight: 1.5, Label: "meeting"},
			{Pattern: "meeting", Weight: 1.0, Label: "meeting"},
			{Pattern: "call", Weight: 1.0, Label: "meeting"},
			{Pattern: "schedule", Weight: 1.0, Label: "meeting"},
			{Pattern: "reschedule", Weight: 1.0, Label: "meeting"},
			{Pattern: "standup", Weight: 1.0, Label: "meeting"},
			{Pattern: "review", Weight: 1.0, Label: "meeting"},
			{Pattern: "sync", Weight: 1.0, Label: "meeting"},
			{Pattern: "appointment", Weight: 1.0, Label: "meeting"},
			{Pattern: "catch up", Weight: 1.0, Label: "meeting"},
			{Pattern: "need", Weight: 1.0, Label: "request"},
			{Pattern: "please send", Weight: 1.0, Label: "request"},
			{Pattern: "can you", Weight: 1.0, Label: "request"},
			{Pattern: "could you", Weight: 1.0, Label: "request"},
			{Pattern: "required", Weight: 1.0, Label: "request"},
			{Pattern: "want", Weight: 1.0, Label: "request"},
			{Pattern: "request", Weight: 1.0, Label: "request"},
		},
		UrgencyRules: []Rule{
			{Pattern: "urgent", Weight: 1.0, Label: "high"},
			{Pattern: "asap", Weight: 1.0, Label: "high"},
			{Pattern: "immediately", Weight: 1.0, Label: "high"},
			{Pattern: "critical", Weight: 1.0, Label: "high"},
			{Pattern: "emergency", Weight: 1.0, Label: "high"},
			{Pattern: "right away", Weight: 1.0, Label: "high"},
			{Pattern: "server is down", Weight: 1.0, Label: "high"},
			{Pattern: "important", Weight: 1.0, Label: "medium"},
			{Pattern: "soon", Weight: 1.0, Label: "medium"},
			{Pattern: "deadline", Weight: 1.0, Label: "medium"},
			{Pattern: "today", Weight: 1.0, Label: "medium"},
			{Pattern: "by tomorrow", Weight: 1.0, Label: "medium"},
			{Pattern: "end of day", Weight: 1.0, Label: "medium"},
			{Pattern: "whenever", Weight: 1.0, Label: "low"},
			{Pattern: "no rush", Weight: 1.0, Label: "low"},
			{Pattern: "sometime", Weight: 1.0, Label: "low"},
			{Pattern: "at your convenience", Weight: 1.0, Label: "low"},
		},
		EscalationKeywords: []string{"urgent", "asap", "immediately", "critical", "emergency"},
	}
}

// LoadFile reads a YAML override on top of the defaults.
func LoadFile(path string) (Ruleset, error) {
	set := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Ruleset{}, fmt.Errorf("read rules file: %w", err)
	}
	var file Ruleset
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Ruleset{}, fmt.Errorf("parse rules file: %w", err)
	}
	if file.FallbackConfidence > 0 {
		set.FallbackConfidence = file.FallbackConfidence
	}
	if len(file.TypeRules) > 0 {
		set.TypeRules = file.TypeRules
	}
	if len(file.UrgencyRules) > 0 {
		set.UrgencyRules = file.UrgencyRules
	}
	if len(file.EscalationKeywords) > 0 {
		set.EscalationKeywords = file.EscalationKeywords
	}
	if err := set.Validate(); err != nil {
		return Ruleset{}, err
	}
	return set, nil
}

// Export renders the effective ruleset as YAML.
func (s Ruleset) Export() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal rules: %w", err)
	}
	return data, nil
}

func (s Ruleset) Validate() error {
	if s.FallbackConfidence <= 0 || s.FallbackConfidence > 1 {
		return fmt.Errorf("fallback confidence must be in (0,1], got %g", s.FallbackConfidence)
	}
	for i, r := range s.TypeRules {
		if err := checkRule(r); err != nil {
			return fmt.Errorf("type rule %d: %w", i, err)
		}
		if !model.SummaryType(r.Label).Valid() {
			return fmt.Errorf("type rule %d: unknown label %q", i, r.Label)
		}
	}
	for i, r := range s.UrgencyRules {
		if err := checkRule(r); err != nil {
			return fmt.Errorf("urgency rule %d: %w", i, err)
		}
		if !model.Urgency(r.Label).Valid() {
			return fmt.Errorf("urgency rule %d: unknown label %q", i, r.Label)
		}
	}
	if len(s.EscalationKeywords) == 0 {
		return fmt.Errorf("escalation keywords must not be empty")
	}
	return nil
}

func checkRule(r Rule) error {
	if strings.TrimSpace(r.Pattern) == "" {
		return fmt.Errorf("empty pattern")
	}
	if r.Weight <= 0 {
		return fmt.Errorf("weight must be positive, got %g", r.Weight)
	}
	return nil
}

// Normalize case-folds text and strips punctuation so patterns match
// regardless of casing or separators: letters and digits survive,
// everything else becomes a single space.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// containsPattern reports whether the normalized pattern occurs in the
// normalized text on word boundaries.
func containsPattern(normText, normPattern string) bool {
	if normPattern == "" {
		return false
	}
	return strings.Contains(" "+normText+" ", " "+normPattern+" ")
}
