package classify

import (
	"inbrief/internal/contextstore"
	"inbrief/internal/model"
)

const contextPromotionReason = "context: prior intent reiterated, urgency promoted"

// summaryTextLimit caps how much of the message is echoed into the summary.
const summaryTextLimit = 140

// Classifier blends the strategy's raw decision with per-user context:
// when the context is relevant enough and the new message reiterates the
// prior type, urgency is promoted one level. Never demoted.
type Classifier struct {
	strategy  Strategy
	threshold float64
}

// New builds a classifier. contextThreshold is the relevance cutoff above
// which prior context participates in the decision.
func New(strategy Strategy, contextThreshold float64) *Classifier {
	return &Classifier{strategy: strategy, threshold: contextThreshold}
}

// Classify produces the summary fields for msg. The caller supplies the
// user's context and assigns the summary ID afterwards; the timestamp is
// the message's own so identical input always yields identical output.
func (c *Classifier) Classify(msg model.Message, ctx contextstore.Context) model.Summary {
	d := c.strategy.Decide(msg.Text)

	relevance := contextstore.Relevance(ctx, msg)
	used := len(ctx.Exchanges) > 0 && relevance >= c.threshold

	typ := model.SummaryType(d.Type)
	urgency := model.Urgency(d.Urgency)
	reasoning := d.Reasoning
	if used {
		if last, ok := ctx.Latest(); ok && last.Summary.Type == typ {
			if promoted := urgency.Promote(); promoted != urgency {
				urgency = promoted
				reasoning = append(reasoning, contextPromotionReason)
			}
		}
	}

	return model.Summary{
		MessageID:   msg.ID,
		SummaryText: "[" + string(typ) + "] " + truncate(msg.Text, summaryTextLimit),
		Type:        typ,
		Intent:      intentFor(d),
		Urgency:     urgency,
		Confidence:  d.Confidence,
		Reasoning:   reasoning,
		ContextUsed: used,
		Timestamp:   msg.Timestamp,
	}
}

// IsFallback reports whether the summary came from the no-match path.
func IsFallback(s model.Summary) bool {
	return len(s.Reasoning) > 0 && s.Reasoning[0] == FallbackReason
}

func intentFor(d Decision) string {
	if !d.TypeMatched {
		return "general inquiry"
	}
	switch model.SummaryType(d.Type) {
	case model.SummaryMeeting:
		return "schedule meeting"
	case model.SummaryRequest:
		return "handle request"
	default:
		return "check progress"
	}
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
