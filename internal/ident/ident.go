// Package ident assigns record identifiers. The pipeline never mints IDs
// itself; it asks a Generator so tests can pin them.
package ident

import (
	"strings"

	"github.com/google/uuid"
)

// Generator hands out identifiers for the records the pipeline produces.
type Generator interface {
	MessageID() string
	SummaryID() string
	TaskID() string
	ActionID() string
}

// UUID generates prefixed identifiers from random UUIDs:
// m_/s_/t_ carry 12 hex digits, recommendation actions a_ carry 8.
type UUID struct{}

func New() UUID { return UUID{} }

func (UUID) MessageID() string { return hexID("m_", 12) }
func (UUID) SummaryID() string { return hexID("s_", 12) }
func (UUID) TaskID() string    { return hexID("t_", 12) }
func (UUID) ActionID() string  { return hexID("a_", 8) }

func hexID(prefix string, n int) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + raw[:n]
}
