// Package contextstore keeps the bounded per-user conversation window the
// classifier reads its context from. Appends for the same user are
// serialized; different users never block each other.
package contextstore

import (
	"sync"
	"time"

	"inbrief/internal/model"
)

// Exchange is one processed message together with the summary produced
// for it.
type Exchange struct {
	Message model.Message `json:"message"`
	Summary model.Summary `json:"summary"`
}

// Context is the recent history for one user, oldest first. An empty
// context is valid and is what unknown users get.
type Context struct {
	UserID    string     `json:"user_id"`
	Exchanges []Exchange `json:"exchanges"`
}

// Latest returns the most recent exchange, if any.
func (c Context) Latest() (Exchange, bool) {
	if len(c.Exchanges) == 0 {
		return Exchange{}, false
	}
	return c.Exchanges[len(c.Exchanges)-1], true
}

// recencyHorizon is how far back the latest exchange may lie and still
// count towards relevance.
const recencyHorizon = 24 * time.Hour

// Relevance scores how strongly ctx should influence the classification of
// msg, in [0,1]: recency of the latest exchange against the message's own
// timestamp (weight 0.6) plus conversation continuity (weight 0.4).
func Relevance(ctx Context, msg model.Message) float64 {
	last, ok := ctx.Latest()
	if !ok {
		return 0
	}
	age := msg.Timestamp.Sub(last.Message.Timestamp)
	if age < 0 {
		age = 0
	}
	recency := 0.0
	if age < recencyHorizon {
		recency = 1 - float64(age)/float64(recencyHorizon)
	}
	match := 0.0
	if msg.ConversationID != "" && msg.ConversationID == last.Message.ConversationID {
		match = 1
	}
	return 0.6*recency + 0.4*match
}

type userWindow struct {
	mu        sync.Mutex
	exchanges []Exchange
}

// Store holds one bounded window per user. The store-level mutex only
// guards the user table; each window carries its own lock.
type Store struct {
	capacity int
	mu       sync.Mutex
	users    map[string]*userWindow
}

func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = 1
	}
	return &Store{capacity: capacity, users: make(map[string]*userWindow)}
}

func (s *Store) window(userID string) *userWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.users[userID]
	if !ok {
		w = &userWindow{}
		s.users[userID] = w
	}
	return w
}

// Get returns a copy of the user's context. Unknown users get an empty
// context, never an error.
func (s *Store) Get(userID string) Context {
	w := s.window(userID)
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Exchange, len(w.exchanges))
	copy(out, w.exchanges)
	return Context{UserID: userID, Exchanges: out}
}

// Append adds the latest exchange and evicts the oldest entries once the
// window exceeds capacity.
func (s *Store) Append(userID string, msg model.Message, sum model.Summary) {
	w := s.window(userID)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.exchanges = append(w.exchanges, Exchange{Message: msg, Summary: sum})
	if len(w.exchanges) > s.capacity {
		w.exchanges = w.exchanges[len(w.exchanges)-s.capacity:]
	}
}

// Reset drops the window for a single user.
func (s *Store) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
}
