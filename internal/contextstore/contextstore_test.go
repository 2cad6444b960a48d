package contextstore

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"inbrief/internal/model"
)

func msgAt(user, conv, text string, ts time.Time) model.Message {
	return model.Message{
		ID:             "m_" + text,
		UserID:         user,
		Platform:       model.PlatformEmail,
		ConversationID: conv,
		Text:           text,
		Timestamp:      ts,
	}
}

func sumFor(m model.Message, typ model.SummaryType) model.Summary {
	return model.Summary{
		ID:        "s_" + m.ID,
		MessageID: m.ID,
		Type:      typ,
		Urgency:   model.UrgencyLow,
		Timestamp: m.Timestamp,
	}
}

func TestEmptyContextForUnknownUser(t *testing.T) {
	s := New(5)
	ctx := s.Get("nobody")
	if ctx.UserID != "nobody" || len(ctx.Exchanges) != 0 {
		t.Fatalf("want empty context, got %+v", ctx)
	}
	if _, ok := ctx.Latest(); ok {
		t.Fatalf("latest must report absence")
	}
}

func TestAppendEvictsOldestFIFO(t *testing.T) {
	s := New(3)
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		m := msgAt("u1", "c1", fmt.Sprintf("msg%d", i), base.Add(time.Duration(i)*time.Minute))
		s.Append("u1", m, sumFor(m, model.SummaryFollowUp))
	}
	ctx := s.Get("u1")
	if len(ctx.Exchanges) != 3 {
		t.Fatalf("want 3 kept, got %d", len(ctx.Exchanges))
	}
	if ctx.Exchanges[0].Message.Text != "msg2" || ctx.Exchanges[2].Message.Text != "msg4" {
		t.Fatalf("eviction order wrong: %s .. %s",
			ctx.Exchanges[0].Message.Text, ctx.Exchanges[2].Message.Text)
	}
}

func TestPerUserIsolation(t *testing.T) {
	s := New(5)
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	m1 := msgAt("u1", "c1", "for one", base)
	s.Append("u1", m1, sumFor(m1, model.SummaryRequest))
	if got := s.Get("u2"); len(got.Exchanges) != 0 {
		t.Fatalf("u2 must stay empty, got %d", len(got.Exchanges))
	}
	s.Reset("u1")
	if got := s.Get("u1"); len(got.Exchanges) != 0 {
		t.Fatalf("reset must clear u1, got %d", len(got.Exchanges))
	}
}

func TestConcurrentAppendsDoNotLoseUpdates(t *testing.T) {
	s := New(1000)
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for u := 0; u < 4; u++ {
		user := fmt.Sprintf("u%d", u)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				m := msgAt(user, "c", fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Second))
				s.Append(user, m, sumFor(m, model.SummaryFollowUp))
			}
		}()
	}
	wg.Wait()
	for u := 0; u < 4; u++ {
		user := fmt.Sprintf("u%d", u)
		if got := len(s.Get(user).Exchanges); got != 50 {
			t.Fatalf("%s: want 50 exchanges, got %d", user, got)
		}
	}
}

func TestRelevanceWeighting(t *testing.T) {
	s := New(5)
	base := time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC)
	prior := msgAt("u1", "conv-1", "earlier", base)
	s.Append("u1", prior, sumFor(prior, model.SummaryMeeting))
	ctx := s.Get("u1")

	// same conversation, no time passed: 0.6 + 0.4
	now := msgAt("u1", "conv-1", "now", base)
	if got := Relevance(ctx, now); got != 1.0 {
		t.Fatalf("fresh same-conversation relevance: %g", got)
	}

	// half the horizon gone, different conversation: 0.6 * 0.5
	later := msgAt("u1", "conv-2", "later", base.Add(12*time.Hour))
	if got := Relevance(ctx, later); got < 0.299 || got > 0.301 {
		t.Fatalf("12h different-conversation relevance: %g", got)
	}

	// beyond the horizon, same conversation: only the match term remains
	stale := msgAt("u1", "conv-1", "stale", base.Add(48*time.Hour))
	if got := Relevance(ctx, stale); got < 0.399 || got > 0.401 {
		t.Fatalf("stale same-conversation relevance: %g", got)
	}

	if got := Relevance(Context{UserID: "u1"}, now); got != 0 {
		t.Fatalf("empty context relevance must be 0, got %g", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data", "context.json")
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

	s := New(3)
	for i := 0; i < 5; i++ {
		m := msgAt("u1", "c1", fmt.Sprintf("msg%d", i), base.Add(time.Duration(i)*time.Minute))
		s.Append("u1", m, sumFor(m, model.SummaryFollowUp))
	}
	m := msgAt("u2", "c9", "other user", base)
	s.Append("u2", m, sumFor(m, model.SummaryRequest))
	if err := s.SaveFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := New(3)
	if err := restored.LoadFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	u1 := restored.Get("u1")
	if len(u1.Exchanges) != 3 || u1.Exchanges[2].Message.Text != "msg4" {
		t.Fatalf("u1 restore mismatch: %+v", u1.Exchanges)
	}
	if got := restored.Get("u2"); len(got.Exchanges) != 1 {
		t.Fatalf("u2 restore mismatch: %d", len(got.Exchanges))
	}

	// missing file is not an error
	fresh := New(3)
	if err := fresh.LoadFile(filepath.Join(dir, "absent.json")); err != nil {
		t.Fatalf("missing snapshot must load clean: %v", err)
	}
}
