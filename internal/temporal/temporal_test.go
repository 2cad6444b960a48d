package temporal

import (
	"errors"
	"testing"
	"time"

	"inbrief/internal/model"
)

// Tuesday, so weekday arithmetic is easy to eyeball.
var anchor = time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC)

func newResolver() *Resolver {
	return NewResolver(9, 24*time.Hour)
}

func wantAt(t *testing.T, res Resolution, want time.Time, method Method) {
	t.Helper()
	if res.At == nil {
		t.Fatalf("want %s, got nil schedule (method %s)", want, res.Method)
	}
	if !res.At.Equal(want) {
		t.Fatalf("want %s, got %s", want, res.At)
	}
	if res.Method != method {
		t.Fatalf("want method %s, got %s", method, res.Method)
	}
}

func TestNextWeekdayWithTime(t *testing.T) {
	res := newResolver().Resolve("Please schedule a review meeting next Tuesday at 3 PM", anchor, model.TaskMeeting)
	wantAt(t, res, time.Date(2025, 9, 9, 15, 0, 0, 0, time.UTC), MethodWeekday)
}

func TestBareWeekdayGetsBusinessHour(t *testing.T) {
	res := newResolver().Resolve("let's talk friday", anchor, model.TaskMeeting)
	wantAt(t, res, time.Date(2025, 9, 5, 9, 0, 0, 0, time.UTC), MethodWeekday)
}

func TestAnchorWeekdayLandsAWeekOut(t *testing.T) {
	res := newResolver().Resolve("see you tuesday", anchor, model.TaskMeeting)
	wantAt(t, res, time.Date(2025, 9, 9, 9, 0, 0, 0, time.UTC), MethodWeekday)
}

func TestExplicitTimestampPassesThrough(t *testing.T) {
	res := newResolver().Resolve("due by 2025-09-05 14:30 sharp", anchor, model.TaskReminder)
	wantAt(t, res, time.Date(2025, 9, 5, 14, 30, 0, 0, time.UTC), MethodExplicit)
}

func TestExplicitDateOnlyGetsBusinessHour(t *testing.T) {
	res := newResolver().Resolve("due 2025-09-05", anchor, model.TaskReminder)
	wantAt(t, res, time.Date(2025, 9, 5, 9, 0, 0, 0, time.UTC), MethodExplicit)
}

func TestSlashedDate(t *testing.T) {
	res := newResolver().Resolve("invoice due 09/05/2025", anchor, model.TaskReminder)
	wantAt(t, res, time.Date(2025, 9, 5, 9, 0, 0, 0, time.UTC), MethodExplicit)
}

func TestMonthNameThisYear(t *testing.T) {
	res := newResolver().Resolve("deliver on Sep 5 at 2pm", anchor, model.TaskReminder)
	wantAt(t, res, time.Date(2025, 9, 5, 14, 0, 0, 0, time.UTC), MethodExplicit)
}

func TestMonthNameRollsToNextYear(t *testing.T) {
	res := newResolver().Resolve("plan for jan 5", anchor, model.TaskReminder)
	wantAt(t, res, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), MethodExplicit)
}

func TestRelativeOffsets(t *testing.T) {
	cases := []struct {
		text string
		want time.Time
	}{
		{"ping me in 30 minutes", anchor.Add(30 * time.Minute)},
		{"check in 2 hours", anchor.Add(2 * time.Hour)},
		{"revisit in 3 days", anchor.AddDate(0, 0, 3)},
		{"ship in 1 week", anchor.AddDate(0, 0, 7)},
	}
	r := newResolver()
	for _, c := range cases {
		res := r.Resolve(c.text, anchor, model.TaskReminder)
		wantAt(t, res, c.want, MethodRelative)
	}
}

func TestTomorrowDefaultsToBusinessHour(t *testing.T) {
	res := newResolver().Resolve("let's do it tomorrow", anchor, model.TaskMeeting)
	wantAt(t, res, time.Date(2025, 9, 3, 9, 0, 0, 0, time.UTC), MethodRelative)
}

func TestTomorrowWithExplicitTime(t *testing.T) {
	res := newResolver().Resolve("tomorrow at 8am works", anchor, model.TaskMeeting)
	wantAt(t, res, time.Date(2025, 9, 3, 8, 0, 0, 0, time.UTC), MethodRelative)
}

func TestTonight(t *testing.T) {
	res := newResolver().Resolve("let's sync tonight", anchor, model.TaskMeeting)
	wantAt(t, res, time.Date(2025, 9, 2, 19, 0, 0, 0, time.UTC), MethodRelative)
}

func TestBareTimeSameDay(t *testing.T) {
	res := newResolver().Resolve("call me at 3 PM", anchor, model.TaskMeeting)
	wantAt(t, res, time.Date(2025, 9, 2, 15, 0, 0, 0, time.UTC), MethodRelative)
}

func TestBareTimeAlreadyPastMovesToNextDay(t *testing.T) {
	// anchor is 10:00, so 9am has already passed
	res := newResolver().Resolve("standup at 9am", anchor, model.TaskMeeting)
	wantAt(t, res, time.Date(2025, 9, 3, 9, 0, 0, 0, time.UTC), MethodRelative)
}

func TestColonTimeWithoutMeridiemReadsLiteral(t *testing.T) {
	// 07:30 is before the 10:00 anchor, so it lands on the next day
	res := newResolver().Resolve("shift starts at 7:30", anchor, model.TaskMeeting)
	wantAt(t, res, time.Date(2025, 9, 3, 7, 30, 0, 0, time.UTC), MethodRelative)
}

func TestBareHourWithoutMarkerIsNotASchedule(t *testing.T) {
	r := newResolver()
	for _, text := range []string{
		"can you look at 2 invoices and approve them?",
		"the team is good at 3 things",
		"we are at 5 percent of the budget",
	} {
		res := r.Resolve(text, anchor, model.TaskMeeting)
		if res.At != nil {
			t.Fatalf("%q: want nil schedule, got %s", text, res.At)
		}
		if res.Method != MethodNone {
			t.Fatalf("%q: want method none, got %s", text, res.Method)
		}
	}
}

func TestBareHourKeepsReminderDefault(t *testing.T) {
	res := newResolver().Resolve("look at 2 invoices for me", anchor, model.TaskReminder)
	wantAt(t, res, anchor.Add(24*time.Hour), MethodDefaulted)
}

func TestReminderDefaultsToOffset(t *testing.T) {
	res := newResolver().Resolve("need the invoice", anchor, model.TaskReminder)
	wantAt(t, res, anchor.Add(24*time.Hour), MethodDefaulted)
	if res.Warning != nil {
		t.Fatalf("no warning expected: %v", res.Warning)
	}
}

func TestMeetingWithoutExpressionStaysUnscheduled(t *testing.T) {
	res := newResolver().Resolve("we should talk sometime", anchor, model.TaskMeeting)
	if res.At != nil {
		t.Fatalf("want nil schedule, got %s", res.At)
	}
	if res.Method != MethodNone {
		t.Fatalf("want method none, got %s", res.Method)
	}
}

func TestUnparseableExpressionWarnsAndFallsBack(t *testing.T) {
	res := newResolver().Resolve("due 99/99/2025", anchor, model.TaskMeeting)
	if res.At != nil {
		t.Fatalf("unparseable expression must not schedule, got %s", res.At)
	}
	if !errors.Is(res.Warning, ErrUnresolved) {
		t.Fatalf("want ErrUnresolved warning, got %v", res.Warning)
	}
}

func TestUnparseableWarningKeepsReminderDefault(t *testing.T) {
	res := newResolver().Resolve("due 99/99/2025", anchor, model.TaskReminder)
	wantAt(t, res, anchor.Add(24*time.Hour), MethodDefaulted)
	if !errors.Is(res.Warning, ErrUnresolved) {
		t.Fatalf("warning must be kept on the defaulted path, got %v", res.Warning)
	}
}

func TestImpossibleCalendarDateWarns(t *testing.T) {
	res := newResolver().Resolve("finish by feb 30", anchor, model.TaskMeeting)
	if res.At != nil {
		t.Fatalf("rolled-over date must not schedule, got %s", res.At)
	}
	if !errors.Is(res.Warning, ErrUnresolved) {
		t.Fatalf("want ErrUnresolved, got %v", res.Warning)
	}
}

func TestResolutionIgnoresWallClock(t *testing.T) {
	r := newResolver()
	first := r.Resolve("next friday at 2pm", anchor, model.TaskMeeting)
	time.Sleep(5 * time.Millisecond)
	second := r.Resolve("next friday at 2pm", anchor, model.TaskMeeting)
	if !first.At.Equal(*second.At) {
		t.Fatalf("resolution drifted with wall clock: %s vs %s", first.At, second.At)
	}
}

func TestAnchorZoneIsRespected(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	local := time.Date(2025, 9, 2, 10, 0, 0, 0, zone)
	res := newResolver().Resolve("tomorrow", local, model.TaskMeeting)
	want := time.Date(2025, 9, 3, 9, 0, 0, 0, zone)
	if !res.At.Equal(want) {
		t.Fatalf("want %s, got %s", want, res.At)
	}
}
