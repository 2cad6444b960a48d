// Package temporal resolves natural-language time expressions into concrete
// schedules. Every resolution is anchored to the message's own timestamp,
// never the clock at resolution time, so re-running later yields the same
// schedule.
package temporal

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"inbrief/internal/model"
)

// ErrUnresolved reports an expression that looked temporal but could not be
// parsed. It is a warning: resolution proceeds with the no-expression
// policy instead of failing task synthesis.
var ErrUnresolved = errors.New("temporal expression unresolved")

// Method records how a schedule was concluded.
type Method string

const (
	MethodExplicit  Method = "explicit"  // absolute date/time in the text
	MethodRelative  Method = "relative"  // offset from the anchor
	MethodWeekday   Method = "weekday"   // named weekday
	MethodDefaulted Method = "defaulted" // task-type default offset
	MethodNone      Method = "none"      // nothing found, no default applies
)

// Resolution is the outcome for one message. At is nil for MethodNone.
// Warning is non-nil when an expression was recognized but unparseable.
type Resolution struct {
	At         *time.Time
	Method     Method
	Expression string
	Warning    error
}

// Resolver applies a fixed recognizer order: explicit timestamps, relative
// offsets, named weekdays, bare times. Date-only expressions get the
// start-of-business default time.
type Resolver struct {
	businessHour   int
	reminderOffset time.Duration
}

func NewResolver(businessHour int, reminderOffset time.Duration) *Resolver {
	return &Resolver{businessHour: businessHour, reminderOffset: reminderOffset}
}

var (
	isoRx      = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}(?:[Tt ]\d{2}:\d{2}(?::\d{2})?(?:[Zz]|[+-]\d{2}:?\d{2})?)?\b`)
	slashRx    = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	monthRx    = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	relativeRx = regexp.MustCompile(`\bin\s+(\d+)\s+(minute|hour|day|week)s?\b`)
	weekdayRx  = regexp.MustCompile(`\b(?:(next|this)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)

	atTimeRx   = regexp.MustCompile(`\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	meridiemRx = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clockRx    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday, "sunday": time.Sunday,
}

// Resolve scans text for a temporal expression and resolves it against
// anchor. When nothing is found, reminders default to anchor plus the
// configured offset; other task types stay unscheduled.
func (r *Resolver) Resolve(text string, anchor time.Time, taskType model.TaskType) Resolution {
	lower := strings.ToLower(text)
	var warning error

	if res, warn := r.explicit(text, lower, anchor); res != nil {
		return *res
	} else if warn != nil {
		warning = warn
	}
	if res := r.relative(lower, anchor); res != nil {
		return *res
	}
	if res := r.weekday(lower, anchor); res != nil {
		return *res
	}
	if res := r.bareTime(lower, anchor); res != nil {
		return *res
	}

	if taskType == model.TaskReminder {
		at := anchor.Add(r.reminderOffset)
		return Resolution{At: &at, Method: MethodDefaulted, Warning: warning}
	}
	return Resolution{Method: MethodNone, Warning: warning}
}

// explicit handles absolute dates: ISO, slashed and month-name forms. A
// candidate that fails to parse is reported as a warning so the remaining
// recognizers still get a chance.
func (r *Resolver) explicit(text, lower string, anchor time.Time) (*Resolution, error) {
	candidate := isoRx.FindString(text)
	if candidate == "" {
		candidate = slashRx.FindString(text)
	}
	if candidate != "" {
		parsed, err := dateparse.ParseIn(candidate, anchor.Location())
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnresolved, candidate)
		}
		at := parsed
		if !strings.Contains(candidate, ":") {
			at = r.withTimeOfDay(parsed, lower, anchor)
		}
		return &Resolution{At: &at, Method: MethodExplicit, Expression: candidate}, nil
	}

	if m := monthRx.FindStringSubmatch(lower); m != nil {
		month := months[m[1][:3]]
		day, err := strconv.Atoi(m[2])
		if err != nil || day < 1 || day > 31 {
			return nil, fmt.Errorf("%w: %q", ErrUnresolved, m[0])
		}
		date := time.Date(anchor.Year(), month, day, 0, 0, 0, 0, anchor.Location())
		if date.Month() != month {
			// e.g. "feb 30" rolled over into march
			return nil, fmt.Errorf("%w: %q", ErrUnresolved, m[0])
		}
		ay, am, ad := anchor.Date()
		anchorDay := time.Date(ay, am, ad, 0, 0, 0, 0, anchor.Location())
		if date.Before(anchorDay) {
			date = date.AddDate(1, 0, 0)
		}
		at := r.withTimeOfDay(date, lower, anchor)
		return &Resolution{At: &at, Method: MethodExplicit, Expression: m[0]}, nil
	}
	return nil, nil
}

func (r *Resolver) relative(lower string, anchor time.Time) *Resolution {
	if m := relativeRx.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		var at time.Time
		switch m[2] {
		case "minute":
			at = anchor.Add(time.Duration(n) * time.Minute)
		case "hour":
			at = anchor.Add(time.Duration(n) * time.Hour)
		case "day":
			at = anchor.AddDate(0, 0, n)
		case "week":
			at = anchor.AddDate(0, 0, 7*n)
		}
		return &Resolution{At: &at, Method: MethodRelative, Expression: m[0]}
	}
	if strings.Contains(lower, "tomorrow") {
		at := r.withTimeOfDay(anchor.AddDate(0, 0, 1), lower, anchor)
		return &Resolution{At: &at, Method: MethodRelative, Expression: "tomorrow"}
	}
	if strings.Contains(lower, "tonight") {
		y, mo, d := anchor.Date()
		at := time.Date(y, mo, d, 19, 0, 0, 0, anchor.Location())
		return &Resolution{At: &at, Method: MethodRelative, Expression: "tonight"}
	}
	return nil
}

// weekday resolves "next tuesday at 3 pm" style expressions: the first
// matching weekday strictly after the anchor's date, so naming the
// anchor's own weekday lands a week out.
func (r *Resolver) weekday(lower string, anchor time.Time) *Resolution {
	m := weekdayRx.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	target := weekdays[m[2]]
	ahead := (int(target) - int(anchor.Weekday()) + 6) % 7
	date := anchor.AddDate(0, 0, ahead+1)
	at := r.withTimeOfDay(date, lower, anchor)
	return &Resolution{At: &at, Method: MethodWeekday, Expression: strings.TrimSpace(m[0])}
}

// bareTime resolves a lone "at 3pm" / "at 15:00" against the anchor date;
// once that instant is already past the anchor it moves to the next day.
func (r *Resolver) bareTime(lower string, anchor time.Time) *Resolution {
	hour, minute, expr, ok := extractTime(lower)
	if !ok {
		return nil
	}
	y, mo, d := anchor.Date()
	at := time.Date(y, mo, d, hour, minute, 0, 0, anchor.Location())
	if !at.After(anchor) {
		at = at.AddDate(0, 0, 1)
	}
	return &Resolution{At: &at, Method: MethodRelative, Expression: expr}
}

// withTimeOfDay places a resolved date at the time found in the text, or at
// start of business when the expression carried no time.
func (r *Resolver) withTimeOfDay(date time.Time, lower string, anchor time.Time) time.Time {
	y, mo, d := date.Date()
	if hour, minute, _, ok := extractTime(lower); ok {
		return time.Date(y, mo, d, hour, minute, 0, 0, anchor.Location())
	}
	return time.Date(y, mo, d, r.businessHour, 0, 0, 0, anchor.Location())
}

// extractTime finds a time-of-day mention. An hour only counts as one with
// a meridiem or explicit minutes attached; a bare "at N" ("at 2 invoices",
// "at 5 percent") is not a time.
func extractTime(lower string) (hour, minute int, expr string, ok bool) {
	m := atTimeRx.FindStringSubmatch(lower)
	if m == nil {
		m = meridiemRx.FindStringSubmatch(lower)
	}
	if m == nil {
		if c := clockRx.FindStringSubmatch(lower); c != nil {
			h, _ := strconv.Atoi(c[1])
			min, _ := strconv.Atoi(c[2])
			if h > 23 || min > 59 {
				return 0, 0, "", false
			}
			return h, min, c[0], true
		}
		return 0, 0, "", false
	}

	h, _ := strconv.Atoi(m[1])
	minute = 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch m[3] {
	case "pm":
		if h < 12 {
			h += 12
		}
	case "am":
		if h == 12 {
			h = 0
		}
	}
	if h > 23 || minute > 59 {
		return 0, 0, "", false
	}
	return h, minute, strings.TrimSpace(m[0]), true
}
