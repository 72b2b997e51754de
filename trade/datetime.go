package trade

import (
	"strings"
	"time"
)

// DatetimeParser turns natural language pickup and delivery times into
// timestamps. It understands a day keyword (today, tomorrow, next week)
// combined with a time of day (morning, afternoon, evening, midnight) and
// a few explicit layouts. Anything else is not an error: Parse returns nil.
type DatetimeParser struct {
	// Now returns the reference time; nil means time.Now.
	Now func() time.Time
}

var explicitLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var timesOfDay = []struct {
	keyword string
	hour    int
}{
	{"morning", 9},
	{"afternoon", 14},
	{"evening", 19},
	{"midnight", 24},
}

// Parse returns the timestamp described by nl, or nil if it cannot be parsed.
func (p DatetimeParser) Parse(nl string) *time.Time {
	text := strings.ToLower(strings.TrimSpace(nl))
	if text == "" {
		return nil
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	ref := now()

	for _, layout := range explicitLayouts {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(nl), ref.Location()); err == nil {
			return &t
		}
	}

	days, dayFound := dayOffset(text)
	hour, hourFound := timeOfDay(text)
	if !dayFound && !hourFound {
		return nil
	}

	day := ref.AddDate(0, 0, days)
	var t time.Time
	switch {
	case hourFound:
		// hour 24 normalizes to 00:00 of the following day.
		t = time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, ref.Location())
	case days > 0:
		t = time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, ref.Location())
	default:
		t = ref
	}
	return &t
}

// Format renders a parsed timestamp for storage, or nil when t is nil.
func Format(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func dayOffset(text string) (int, bool) {
	switch {
	case strings.Contains(text, "tomorrow"):
		return 1, true
	case strings.Contains(text, "next week"):
		return 7, true
	case strings.Contains(text, "today"), strings.Contains(text, "tonight"):
		return 0, true
	}
	return 0, false
}

func timeOfDay(text string) (int, bool) {
	for _, tod := range timesOfDay {
		if strings.Contains(text, tod.keyword) {
			return tod.hour, true
		}
	}
	if strings.Contains(text, "tonight") {
		return 19, true
	}
	return 0, false
}
