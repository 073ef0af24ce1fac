package calendar

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	ISODate       = "2006-01-02"
	DisplayLayout = "Monday, January 2, 2006"
)

// isoYearWindow is how many years past the current one a bare ISO date may
// name before it is treated as an unrelated number.
const isoYearWindow = 1

var months = map[string]time.Month{
	"january":   time.January,
	"jan":       time.January,
	"february":  time.February,
	"feb":       time.February,
	"march":     time.March,
	"mar":       time.March,
	"april":     time.April,
	"apr":       time.April,
	"may":       time.May,
	"june":      time.June,
	"jun":       time.June,
	"july":      time.July,
	"jul":       time.July,
	"august":    time.August,
	"aug":       time.August,
	"september": time.September,
	"sept":      time.September,
	"sep":       time.September,
	"october":   time.October,
	"oct":       time.October,
	"november":  time.November,
	"nov":       time.November,
	"december":  time.December,
	"dec":       time.December,
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Full names precede abbreviations and "sept" precedes "sep" so the leftmost
// alternative consumes the longest spelling.
const monthAlt = `january|february|march|april|may|june|july|august|september|october|november|december|sept|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec`

// datePattern pairs a regular expression with the function that turns one of
// its matches into a calendar date. ok=false discards the candidate.
type datePattern struct {
	name    string
	re      *regexp.Regexp
	extract func(m []string, ref, today time.Time) (time.Time, bool)
}

var datePatterns = []datePattern{
	{
		name: "on-month-day",
		re:   regexp.MustCompile(`(?i)\bon\s+(` + monthAlt + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`),
		extract: func(m []string, ref, _ time.Time) (time.Time, bool) {
			return monthDay(m[1], m[2], "", ref)
		},
	},
	{
		name: "month-day-year",
		re:   regexp.MustCompile(`(?i)\b(` + monthAlt + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`),
		extract: func(m []string, ref, _ time.Time) (time.Time, bool) {
			return monthDay(m[1], m[2], m[3], ref)
		},
	},
	{
		name: "relative-weekday",
		re:   regexp.MustCompile(`(?i)\b(?:next|this|upcoming)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
		extract: func(m []string, ref, _ time.Time) (time.Time, bool) {
			target, ok := weekdays[strings.ToLower(m[1])]
			if !ok {
				return time.Time{}, false
			}
			return nextWeekday(ref, target), true
		},
	},
	{
		name: "iso-date",
		re:   regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`),
		extract: func(m []string, ref, today time.Time) (time.Time, bool) {
			year, _ := strconv.Atoi(m[1])
			if year < today.Year() || year > today.Year()+isoYearWindow {
				return time.Time{}, false
			}
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])
			if month < 1 || month > 12 {
				return time.Time{}, false
			}
			return civilDate(year, time.Month(month), day, ref.Location())
		},
	},
}

// Extractor finds future calendar dates in free text. Now supplies the floor
// for "today"; nil means the wall clock.
type Extractor struct {
	Now func() time.Time
}

// ExtractDates runs the default extractor against the wall clock.
func ExtractDates(text string, ref time.Time) []time.Time {
	return Extractor{}.Extract(text, ref)
}

// Extract returns every date expression in text that resolves, relative to
// ref, to a day on or after today. Results are de-duplicated in order of
// discovery. Past candidates are dropped, never rolled forward.
func (x Extractor) Extract(text string, ref time.Time) []time.Time {
	now := time.Now()
	if x.Now != nil {
		now = x.Now()
	}
	loc := now.Location()
	today := midnight(now)
	ref = midnight(ref.In(loc))

	seen := make(map[string]struct{})
	var out []time.Time
	for _, p := range datePatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			d, ok := p.extract(m, ref, today)
			if !ok || d.Before(today) {
				continue
			}
			key := d.Format(ISODate)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

func monthDay(monthName, dayStr, yearStr string, ref time.Time) (time.Time, bool) {
	month, ok := months[strings.ToLower(monthName)]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, false
	}
	year := ref.Year()
	if yearStr != "" {
		if year, err = strconv.Atoi(yearStr); err != nil {
			return time.Time{}, false
		}
	}
	return civilDate(year, month, day, ref.Location())
}

// civilDate builds midnight of year-month-day, rejecting dates that
// time.Date would silently normalise (Feb 30 -> Mar 2).
func civilDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// nextWeekday returns the first day strictly after ref falling on target.
func nextWeekday(ref time.Time, target time.Weekday) time.Time {
	days := (int(target) - int(ref.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return ref.AddDate(0, 0, days)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
