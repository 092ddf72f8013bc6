package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDateRe   = regexp.MustCompile(`\b(20\d{2})-(\d{1,2})-(\d{1,2})\b`)
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?\b`)
	monthDateRe = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(20\d{2})\b)?`)
	tickerDate  = regexp.MustCompile(`^(\d{2})([A-Z]{3})(\d{2})`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November,
	"dec": time.December,
}

// ExtractDate finds a calendar date in text. Dates without a year take the
// year that puts them closest to ref. Returns nil when nothing parses.
func ExtractDate(text string, ref time.Time) *time.Time {
	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return makeDate(y, time.Month(mo), d)
	}
	if m := monthDateRe.FindStringSubmatch(text); m != nil {
		mo := months[strings.ToLower(m[1])]
		d, _ := strconv.Atoi(m[2])
		if m[3] != "" {
			y, _ := strconv.Atoi(m[3])
			return makeDate(y, mo, d)
		}
		return nearestYear(mo, d, ref)
	}
	if m := slashDateRe.FindStringSubmatch(text); m != nil {
		mo, _ := strconv.Atoi(m[1])
		d, _ := strconv.Atoi(m[2])
		if m[3] != "" {
			y, _ := strconv.Atoi(m[3])
			if y < 100 {
				y += 2000
			}
			return makeDate(y, time.Month(mo), d)
		}
		return nearestYear(time.Month(mo), d, ref)
	}
	return nil
}

// StripDates removes every date expression ExtractDate understands.
func StripDates(text string) string {
	text = isoDateRe.ReplaceAllString(text, " ")
	text = monthDateRe.ReplaceAllString(text, " ")
	return slashDateRe.ReplaceAllString(text, " ")
}

// parseTickerDate reads the "26JAN12" prefix of a Kalshi event segment and
// returns the date plus whatever follows it.
func parseTickerDate(seg string) (*time.Time, string) {
	m := tickerDate.FindStringSubmatch(seg)
	if m == nil {
		return nil, seg
	}
	y, _ := strconv.Atoi(m[1])
	mo, ok := months[strings.ToLower(m[2])]
	if !ok {
		return nil, seg
	}
	d, _ := strconv.Atoi(m[3])
	return makeDate(2000+y, mo, d), seg[len(m[0]):]
}

// makeDate builds a UTC midnight date, rejecting out-of-range components
// instead of letting time.Date roll them over.
func makeDate(y int, mo time.Month, d int) *time.Time {
	if mo < time.January || mo > time.December || d < 1 || d > 31 {
		return nil
	}
	t := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	if t.Month() != mo || t.Day() != d {
		return nil
	}
	return &t
}

func nearestYear(mo time.Month, d int, ref time.Time) *time.Time {
	if ref.IsZero() {
		ref = time.Now()
	}
	var best *time.Time
	var bestGap time.Duration
	for _, y := range []int{ref.Year() - 1, ref.Year(), ref.Year() + 1} {
		t := makeDate(y, mo, d)
		if t == nil {
			continue
		}
		gap := t.Sub(ref)
		if gap < 0 {
			gap = -gap
		}
		if best == nil || gap < bestGap {
			best, bestGap = t, gap
		}
	}
	return best
}

// DayOf truncates t to its UTC calendar date.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysApart returns the absolute number of calendar days between a and b.
func DaysApart(a, b time.Time) int {
	d := DayOf(a).Sub(DayOf(b)) / (24 * time.Hour)
	if d < 0 {
		d = -d
	}
	return int(d)
}
