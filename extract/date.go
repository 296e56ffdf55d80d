package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02 15:04:05Z07:00",
}

// localLayouts carry no zone and are read in the display location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2.1.2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
}

var months = map[string]time.Month{
	"ocak": time.January, "şubat": time.February, "subat": time.February,
	"mart": time.March, "nisan": time.April, "mayıs": time.May, "mayis": time.May,
	"haziran": time.June, "temmuz": time.July, "ağustos": time.August, "agustos": time.August,
	"eylül": time.September, "eylul": time.September, "ekim": time.October,
	"kasım": time.November, "kasim": time.November, "aralık": time.December, "aralik": time.December,

	"january": time.January, "february": time.February, "march": time.March, "april": time.April,
	"may": time.May, "june": time.June, "july": time.July, "august": time.August,
	"september": time.September, "october": time.October, "november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"jun": time.June, "jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var (
	// 2 Eylül 2025 15:44, 2 Eylül 15:44, 2 Eylül 2025 Salı 15:44:59
	monthNamePattern = regexp.MustCompile(`^(\d{1,2})\s+(\p{L}+)(?:\s+(\d{4}))?(?:\s+\p{L}+)?(?:\s+(\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)

	relativePattern = regexp.MustCompile(`^(\d+)\s*(saniye|sn|dakika|dk|saat|gün|gun|hafta|ay|yıl|yil|seconds?|secs?|minutes?|mins?|hours?|days?|weeks?|months?|years?)\s+(?:önce|once|ago)$`)
	dayWordPattern  = regexp.MustCompile(`^(bugün|bugun|today|dün|dun|yesterday)(?:\s*,?\s*(?:saat\s+)?(\d{1,2}):(\d{2}))?$`)

	leadingWeekday    = regexp.MustCompile(`^\p{L}+\.?,\s*(\d.*)$`)
	dateTimeSeparator = regexp.MustCompile(`(\d{4})\s*[-–,|]\s*(\d{1,2}:\d{2})`)
	spaceRun          = regexp.MustCompile(`\s+`)
)

// ParseDate reads a date written the way news pages write them. Numeric dates
// are day first. A date without a year or a relative phrase resolves to the
// most recent past occurrence relative to now. Zone-less values are read in loc
// and every result is expressed in loc.
func ParseDate(s string, loc *time.Location, now time.Time) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	s = normalizeDateText(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseDateText(s, loc, now); ok {
		return t, true
	}
	if m := leadingWeekday.FindStringSubmatch(s); m != nil {
		return parseDateText(m[1], loc, now)
	}
	return time.Time{}, false
}

func parseDateText(s string, loc *time.Location, now time.Time) (time.Time, bool) {

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, strings.Replace(s, " ", "T", 1)); err == nil {
			return t.In(loc), true
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	// Turkish casing maps an ASCII I to a dotless ı, which English month names
	// and unaccented spellings like NISAN do not survive.
	for _, lower := range []string{strings.ToLowerSpecial(unicode.TurkishCase, s), strings.ToLower(s)} {
		if t, ok := parseMonthName(lower, loc, now); ok {
			return t, true
		}
		if t, ok := parseRelative(lower, loc, now); ok {
			return t, true
		}
	}

	if t, err := dateparse.ParseIn(s, loc, dateparse.PreferMonthFirst(false)); err == nil {
		return t.In(loc), true
	}
	return time.Time{}, false
}

func normalizeDateText(s string) string {
	s = strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
	s = strings.TrimSuffix(s, ".")
	return dateTimeSeparator.ReplaceAllString(s, "$1 $2")
}

func parseMonthName(s string, loc *time.Location, now time.Time) (time.Time, bool) {
	m := monthNamePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := months[m[2]]
	if !ok {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	sec, _ := strconv.Atoi(m[6])
	if hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}

	if m[3] != "" {
		year, _ := strconv.Atoi(m[3])
		t := time.Date(year, month, day, hour, minute, sec, 0, loc)
		return t, t.Day() == day
	}

	local := now.In(loc)
	t := time.Date(local.Year(), month, day, hour, minute, sec, 0, loc)
	if t.Day() != day {
		return time.Time{}, false
	}
	if t.After(local) {
		t = time.Date(local.Year()-1, month, day, hour, minute, sec, 0, loc)
	}
	return t, true
}

func parseRelative(s string, loc *time.Location, now time.Time) (time.Time, bool) {
	local := now.In(loc)

	switch s {
	case "şimdi", "simdi", "az önce", "az once", "just now", "now":
		return local, true
	}

	if m := dayWordPattern.FindStringSubmatch(s); m != nil {
		day := local
		if strings.HasPrefix(m[1], "d") || m[1] == "yesterday" {
			day = local.AddDate(0, 0, -1)
		}
		if m[2] == "" {
			return day, true
		}
		hour, _ := strconv.Atoi(m[2])
		minute, _ := strconv.Atoi(m[3])
		if hour > 23 || minute > 59 {
			return time.Time{}, false
		}
		t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
		if t.After(local) {
			t = t.AddDate(0, 0, -1)
		}
		return t, true
	}

	m := relativePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}

	switch unit := m[2]; {
	case unit == "saniye" || unit == "sn" || strings.HasPrefix(unit, "sec"):
		return local.Add(-time.Duration(n) * time.Second), true
	case unit == "dakika" || unit == "dk" || strings.HasPrefix(unit, "min"):
		return local.Add(-time.Duration(n) * time.Minute), true
	case unit == "saat" || strings.HasPrefix(unit, "hour"):
		return local.Add(-time.Duration(n) * time.Hour), true
	case unit == "gün" || unit == "gun" || strings.HasPrefix(unit, "day"):
		return local.AddDate(0, 0, -n), true
	case unit == "hafta" || strings.HasPrefix(unit, "week"):
		return local.AddDate(0, 0, -7*n), true
	case unit == "ay" || strings.HasPrefix(unit, "month"):
		return local.AddDate(0, -n, 0), true
	default:
		return local.AddDate(-n, 0, 0), true
	}
}
