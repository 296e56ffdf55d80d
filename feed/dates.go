package feed

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date strategy names, reported as FeedItem.DateSource.
const (
	DateFromFeed = "feed"
	DateFromText = "text"
	DateFromGUID = "guid"
	DateFromLink = "link"
	DateFromNow  = "now"
)

var (
	guidStampPattern = regexp.MustCompile(`(?:19|20)\d{10}`)
	linkDatePattern  = regexp.MustCompile(`((?:19|20)\d{2})[-./](\d{2})[-./](\d{2})`)
)

// zonelessLayouts are RFC 822 shaped layouts without an offset. Times parsed
// with them carry no zone information.
var zonelessLayouts = []string{
	"Mon, _2 Jan 2006 15:04:05",
	"Mon, _2 Jan 2006 15:04",
	"_2 Jan 2006 15:04:05",
	"_2 Jan 2006 15:04",
	"Mon, _2 Jan 06 15:04:05",
	"_2 Jan 06 15:04:05",
}

// stamp is a candidate instant. A floating stamp had no zone information and
// its wall clock belongs to the display location.
type stamp struct {
	t        time.Time
	floating bool
}

type dateStrategy struct {
	name string
	find func(e *Entry, now time.Time) (stamp, bool)
}

// dateStrategies run in order; the first match wins.
var dateStrategies = []dateStrategy{
	{DateFromFeed, fromParsedFields},
	{DateFromText, fromDateText},
	{DateFromGUID, fromGUID},
	{DateFromLink, fromLink},
}

// Normalizer turns the unreliable date fields of an entry into one instant in
// the display location. It never fails.
type Normalizer struct {
	Location *time.Location
	Now      func() time.Time
}

// NewNormalizer creates a Normalizer for loc using the wall clock.
func NewNormalizer(loc *time.Location) *Normalizer {
	return &Normalizer{Location: loc, Now: time.Now}
}

// Normalize returns the publish instant of e and the name of the strategy that produced it.
func (n *Normalizer) Normalize(e *Entry) (time.Time, string) {
	now := n.now()
	for _, s := range dateStrategies {
		if st, ok := s.find(e, now); ok {
			return n.localize(st), s.name
		}
	}
	return n.localize(stamp{t: now}), DateFromNow
}

func (n *Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

func (n *Normalizer) location() *time.Location {
	if n.Location != nil {
		return n.Location
	}
	return time.UTC
}

// localize anchors st in the display location after correcting misread centuries.
func (n *Normalizer) localize(st stamp) time.Time {
	loc := n.location()
	t := fixCentury(st.t)
	if st.floating {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	}
	return t.In(loc)
}

// fixCentury corrects two-digit years that were read into the wrong century.
// No feed carries news from before 1970.
func fixCentury(t time.Time) time.Time {
	switch y := t.Year(); {
	case y < 100:
		return t.AddDate(2000, 0, 0)
	case y < 1970:
		return t.AddDate(100, 0, 0)
	}
	return t
}

// fromParsedFields trusts the feed parser, except that it reads zoneless text
// as UTC; such text is re-read as display local time.
func fromParsedFields(e *Entry, _ time.Time) (stamp, bool) {
	for _, f := range []struct {
		raw    string
		parsed *time.Time
	}{{e.Published, e.PublishedParsed}, {e.Updated, e.UpdatedParsed}} {
		if f.parsed == nil || f.parsed.IsZero() {
			continue
		}
		if st, ok := parseRFC822(f.raw); ok && st.floating {
			return st, true
		}
		return stamp{t: f.parsed.UTC()}, true
	}
	return stamp{}, false
}

func fromDateText(e *Entry, _ time.Time) (stamp, bool) {
	for _, s := range []string{e.Published, e.Updated} {
		if st, ok := parseRFC822(s); ok {
			return st, true
		}
	}
	return stamp{}, false
}

// parseRFC822 reads an RFC 822/5322 date. A "-0000" offset or a missing
// offset means the zone is unknown.
func parseRFC822(s string) (stamp, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return stamp{}, false
	}

	if strings.HasSuffix(s, " -0000") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "-0000"))
	} else if t, err := mail.ParseDate(s); err == nil {
		return stamp{t: t}, true
	}

	for _, layout := range zonelessLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return stamp{t: t, floating: true}, true
		}
	}
	return stamp{}, false
}

func fromGUID(e *Entry, _ time.Time) (stamp, bool) {
	for _, m := range guidStampPattern.FindAllString(e.GUID, -1) {
		if t, err := time.ParseInLocation("200601021504", m, time.UTC); err == nil {
			return stamp{t: t}, true
		}
	}
	return stamp{}, false
}

// fromLink only knows the day, so the time of day is taken from now.
func fromLink(e *Entry, now time.Time) (stamp, bool) {
	for _, m := range linkDatePattern.FindAllStringSubmatch(e.Link, -1) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || day < 1 {
			continue
		}
		utc := now.UTC()
		t := time.Date(year, time.Month(month), day, utc.Hour(), utc.Minute(), 0, 0, time.UTC)
		if t.Day() != day {
			continue
		}
		return stamp{t: t}, true
	}
	return stamp{}, false
}
