package registry

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// windowPattern matches day based windows like "7d", "2w", "1y".
var windowPattern = regexp.MustCompile(`^(\d+)([dwy])$`)

// ParseWindow parses a recency window.
//
// Supported forms:
//   - d, w, y suffixes: days, weeks (7 days), years (365 days)
//   - anything time.ParseDuration accepts, e.g. "6h" or "90m"
//   - "0" disables the window
func ParseWindow(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("window string is empty")
	}
	if s == "0" {
		return 0, nil
	}

	if matches := windowPattern.FindStringSubmatch(s); matches != nil {
		num, err := strconv.Atoi(matches[1])
		if err != nil {
			return 0, fmt.Errorf("invalid number in window: %s", matches[1])
		}

		day := 24 * time.Hour
		switch matches[2] {
		case "d":
			return time.Duration(num) * day, nil
		case "w":
			return time.Duration(num) * 7 * day, nil
		default:
			return time.Duration(num) * 365 * day, nil
		}
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid window format: %s (expected e.g. 6h, 7d, 2w)", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("window must not be negative: %s", s)
	}
	return d, nil
}

// FormatWindow renders a window in the shortest form ParseWindow reads back.
func FormatWindow(d time.Duration) string {
	day := 24 * time.Hour
	switch {
	case d == 0:
		return "0"
	case d%(7*day) == 0:
		return strconv.FormatInt(int64(d/(7*day)), 10) + "w"
	case d%day == 0:
		return strconv.FormatInt(int64(d/day), 10) + "d"
	default:
		return d.String()
	}
}
