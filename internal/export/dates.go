package export

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layouts seen across LinkedIn exports, tried in order.
var dateLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05 MST",
	"2006/01/02 15:04:05",
	"01/02/06, 03:04 PM",
	"1/2/06, 3:04 PM",
	"2006-01-02",
	time.RFC3339,
	"Jan 2006",
	"January 2006",
	"2006",
}

// ParseDate parses an export date. An empty value returns the zero time, which
// callers treat as undated. A value that matches no known layout returns now
// with fallback set.
func ParseDate(s string, now time.Time) (t time.Time, fallback bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), false
		}
	}
	if parsed, err := parseLoose(s); err == nil {
		return parsed.UTC(), false
	}
	return now.UTC(), true
}

func parseLoose(s string) (t time.Time, err error) {
	defer func() {
		// dateparse panics on a handful of pathological inputs
		if r := recover(); r != nil {
			err = errUnparseable
		}
	}()
	return dateparse.ParseIn(s, time.UTC)
}
