package utils

import (
	"fmt"
	"strings"
	"time"
)

// SentinelTime replaces open/close timestamps that cannot be parsed. It sits far
// before any real trade so it is easy to filter out.
var SentinelTime = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// tradeTimeLayouts are tried in order; the first one that parses wins.
var tradeTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
}

// ParseTradeTime parses the timestamp formats seen in broker exports.
// Values without a zone are read as UTC.
func ParseTradeTime(value string) (time.Time, error) {
	v := strings.TrimSpace(strings.Trim(strings.TrimSpace(value), `"`))
	if v == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range tradeTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format %q", value)
}

// IsSentinel reports whether t is the substitute for an unparseable timestamp.
func IsSentinel(t time.Time) bool {
	return t.Equal(SentinelTime)
}
