package plugin

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Layouts whose input carries no offset are read in the local zone, except
// ISO date-only values which are UTC. RFC 1123 values with a zone name
// ("Mon, 15 Jan 2024 10:30:00 GMT") go through zoneOffsets rather than
// time.RFC1123, which would read any unknown name as UTC.
var (
	offsetLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
		"2006-01-02T15:04:05.999999999-0700",
		time.RFC1123Z,
	}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"Mon, 02 Jan 2006 15:04:05",
		"01/02/2006 15:04:05",
		"01/02/2006",
	}
	dateLayouts = []string{
		"2006-01-02",
		"2006-01",
		"2006",
	}
)

// zoneOffsets are the zone names accepted after a date-time, in seconds east
// of UTC.
var zoneOffsets = map[string]int{
	"UT":  0,
	"UTC": 0,
	"GMT": 0,
	"Z":   0,
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

// parseDate converts a TestNG timestamp into epoch milliseconds. When the
// whole string does not parse, the text before the first space is tried on
// its own, which recovers values such as "2024-01-15T10:30:00 IST". It
// returns 0 when neither attempt succeeds.
func parseDate(value string) int64 {
	if t, ok := parseTimestamp(value); ok {
		return t.UnixMilli()
	}
	if head, _, found := strings.Cut(value, " "); found {
		if t, ok := parseTimestamp(head); ok {
			return t.UnixMilli()
		}
	}
	logrus.WithField("Date", value).Warn("Failed to parse date")
	return 0
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	if i := strings.LastIndexByte(value, ' '); i > 0 {
		if offset, ok := zoneOffsets[strings.ToUpper(value[i+1:])]; ok {
			loc := time.FixedZone(value[i+1:], offset)
			for _, layout := range localLayouts {
				if t, err := time.ParseInLocation(layout, value[:i], loc); err == nil {
					return t, true
				}
			}
		}
	}
	return time.Time{}, false
}
