// Package temporal reads the timestamp encodings found in post rows and
// writes the single canonical one.
package temporal

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// ErrUnparseableTimestamp is returned when a value matches neither the
// ISO-8601 nor the legacy layout.
var ErrUnparseableTimestamp = errors.New("unparseable timestamp")

const (
	// StorageLayout is the only layout ever written.
	StorageLayout = "2006-01-02T15:04:05Z"

	// LegacyLayout is yyyy:MM:dd_HH:mm:ss, written without a zone.
	LegacyLayout = "2006:01:02_15:04:05"

	localLayout = "2006-01-02T15:04:05.999999999"
)

// Seconds are optional in ISO-8601 date-times.
var (
	offsetLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04Z07:00"}
	localLayouts  = []string{localLayout, "2006-01-02T15:04"}
)

// Parse is ParseIn with the local system zone.
func Parse(raw string) (time.Time, error) {
	return ParseIn(raw, time.Local)
}

// ParseIn tries ISO-8601 first and falls back to LegacyLayout interpreted in
// loc. The result is always in UTC.
func ParseIn(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	raw = strings.TrimSpace(raw)

	t, isoErr := parseISO(raw)
	if isoErr == nil {
		return t.UTC(), nil
	}

	t, legacyErr := time.ParseInLocation(LegacyLayout, raw, loc)
	if legacyErr == nil {
		return t.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableTimestamp, raw)
}

// Format renders t in UTC using StorageLayout.
func Format(t time.Time) string {
	return t.UTC().Format(StorageLayout)
}

// parseISO accepts an offset date-time, optionally followed by a bracketed
// zone id ("2023-07-04T10:15:30+09:00[Asia/Tokyo]"), or a local date-time
// followed by a zone id ("2023-07-04T10:15:30[Asia/Tokyo]").
func parseISO(raw string) (time.Time, error) {
	value, zone, err := splitZone(raw)
	if err != nil {
		return time.Time{}, err
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			if zone == nil {
				return t, nil
			}
			return t.In(zone), nil
		}
	}

	if zone == nil {
		return time.Time{}, fmt.Errorf("no offset or zone in %q", raw)
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, zone); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no ISO-8601 date-time in %q", raw)
}

func splitZone(raw string) (string, *time.Location, error) {
	open := strings.IndexByte(raw, '[')
	if open < 0 {
		return raw, nil, nil
	}
	if !strings.HasSuffix(raw, "]") {
		return "", nil, fmt.Errorf("unterminated zone id in %q", raw)
	}
	loc, err := time.LoadLocation(raw[open+1 : len(raw)-1])
	if err != nil {
		return "", nil, err
	}
	return raw[:open], loc, nil
}
