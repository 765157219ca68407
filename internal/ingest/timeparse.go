package ingest

import (
	"time"

	"github.com/tskov/fitloom/internal/errors"
)

// Layouts carrying an explicit UTC offset. Values matching these keep the
// offset they were exported with.
var offsetLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000-07:00",
}

// Naive layouts, oldest export era first. Interpreted in the configured
// default zone.
var naiveLayouts = []string{
	"01/02/06 15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

var dateOnlyLayouts = []string{
	"2006-01-02",
	"01/02/06",
}

// parseTimestamp parses a timestamp from any supported export era.
// Offset-bearing values are preserved as given; naive values are
// interpreted in loc.
func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	for _, layout := range dateOnlyLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(errors.ErrInvalidTimestamp, "%q", s)
}

// isDateOnly reports whether s is a bare calendar date with no time
// component. Used to tell daily-total records from interval records.
func isDateOnly(s string, loc *time.Location) bool {
	for _, layout := range dateOnlyLayouts {
		if _, err := time.ParseInLocation(layout, s, loc); err == nil {
			return true
		}
	}
	return false
}
