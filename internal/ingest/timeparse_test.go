package ingest

import (
	"testing"
	"time"

	"github.com/tskov/fitloom/internal/errors"
)

func TestParseTimestamp_NaiveInLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	cases := []string{
		"01/05/23 08:15:00",
		"2023-01-05T08:15:00.000",
		"2023-01-05T08:15:00",
		"2023-01-05 08:15:00",
	}
	want := time.Date(2023, 1, 5, 8, 15, 0, 0, berlin)

	for _, in := range cases {
		got, err := parseTimestamp(in, berlin)
		if err != nil {
			t.Errorf("parseTimestamp(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseTimestamp_OffsetPreserved(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// The value's own offset wins over the configured zone.
	got, err := parseTimestamp("2023-01-05T08:15:00.000-05:00", berlin)
	if err != nil {
		t.Fatalf("parseTimestamp: %v", err)
	}
	want := time.Date(2023, 1, 5, 13, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseTimestamp_DateOnly(t *testing.T) {
	for _, in := range []string{"2023-01-05", "01/05/23"} {
		got, err := parseTimestamp(in, time.UTC)
		if err != nil {
			t.Errorf("parseTimestamp(%q): %v", in, err)
			continue
		}
		if got.Year() != 2023 || got.Month() != time.January || got.Day() != 5 {
			t.Errorf("parseTimestamp(%q) = %v", in, got)
		}
		if !isDateOnly(in, time.UTC) {
			t.Errorf("isDateOnly(%q) = false", in)
		}
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	_, err := parseTimestamp("yesterday-ish", time.UTC)
	if !errors.Is(err, errors.ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
}

func TestIsDateOnly_RejectsTimestamps(t *testing.T) {
	if isDateOnly("01/05/23 08:15:00", time.UTC) {
		t.Error("timestamp classified as date-only")
	}
}
