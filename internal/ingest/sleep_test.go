package ingest

import (
	"testing"
	"time"

	"github.com/tskov/fitloom/internal/errors"
	"github.com/tskov/fitloom/internal/tables"
)

func TestSleep_StagesShape(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, "sleep-2023-01-05.json", `[
		{
			"logId": 40123456789,
			"dateOfSleep": "2023-01-05",
			"startTime": "2023-01-04T23:10:00.000",
			"endTime": "2023-01-05T07:05:00.000",
			"duration": 28500000,
			"minutesAsleep": 420,
			"minutesAwake": 55,
			"timeInBed": 475,
			"efficiency": 92,
			"type": "stages",
			"levels": {
				"summary": {
					"wake": {"minutes": 55},
					"light": {"minutes": 250},
					"deep": {"minutes": 80},
					"rem": {"minutes": 90}
				}
			}
		}
	]`)

	l := NewSleep(time.UTC)
	if err := l.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	rows := l.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 session, got %d", len(rows))
	}

	s := rows[0]
	if s.Date != "2023-01-05" {
		t.Errorf("date = %s", s.Date)
	}
	if s.SleepType != tables.SleepStages {
		t.Errorf("type = %s", s.SleepType)
	}
	if s.LogID == nil || *s.LogID != 40123456789 {
		t.Errorf("logId = %v", s.LogID)
	}
	if s.MinutesAsleep != 420 || s.MinutesAwake != 55 || s.TimeInBed != 475 {
		t.Errorf("minutes = %d/%d/%d", s.MinutesAsleep, s.MinutesAwake, s.TimeInBed)
	}
	if s.DeepMin == nil || *s.DeepMin != 80 {
		t.Errorf("deep = %v", s.DeepMin)
	}
	if s.RemMin == nil || *s.RemMin != 90 {
		t.Errorf("rem = %v", s.RemMin)
	}
	if s.Efficiency == nil || *s.Efficiency != 92 {
		t.Errorf("efficiency = %v", s.Efficiency)
	}

	wantStart := time.Date(2023, 1, 4, 23, 10, 0, 0, time.UTC).UnixMilli()
	if s.StartMs != wantStart {
		t.Errorf("start_ms = %d, want %d", s.StartMs, wantStart)
	}
}

// Classic sessions never observed stages; their stage minutes stay null so
// they cannot be mistaken for "zero minutes of deep sleep".
func TestSleep_ClassicShapeNullStages(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, "sleep-classic.json", `[
		{
			"dateOfSleep": "2023-01-05",
			"startTime": "2023-01-04T23:10:00.000",
			"duration": 28500000,
			"minutesAsleep": 430,
			"minutesAwake": 45,
			"timeInBed": 475,
			"type": "classic",
			"levels": {
				"summary": {
					"asleep": {"minutes": 400},
					"restless": {"minutes": 30},
					"awake": {"minutes": 45}
				}
			}
		}
	]`)

	l := NewSleep(time.UTC)
	if err := l.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	rows := l.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 session, got %d", len(rows))
	}

	s := rows[0]
	if s.SleepType != tables.SleepClassic {
		t.Errorf("type = %s", s.SleepType)
	}
	if s.WakeMin != nil || s.LightMin != nil || s.DeepMin != nil || s.RemMin != nil {
		t.Errorf("classic session must carry null stages, got %+v", s)
	}
	if s.MinutesAsleep != 430 {
		t.Errorf("minutesAsleep = %d", s.MinutesAsleep)
	}

	// endTime was absent; it derives from start + duration.
	wantEnd := time.Date(2023, 1, 4, 23, 10, 0, 0, time.UTC).Add(28500000 * time.Millisecond).UnixMilli()
	if s.EndMs != wantEnd {
		t.Errorf("end_ms = %d, want %d", s.EndMs, wantEnd)
	}
}

func TestSleep_TypeInferredFromSummary(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, "sleep-untyped.json", `[
		{
			"dateOfSleep": "2023-01-05",
			"startTime": "2023-01-04T23:10:00.000",
			"duration": 3600000,
			"levels": {"summary": {"deep": {"minutes": 20}, "light": {"minutes": 30}, "rem": {"minutes": 10}}}
		},
		{
			"dateOfSleep": "2023-01-06",
			"startTime": "2023-01-05T23:10:00.000",
			"duration": 3600000,
			"levels": {"summary": {"asleep": {"minutes": 55}}}
		}
	]`)

	l := NewSleep(time.UTC)
	if err := l.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	rows := l.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(rows))
	}
	if rows[0].SleepType != tables.SleepStages {
		t.Errorf("session with deep summary should infer stages, got %s", rows[0].SleepType)
	}
	if rows[1].SleepType != tables.SleepClassic {
		t.Errorf("session without stage summary should infer classic, got %s", rows[1].SleepType)
	}
}

func TestSleep_DateFallsBackToStartTime(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, "sleep-old.json", `[
		{"startTime": "2023-01-04T23:10:00.000", "duration": 3600000}
	]`)

	l := NewSleep(time.UTC)
	if err := l.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	rows := l.Rows()
	if len(rows) != 1 || rows[0].Date != "2023-01-04" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestSleep_DerivedMinutesAsleepFromStages(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, "sleep-derive.json", `[
		{
			"dateOfSleep": "2023-01-05",
			"startTime": "2023-01-04T23:10:00.000",
			"duration": 28500000,
			"type": "stages",
			"levels": {"summary": {"wake": {"minutes": 50}, "light": {"minutes": 250}, "deep": {"minutes": 80}, "rem": {"minutes": 90}}}
		}
	]`)

	l := NewSleep(time.UTC)
	if err := l.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	s := l.Rows()[0]
	if s.MinutesAsleep != 420 {
		t.Errorf("derived minutesAsleep = %d, want 420", s.MinutesAsleep)
	}
	if s.MinutesAwake != 50 {
		t.Errorf("derived minutesAwake = %d, want 50", s.MinutesAwake)
	}
}

func TestSleep_MissingStartTime(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, "sleep-bad.json", `[{"dateOfSleep": "2023-01-05"}]`)

	l := NewSleep(time.UTC)
	err := l.Load(path)
	var se *errors.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if se.Field != "startTime" {
		t.Errorf("field = %s", se.Field)
	}
}

func TestSleep_TwoSessionsSameDate(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, "sleep-nap.json", `[
		{"dateOfSleep": "2023-01-05", "startTime": "2023-01-05T14:00:00.000", "duration": 3600000},
		{"dateOfSleep": "2023-01-05", "startTime": "2023-01-04T23:10:00.000", "duration": 28500000}
	]`)

	l := NewSleep(time.UTC)
	if err := l.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	rows := l.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected both sessions kept, got %d", len(rows))
	}
	// Sorted by start within the date: the night session first.
	if rows[0].StartMs > rows[1].StartMs {
		t.Errorf("sessions not sorted by start: %d, %d", rows[0].StartMs, rows[1].StartMs)
	}
}
