package ingest

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"time"

	"github.com/tskov/fitloom/internal/errors"
	"github.com/tskov/fitloom/internal/tables"
)

// activityRecord is one logged exercise session.
type activityRecord struct {
	LogID            *int64       `json:"logId"`
	ActivityName     string       `json:"activityName"`
	StartTime        string       `json:"startTime"`
	Duration         *int64       `json:"duration"`       // milliseconds
	ActiveDuration   *int64       `json:"activeDuration"` // milliseconds
	Calories         *flexNumber  `json:"calories"`
	Distance         *flexNumber  `json:"distance"`
	AverageHeartRate *flexNumber  `json:"averageHeartRate"`
	Steps            *flexNumber  `json:"steps"`
	HeartRateZones   []hrZoneSpan `json:"heartRateZones"`
}

type hrZoneSpan struct {
	Name    string     `json:"name"`
	Minutes flexNumber `json:"minutes"`
}

// ActivitiesLoader normalizes exercise exports into one row per session.
type ActivitiesLoader struct {
	loc  *time.Location
	rows []tables.ActivityRow
}

// NewActivities creates the activities family loader.
func NewActivities(loc *time.Location) *ActivitiesLoader {
	return &ActivitiesLoader{loc: loc}
}

func (l *ActivitiesLoader) Describe() Description {
	return Description{Family: "activities", Patterns: []string{"exercise-*.json"}}
}

// Load parses one exercise file and appends its sessions.
func (l *ActivitiesLoader) Load(path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}

	source := filepath.Base(path)
	local := make([]tables.ActivityRow, 0, len(records))

	for _, raw := range records {
		var rec activityRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return errors.NewParseError(path, err)
		}

		row, err := l.normalizeActivity(path, &rec, source)
		if err != nil {
			return err
		}
		local = append(local, row)
	}

	l.rows = append(l.rows, local...)
	return nil
}

func (l *ActivitiesLoader) normalizeActivity(path string, rec *activityRecord, source string) (tables.ActivityRow, error) {
	var zero tables.ActivityRow

	if rec.StartTime == "" {
		return zero, errors.NewSchemaError(path, "startTime")
	}
	start, err := parseTimestamp(rec.StartTime, l.loc)
	if err != nil {
		return zero, errors.NewSchemaErrorCause(path, "startTime", err)
	}

	// activeDuration excludes pauses and is preferred when present.
	var durationMs int64
	switch {
	case rec.ActiveDuration != nil:
		durationMs = *rec.ActiveDuration
	case rec.Duration != nil:
		durationMs = *rec.Duration
	default:
		return zero, errors.NewSchemaError(path, "duration")
	}

	name := rec.ActivityName
	if name == "" {
		name = "Unknown"
	}

	row := tables.ActivityRow{
		LogID:        rec.LogID,
		Date:         tables.FormatDate(start.In(l.loc)),
		StartMs:      start.UnixMilli(),
		ActivityName: name,
		DurationMin:  float64(durationMs) / 60000.0,
		DataSource:   source,
	}

	if rec.Calories != nil {
		row.Calories = ptrF(float64(*rec.Calories))
	}
	if rec.Distance != nil {
		row.DistanceKm = ptrF(float64(*rec.Distance))
	}
	if rec.AverageHeartRate != nil {
		row.AvgHeartRate = ptrF(float64(*rec.AverageHeartRate))
	}
	if rec.Steps != nil {
		row.Steps = ptrI64(int64(*rec.Steps))
	}

	if len(rec.HeartRateZones) > 0 {
		row.FatBurnMin = zoneMinutes(rec.HeartRateZones, "Fat Burn")
		row.CardioMin = zoneMinutes(rec.HeartRateZones, "Cardio")
		row.PeakMin = zoneMinutes(rec.HeartRateZones, "Peak")
	}

	return row, nil
}

func zoneMinutes(zones []hrZoneSpan, name string) *float64 {
	for _, z := range zones {
		if z.Name == name {
			return ptrF(float64(z.Minutes))
		}
	}
	return ptrF(0)
}

// Rows returns the accumulated sessions sorted by start time.
func (l *ActivitiesLoader) Rows() []tables.ActivityRow {
	rows := make([]tables.ActivityRow, len(l.rows))
	copy(rows, l.rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].StartMs < rows[j].StartMs })
	return rows
}
