package ingest

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"time"

	"github.com/tskov/fitloom/internal/errors"
	"github.com/tskov/fitloom/internal/tables"
)

// sleepRecord is one logged sleep session. Two generations exist: the
// "classic" shape (single asleep/awake accounting) and the "stages" shape
// (typed deep/rem/light/wake stage summary). Both normalize to the same
// row; classic rows carry null stage minutes.
type sleepRecord struct {
	LogID         *int64       `json:"logId"`
	DateOfSleep   string       `json:"dateOfSleep"`
	StartTime     string       `json:"startTime"`
	EndTime       string       `json:"endTime"`
	Duration      int64        `json:"duration"` // milliseconds
	MinutesAsleep *int32       `json:"minutesAsleep"`
	MinutesAwake  *int32       `json:"minutesAwake"`
	TimeInBed     *int32       `json:"timeInBed"`
	Efficiency    *int32       `json:"efficiency"`
	Type          string       `json:"type"`
	Levels        *sleepLevels `json:"levels"`
}

type sleepLevels struct {
	Summary map[string]sleepStageSummary `json:"summary"`
}

type sleepStageSummary struct {
	Minutes int32 `json:"minutes"`
}

// SleepLoader normalizes sleep exports into one row per session.
type SleepLoader struct {
	loc      *time.Location
	sessions []tables.SleepSessionRow
}

// NewSleep creates the sleep family loader.
func NewSleep(loc *time.Location) *SleepLoader {
	return &SleepLoader{loc: loc}
}

func (l *SleepLoader) Describe() Description {
	return Description{Family: "sleep", Patterns: []string{"sleep-*.json"}}
}

// Load parses one sleep file and appends its sessions.
func (l *SleepLoader) Load(path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}

	source := filepath.Base(path)
	local := make([]tables.SleepSessionRow, 0, len(records))

	for _, raw := range records {
		var rec sleepRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return errors.NewParseError(path, err)
		}

		row, err := l.normalizeSession(path, &rec, source)
		if err != nil {
			return err
		}
		local = append(local, row)
	}

	l.sessions = append(l.sessions, local...)
	return nil
}

// normalizeSession maps one raw session to a SleepSessionRow.
func (l *SleepLoader) normalizeSession(path string, rec *sleepRecord, source string) (tables.SleepSessionRow, error) {
	var zero tables.SleepSessionRow

	if rec.StartTime == "" {
		return zero, errors.NewSchemaError(path, "startTime")
	}
	start, err := parseTimestamp(rec.StartTime, l.loc)
	if err != nil {
		return zero, errors.NewSchemaErrorCause(path, "startTime", err)
	}

	// dateOfSleep is the primary date source; falling back to the start
	// time covers the oldest export era which omitted it.
	date := rec.DateOfSleep
	if date == "" {
		date = tables.FormatDate(start.In(l.loc))
	} else {
		d, err := parseTimestamp(date, l.loc)
		if err != nil {
			return zero, errors.NewSchemaErrorCause(path, "dateOfSleep", err)
		}
		date = tables.FormatDate(d.In(l.loc))
	}

	var end time.Time
	if rec.EndTime != "" {
		end, err = parseTimestamp(rec.EndTime, l.loc)
		if err != nil {
			return zero, errors.NewSchemaErrorCause(path, "endTime", err)
		}
	} else if rec.Duration > 0 {
		end = start.Add(time.Duration(rec.Duration) * time.Millisecond)
	} else {
		return zero, errors.NewSchemaError(path, "endTime")
	}

	durationMs := rec.Duration
	if durationMs == 0 {
		durationMs = end.Sub(start).Milliseconds()
	}
	durationMin := float64(durationMs) / 60000.0

	sleepType := rec.Type
	if sleepType == "" {
		sleepType = inferSleepType(rec.Levels)
	}

	row := tables.SleepSessionRow{
		LogID:       rec.LogID,
		Date:        date,
		StartMs:     start.UnixMilli(),
		EndMs:       end.UnixMilli(),
		DurationMin: durationMin,
		Efficiency:  rec.Efficiency,
		SleepType:   sleepType,
		DataSource:  source,
	}

	summary := map[string]sleepStageSummary{}
	if rec.Levels != nil && rec.Levels.Summary != nil {
		summary = rec.Levels.Summary
	}

	if sleepType == tables.SleepStages {
		row.WakeMin = ptrI32(summary["wake"].Minutes)
		row.LightMin = ptrI32(summary["light"].Minutes)
		row.DeepMin = ptrI32(summary["deep"].Minutes)
		row.RemMin = ptrI32(summary["rem"].Minutes)
	}
	// Classic sessions keep null stage minutes: the classic tracker never
	// observed stages, and zeros would be indistinguishable from "no time
	// in that stage".

	row.MinutesAsleep = deriveMinutesAsleep(rec, summary, sleepType, durationMin)
	row.MinutesAwake = deriveMinutesAwake(rec, summary, sleepType)
	if rec.TimeInBed != nil {
		row.TimeInBed = *rec.TimeInBed
	} else {
		row.TimeInBed = int32(durationMin)
	}

	return row, nil
}

// inferSleepType guesses the session generation when the type tag is
// absent: only the stages tracker reports deep or rem summaries.
func inferSleepType(levels *sleepLevels) string {
	if levels != nil {
		if _, ok := levels.Summary["deep"]; ok {
			return tables.SleepStages
		}
		if _, ok := levels.Summary["rem"]; ok {
			return tables.SleepStages
		}
	}
	return tables.SleepClassic
}

func deriveMinutesAsleep(rec *sleepRecord, summary map[string]sleepStageSummary, sleepType string, durationMin float64) int32 {
	if rec.MinutesAsleep != nil {
		return *rec.MinutesAsleep
	}
	if sleepType == tables.SleepStages {
		return summary["light"].Minutes + summary["deep"].Minutes + summary["rem"].Minutes
	}
	if s, ok := summary["asleep"]; ok {
		return s.Minutes + summary["restless"].Minutes
	}
	return int32(durationMin)
}

func deriveMinutesAwake(rec *sleepRecord, summary map[string]sleepStageSummary, sleepType string) int32 {
	if rec.MinutesAwake != nil {
		return *rec.MinutesAwake
	}
	if sleepType == tables.SleepStages {
		return summary["wake"].Minutes
	}
	return summary["awake"].Minutes
}

// Rows returns the accumulated sessions sorted by date then start time.
func (l *SleepLoader) Rows() []tables.SleepSessionRow {
	rows := make([]tables.SleepSessionRow, len(l.sessions))
	copy(rows, l.sessions)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].StartMs < rows[j].StartMs
	})
	return rows
}
