package ingest

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"time"

	"github.com/tskov/fitloom/internal/errors"
	"github.com/tskov/fitloom/internal/tables"
)

// stepsRecord is one entry of a steps export file. Two shapes exist:
//
//	interval:    {"dateTime": "01/05/23 08:15:00", "value": "312"}
//	daily total: {"dateTime": "2023-01-05", "value": {"steps": 8123}}
type stepsRecord struct {
	DateTime string          `json:"dateTime"`
	Value    json.RawMessage `json:"value"`
}

// stepsValueObject is the daily-total value shape.
type stepsValueObject struct {
	Steps *flexNumber `json:"steps"`
}

type stepsDay struct {
	total         int64
	activeMinutes int32
	hasIntervals  bool
	source        string
}

// StepsLoader normalizes step exports into the steps_daily table.
// Interval rows are additionally reduced to a daily total during
// normalization; daily-total rows pass through.
type StepsLoader struct {
	loc  *time.Location
	days map[string]*stepsDay
}

// NewSteps creates the steps family loader.
func NewSteps(loc *time.Location) *StepsLoader {
	return &StepsLoader{loc: loc, days: make(map[string]*stepsDay)}
}

func (l *StepsLoader) Describe() Description {
	return Description{Family: "steps", Patterns: []string{"steps-*.json"}}
}

// Load parses one steps file and folds its records into the daily totals.
func (l *StepsLoader) Load(path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}

	source := filepath.Base(path)
	local := make(map[string]*stepsDay)

	for _, raw := range records {
		var rec stepsRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return errors.NewParseError(path, err)
		}
		if rec.DateTime == "" {
			return errors.NewSchemaError(path, "dateTime")
		}

		ts, err := parseTimestamp(rec.DateTime, l.loc)
		if err != nil {
			return errors.NewSchemaErrorCause(path, "dateTime", err)
		}

		count, isTotal, err := decodeStepsValue(path, rec.Value)
		if err != nil {
			return err
		}
		if isDateOnly(rec.DateTime, l.loc) {
			isTotal = true
		}

		date := tables.FormatDate(ts.In(l.loc))
		d := local[date]
		if d == nil {
			d = &stepsDay{source: source}
			local[date] = d
		}

		d.total += count
		if !isTotal {
			d.hasIntervals = true
			if count > 0 {
				d.activeMinutes++
			}
		}
	}

	// The whole file decoded; fold into the shared collection.
	for date, d := range local {
		cur := l.days[date]
		if cur == nil {
			l.days[date] = d
			continue
		}
		cur.total += d.total
		cur.activeMinutes += d.activeMinutes
		cur.hasIntervals = cur.hasIntervals || d.hasIntervals
	}

	return nil
}

// decodeStepsValue decodes the value field of a steps record. The primary
// shape is a scalar interval count; the fallback is the daily-total object.
func decodeStepsValue(path string, raw json.RawMessage) (count int64, isTotal bool, err error) {
	if len(raw) == 0 {
		return 0, false, errors.NewSchemaError(path, "value")
	}

	var n flexNumber
	if err := json.Unmarshal(raw, &n); err == nil {
		return int64(n), false, nil
	}

	var obj stepsValueObject
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Steps != nil {
		return int64(*obj.Steps), true, nil
	}

	return 0, false, errors.NewSchemaErrorCause(path, "value", errors.ErrUnknownShape)
}

// Rows returns the accumulated daily rows sorted by date.
func (l *StepsLoader) Rows() []tables.StepsDailyRow {
	rows := make([]tables.StepsDailyRow, 0, len(l.days))
	for date, d := range l.days {
		row := tables.StepsDailyRow{
			Date:       date,
			TotalSteps: d.total,
			DataSource: d.source,
		}
		if d.hasIntervals {
			row.ActiveMinutes = ptrI32(d.activeMinutes)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows
}
