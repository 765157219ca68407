package ingest

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"time"

	"github.com/tskov/fitloom/internal/errors"
	"github.com/tskov/fitloom/internal/tables"
)

// rhrRecord is one daily resting heart-rate entry. Resting heart rate is a
// distinct daily signal, never merged into the intraday table.
//
//	primary:  {"dateTime": "01/05/23 00:00:00", "value": {"value": 62.5, "error": 1.2}}
//	fallback: {"dateTime": "2023-01-05", "value": 62.5}
type rhrRecord struct {
	DateTime string          `json:"dateTime"`
	Value    json.RawMessage `json:"value"`
}

type rhrValueObject struct {
	Value *flexNumber `json:"value"`
	Error *flexNumber `json:"error"`
}

type rhrDay struct {
	hr     float64
	errEst *float64
	source string
}

// RestingHeartRateLoader normalizes resting heart-rate exports into one
// daily value per date.
type RestingHeartRateLoader struct {
	loc  *time.Location
	days map[string]*rhrDay
}

// NewRestingHeartRate creates the resting heart-rate family loader.
func NewRestingHeartRate(loc *time.Location) *RestingHeartRateLoader {
	return &RestingHeartRateLoader{loc: loc, days: make(map[string]*rhrDay)}
}

func (l *RestingHeartRateLoader) Describe() Description {
	return Description{Family: "resting_heart_rate", Patterns: []string{"resting_heart_rate-*.json"}}
}

// Load parses one resting heart-rate file. Days with a zero reading are
// tracker placeholders for "no measurement" and are dropped.
func (l *RestingHeartRateLoader) Load(path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}

	source := filepath.Base(path)
	local := make(map[string]*rhrDay)

	for _, raw := range records {
		var rec rhrRecord
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

		hr, errEst, ok, err := decodeRestingHR(path, rec.Value)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		local[tables.FormatDate(ts.In(l.loc))] = &rhrDay{hr: hr, errEst: errEst, source: source}
	}

	for date, d := range local {
		l.days[date] = d
	}

	return nil
}

// decodeRestingHR decodes the value field. ok is false for placeholder
// entries (zero or absent reading) that carry no measurement.
func decodeRestingHR(path string, raw json.RawMessage) (hr float64, errEst *float64, ok bool, err error) {
	if len(raw) == 0 {
		return 0, nil, false, errors.NewSchemaError(path, "value")
	}

	var obj rhrValueObject
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Value == nil || float64(*obj.Value) <= 0 {
			return 0, nil, false, nil
		}
		hr = float64(*obj.Value)
		if obj.Error != nil {
			errEst = ptrF(float64(*obj.Error))
		}
		return hr, errEst, true, nil
	}

	var n flexNumber
	if err := json.Unmarshal(raw, &n); err == nil {
		if float64(n) <= 0 {
			return 0, nil, false, nil
		}
		return float64(n), nil, true, nil
	}

	return 0, nil, false, errors.NewSchemaErrorCause(path, "value", errors.ErrUnknownShape)
}

// Rows returns the daily rows sorted by date.
func (l *RestingHeartRateLoader) Rows() []tables.RestingHeartRateRow {
	rows := make([]tables.RestingHeartRateRow, 0, len(l.days))
	for date, d := range l.days {
		rows = append(rows, tables.RestingHeartRateRow{
			Date:          date,
			RestingHR:     d.hr,
			ErrorEstimate: d.errEst,
			DataSource:    d.source,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows
}
