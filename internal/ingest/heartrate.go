package ingest

import (
	"encoding/json"
	"math"
	"path/filepath"
	"sort"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/tskov/fitloom/internal/errors"
	"github.com/tskov/fitloom/internal/tables"
)

// sketchAccuracy is the DDSketch relative accuracy for hourly bpm
// percentiles (1% error).
const sketchAccuracy = 0.01

// hrRecord is one intraday heart-rate reading. The primary shape nests the
// reading under value; an older flat shape carries bpm at the top level.
//
//	primary:  {"dateTime": "01/05/23 08:15:10", "value": {"bpm": 65, "confidence": 2}}
//	fallback: {"dateTime": "01/05/23 08:15:10", "bpm": 65}
type hrRecord struct {
	DateTime string      `json:"dateTime"`
	Value    *hrValue    `json:"value"`
	BPM      *flexNumber `json:"bpm"`
}

type hrValue struct {
	BPM        *flexNumber `json:"bpm"`
	Confidence *flexNumber `json:"confidence"`
}

type hrHour struct {
	date   string
	sum    float64
	count  int64
	min    int32
	max    int32
	sketch *ddsketch.DDSketch
	source string
}

// HeartRateLoader reduces intraday heart-rate readings to hourly rows with
// avg/min/max and sketched p50/p90.
type HeartRateLoader struct {
	loc   *time.Location
	hours map[int64]*hrHour
}

// NewHeartRate creates the heart-rate family loader.
func NewHeartRate(loc *time.Location) *HeartRateLoader {
	return &HeartRateLoader{loc: loc, hours: make(map[int64]*hrHour)}
}

func (l *HeartRateLoader) Describe() Description {
	return Description{Family: "heart_rate", Patterns: []string{"heart_rate-*.json"}}
}

// Load parses one heart-rate file and folds its readings into the hourly
// reduction.
func (l *HeartRateLoader) Load(path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}

	source := filepath.Base(path)
	local := make(map[int64]*hrHour)

	for _, raw := range records {
		var rec hrRecord
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

		bpm, err := decodeBPM(path, &rec)
		if err != nil {
			return err
		}
		if bpm <= 0 {
			// Sensor gap placeholder, not a reading.
			continue
		}

		wall := ts.In(l.loc)
		hourStart := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), 0, 0, 0, l.loc)
		key := hourStart.UnixMilli()

		h := local[key]
		if h == nil {
			h = &hrHour{
				date:   tables.FormatDate(hourStart),
				min:    math.MaxInt32,
				source: source,
			}
			if sketch, err := ddsketch.NewDefaultDDSketch(sketchAccuracy); err == nil {
				h.sketch = sketch
			}
			local[key] = h
		}

		h.sum += bpm
		h.count++
		if int32(bpm) < h.min {
			h.min = int32(bpm)
		}
		if int32(bpm) > h.max {
			h.max = int32(bpm)
		}
		if h.sketch != nil {
			h.sketch.Add(bpm)
		}
	}

	for key, h := range local {
		cur := l.hours[key]
		if cur == nil {
			l.hours[key] = h
			continue
		}
		cur.sum += h.sum
		cur.count += h.count
		if h.min < cur.min {
			cur.min = h.min
		}
		if h.max > cur.max {
			cur.max = h.max
		}
		if cur.sketch != nil && h.sketch != nil {
			cur.sketch.MergeWith(h.sketch)
		}
	}

	return nil
}

// decodeBPM extracts the bpm reading, trying the nested shape first and
// the flat shape second.
func decodeBPM(path string, rec *hrRecord) (float64, error) {
	if rec.Value != nil {
		if rec.Value.BPM == nil {
			return 0, errors.NewSchemaError(path, "value.bpm")
		}
		return float64(*rec.Value.BPM), nil
	}
	if rec.BPM != nil {
		return float64(*rec.BPM), nil
	}
	return 0, errors.NewSchemaErrorCause(path, "value", errors.ErrUnknownShape)
}

// Rows returns the hourly reduction sorted by hour.
func (l *HeartRateLoader) Rows() []tables.HeartRateHourlyRow {
	keys := make([]int64, 0, len(l.hours))
	for k := range l.hours {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rows := make([]tables.HeartRateHourlyRow, 0, len(keys))
	for _, k := range keys {
		h := l.hours[k]
		if h.count == 0 {
			continue
		}
		row := tables.HeartRateHourlyRow{
			Date:         h.date,
			HourMs:       k,
			AvgBPM:       math.Round(h.sum/float64(h.count)*10) / 10,
			MinBPM:       h.min,
			MaxBPM:       h.max,
			ReadingCount: h.count,
			DataSource:   h.source,
		}
		if h.sketch != nil {
			if p50, err := h.sketch.GetValueAtQuantile(0.50); err == nil {
				row.P50BPM = ptrF(p50)
			}
			if p90, err := h.sketch.GetValueAtQuantile(0.90); err == nil {
				row.P90BPM = ptrF(p90)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
