package ingest

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"time"

	"github.com/tskov/fitloom/internal/errors"
	"github.com/tskov/fitloom/internal/tables"
)

// Zone keys as emitted by the tracker export.
//
//	IN_DEFAULT_ZONE_1 = fat burn
//	IN_DEFAULT_ZONE_2 = cardio
//	IN_DEFAULT_ZONE_3 = peak
//	BELOW_DEFAULT_ZONE_1 = out of range
type zoneValues struct {
	FatBurn    flexNumber `json:"IN_DEFAULT_ZONE_1"`
	Cardio     flexNumber `json:"IN_DEFAULT_ZONE_2"`
	Peak       flexNumber `json:"IN_DEFAULT_ZONE_3"`
	OutOfRange flexNumber `json:"BELOW_DEFAULT_ZONE_1"`
}

// zoneRecord is one daily time-in-zone entry.
//
//	primary:  {"dateTime": "01/05/23 00:00:00", "value": {"valuesInZones": {...}}}
//	fallback: {"dateTime": "01/05/23 00:00:00", "value": {...}} (zones inline)
type zoneRecord struct {
	DateTime string          `json:"dateTime"`
	Value    json.RawMessage `json:"value"`
}

type zoneValueWrapper struct {
	ValuesInZones *zoneValues `json:"valuesInZones"`
}

type zoneDay struct {
	fatBurn, cardio, peak, outOfRange float64
	source                            string
}

// ZoneMinutesLoader normalizes time-in-heart-rate-zone exports into daily
// rows.
type ZoneMinutesLoader struct {
	loc  *time.Location
	days map[string]*zoneDay
}

// NewZoneMinutes creates the zone-minutes family loader.
func NewZoneMinutes(loc *time.Location) *ZoneMinutesLoader {
	return &ZoneMinutesLoader{loc: loc, days: make(map[string]*zoneDay)}
}

func (l *ZoneMinutesLoader) Describe() Description {
	return Description{Family: "zone_minutes", Patterns: []string{"time_in_heart_rate_zones-*.json"}}
}

// Load parses one zone-minutes file and folds it into the daily sums.
func (l *ZoneMinutesLoader) Load(path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}

	source := filepath.Base(path)
	local := make(map[string]*zoneDay)

	for _, raw := range records {
		var rec zoneRecord
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

		zones, err := decodeZones(path, rec.Value)
		if err != nil {
			return err
		}

		date := tables.FormatDate(ts.In(l.loc))
		d := local[date]
		if d == nil {
			d = &zoneDay{source: source}
			local[date] = d
		}
		d.fatBurn += float64(zones.FatBurn)
		d.cardio += float64(zones.Cardio)
		d.peak += float64(zones.Peak)
		d.outOfRange += float64(zones.OutOfRange)
	}

	for date, d := range local {
		cur := l.days[date]
		if cur == nil {
			l.days[date] = d
			continue
		}
		cur.fatBurn += d.fatBurn
		cur.cardio += d.cardio
		cur.peak += d.peak
		cur.outOfRange += d.outOfRange
	}

	return nil
}

// decodeZones decodes the value field, trying the wrapped shape first and
// the inline shape second.
func decodeZones(path string, raw json.RawMessage) (*zoneValues, error) {
	if len(raw) == 0 {
		return nil, errors.NewSchemaError(path, "value")
	}

	var wrapped zoneValueWrapper
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.ValuesInZones != nil {
		return wrapped.ValuesInZones, nil
	}

	var inline zoneValues
	if err := json.Unmarshal(raw, &inline); err == nil {
		return &inline, nil
	}

	return nil, errors.NewSchemaErrorCause(path, "value", errors.ErrUnknownShape)
}

// Rows returns the daily rows sorted by date.
func (l *ZoneMinutesLoader) Rows() []tables.ZoneMinutesDailyRow {
	rows := make([]tables.ZoneMinutesDailyRow, 0, len(l.days))
	for date, d := range l.days {
		rows = append(rows, tables.ZoneMinutesDailyRow{
			Date:           date,
			FatBurnMin:     d.fatBurn,
			CardioMin:      d.cardio,
			PeakMin:        d.peak,
			OutOfRangeMin:  d.outOfRange,
			TotalActiveMin: d.fatBurn + d.cardio + d.peak,
			DataSource:     d.source,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows
}
