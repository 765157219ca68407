package query

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tskov/fitloom/internal/errors"
	"github.com/tskov/fitloom/internal/snapshot"
	"github.com/tskov/fitloom/internal/tables"
)

// RollingPoint is one date of a rolling-window query: the raw daily value
// (nil when the summary holds no data for that date) and the trailing
// window average (nil when no data point exists anywhere in the window).
type RollingPoint struct {
	Date  string
	Value *float64
	Avg   *float64
}

// summaryColumns is the set of daily_summary columns rolling queries may
// target. Column names are interpolated into SQL, so only known names
// pass.
var summaryColumns = map[string]bool{
	"total_steps":       true,
	"active_minutes":    true,
	"resting_hr":        true,
	"minutes_asleep":    true,
	"time_in_bed":       true,
	"sleep_efficiency":  true,
	"wake_min":          true,
	"light_min":         true,
	"deep_min":          true,
	"rem_min":           true,
	"zone_fat_burn_min": true,
	"zone_cardio_min":   true,
	"zone_peak_min":     true,
	"zone_active_min":   true,
	"activity_minutes":  true,
	"activity_calories": true,
}

// RollingDaily computes the trailing windowDays-day average of one
// daily_summary column for every date in the range.
//
// The window is anchored on calendar days, not rows, so gaps in the
// summary do not stretch it. The average is taken over the data points
// actually present in the window (partial-window average); a window with
// no data points yields a nil average. Dates before the range start still
// feed windows that reach back past it.
func (s *Service) RollingDaily(ctx context.Context, column string, windowDays int, r DateRange) ([]RollingPoint, error) {
	if !summaryColumns[column] {
		return nil, errors.Wrapf(errors.ErrUnknownColumn, "%q", column)
	}
	if windowDays < 1 {
		return nil, fmt.Errorf("window must be at least 1 day, got %d", windowDays)
	}
	if !snapshot.Exists(s.dir, tables.DailySummary) {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT date, value, avg_value FROM (
			SELECT date,
			       CAST(%[1]s AS DOUBLE) AS value,
			       AVG(CAST(%[1]s AS DOUBLE)) OVER (
			           ORDER BY CAST(date AS DATE)
			           RANGE BETWEEN INTERVAL %[2]d DAYS PRECEDING AND CURRENT ROW
			       ) AS avg_value
			FROM read_parquet($1)
		)
		WHERE date >= $2 AND date <= $3
		ORDER BY date
	`, column, windowDays-1)

	rows, err := s.db.QueryContext(ctx, query, snapshot.Path(s.dir, tables.DailySummary), r.Start, r.End)
	if err != nil {
		s.stats.Errors++
		return nil, fmt.Errorf("rolling query %s: %w", column, err)
	}
	defer rows.Close()

	var out []RollingPoint
	for rows.Next() {
		var p RollingPoint
		var value, avg sql.NullFloat64
		if err := rows.Scan(&p.Date, &value, &avg); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		p.Value = nullF64(value)
		p.Avg = nullF64(avg)
		out = append(out, p)
	}
	s.recordQuery(len(out))
	return out, rows.Err()
}

// RollingShort computes the trailing average over the configured short
// window (rolling.short_days).
func (s *Service) RollingShort(ctx context.Context, column string, r DateRange) ([]RollingPoint, error) {
	return s.RollingDaily(ctx, column, s.config.Rolling.ShortDays, r)
}

// RollingLong computes the trailing average over the configured long
// window (rolling.long_days).
func (s *Service) RollingLong(ctx context.Context, column string, r DateRange) ([]RollingPoint, error) {
	return s.RollingDaily(ctx, column, s.config.Rolling.LongDays, r)
}

// OverallDateRange probes every daily-grain snapshot and returns the
// earliest and latest date across them. ok is false when no snapshot
// holds any rows.
func (s *Service) OverallDateRange(ctx context.Context) (min, max string, ok bool, err error) {
	probe := []string{
		tables.Steps,
		tables.RestingHR,
		tables.Sleep,
		tables.ZoneMinutes,
		tables.Activities,
		tables.DailySummary,
	}

	for _, table := range probe {
		if !snapshot.Exists(s.dir, table) {
			continue
		}

		var lo, hi sql.NullString
		row := s.db.QueryRowContext(ctx,
			"SELECT MIN(date), MAX(date) FROM read_parquet($1)",
			snapshot.Path(s.dir, table),
		)
		if err := row.Scan(&lo, &hi); err != nil {
			return "", "", false, fmt.Errorf("probe %s: %w", table, err)
		}
		if !lo.Valid {
			continue
		}

		if !ok || lo.String < min {
			min = lo.String
		}
		if !ok || hi.String > max {
			max = hi.String
		}
		ok = true
	}

	s.stats.QueriesExecuted++
	return min, max, ok, nil
}

// ExecuteSQL executes a raw SQL query. This backs the interactive console
// and ad-hoc inspection; snapshots are still read-only (the database is
// in-memory and only read_parquet touches them).
func (s *Service) ExecuteSQL(ctx context.Context, query string) ([]map[string]interface{}, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.stats.Errors++
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}

	s.recordQuery(len(results))
	return results, rows.Err()
}

// TablePath resolves the snapshot path of a known table name, for console
// helpers that expand table names into read_parquet calls.
func (s *Service) TablePath(table string) (string, error) {
	for _, t := range tables.All() {
		if t == table {
			return snapshot.Path(s.dir, table), nil
		}
	}
	return "", errors.Wrapf(errors.ErrUnknownTable, "%q", table)
}
