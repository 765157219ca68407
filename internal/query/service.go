// Package query provides read-only analytical access to committed
// snapshots. It uses DuckDB's read_parquet to run SQL directly against the
// snapshot files; it never mutates them.
package query

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/tskov/fitloom/internal/config"
	"github.com/tskov/fitloom/internal/snapshot"
	"github.com/tskov/fitloom/internal/tables"
)

// Service executes read-only queries over the snapshot directory.
// All functions are stateless with respect to the data: every call reads
// the snapshots as currently committed.
type Service struct {
	config *config.Config
	db     *sql.DB
	dir    string

	stats Stats
}

// Stats holds query statistics.
type Stats struct {
	QueriesExecuted int64
	RowsReturned    int64
	Errors          int64
}

// DateRange is an inclusive calendar-date interval.
type DateRange struct {
	Start string // "2006-01-02", inclusive
	End   string // "2006-01-02", inclusive
}

// New creates a new query service over cfg.OutputDir.
func New(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	// In-memory DuckDB database; the data lives in the Parquet files.
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if cfg.Query.MemoryLimit != "" {
		if _, err := db.Exec(fmt.Sprintf("SET memory_limit='%s'", cfg.Query.MemoryLimit)); err != nil {
			db.Close()
			return nil, fmt.Errorf("set memory limit: %w", err)
		}
	}

	return &Service{
		config: cfg,
		db:     db,
		dir:    cfg.OutputDir,
	}, nil
}

// Close closes the query service.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Stats returns query statistics.
func (s *Service) Stats() Stats {
	return s.stats
}

// limitClause renders the configured row cap.
func (s *Service) limitClause() string {
	if s.config.Query.MaxRows > 0 {
		return fmt.Sprintf(" LIMIT %d", s.config.Query.MaxRows)
	}
	return ""
}

// rangeQuery runs a SELECT over one snapshot restricted to an inclusive
// date range. A missing snapshot yields an empty result, not an error.
func (s *Service) rangeQuery(ctx context.Context, table, columns string, r DateRange) (*sql.Rows, error) {
	if !snapshot.Exists(s.dir, table) {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM read_parquet($1)
		WHERE date >= $2 AND date <= $3
		ORDER BY date%s
	`, columns, s.limitClause())

	rows, err := s.db.QueryContext(ctx, query, snapshot.Path(s.dir, table), r.Start, r.End)
	if err != nil {
		s.stats.Errors++
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	return rows, nil
}

// StepsDaily returns daily step rows within the range, date ascending.
func (s *Service) StepsDaily(ctx context.Context, r DateRange) ([]tables.StepsDailyRow, error) {
	rows, err := s.rangeQuery(ctx, tables.Steps, "date, total_steps, active_minutes, data_source", r)
	if rows == nil || err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tables.StepsDailyRow
	for rows.Next() {
		var row tables.StepsDailyRow
		var active sql.NullInt32
		if err := rows.Scan(&row.Date, &row.TotalSteps, &active, &row.DataSource); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row.ActiveMinutes = nullI32(active)
		out = append(out, row)
	}
	s.recordQuery(len(out))
	return out, rows.Err()
}

// RestingHeartRate returns daily resting heart-rate rows within the range.
func (s *Service) RestingHeartRate(ctx context.Context, r DateRange) ([]tables.RestingHeartRateRow, error) {
	rows, err := s.rangeQuery(ctx, tables.RestingHR, "date, resting_hr, error_estimate, data_source", r)
	if rows == nil || err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tables.RestingHeartRateRow
	for rows.Next() {
		var row tables.RestingHeartRateRow
		var errEst sql.NullFloat64
		if err := rows.Scan(&row.Date, &row.RestingHR, &errEst, &row.DataSource); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row.ErrorEstimate = nullF64(errEst)
		out = append(out, row)
	}
	s.recordQuery(len(out))
	return out, rows.Err()
}

// HeartRateHourly returns hourly heart-rate rows for days within the range.
func (s *Service) HeartRateHourly(ctx context.Context, r DateRange) ([]tables.HeartRateHourlyRow, error) {
	if !snapshot.Exists(s.dir, tables.HeartRate) {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT date, hour_ms, avg_bpm, min_bpm, max_bpm, p50_bpm, p90_bpm, reading_count, data_source
		FROM read_parquet($1)
		WHERE date >= $2 AND date <= $3
		ORDER BY hour_ms%s
	`, s.limitClause())

	rows, err := s.db.QueryContext(ctx, query, snapshot.Path(s.dir, tables.HeartRate), r.Start, r.End)
	if err != nil {
		s.stats.Errors++
		return nil, fmt.Errorf("query %s: %w", tables.HeartRate, err)
	}
	defer rows.Close()

	var out []tables.HeartRateHourlyRow
	for rows.Next() {
		var row tables.HeartRateHourlyRow
		var p50, p90 sql.NullFloat64
		if err := rows.Scan(&row.Date, &row.HourMs, &row.AvgBPM, &row.MinBPM, &row.MaxBPM,
			&p50, &p90, &row.ReadingCount, &row.DataSource); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row.P50BPM = nullF64(p50)
		row.P90BPM = nullF64(p90)
		out = append(out, row)
	}
	s.recordQuery(len(out))
	return out, rows.Err()
}

// SleepSessions returns sleep sessions for days within the range.
func (s *Service) SleepSessions(ctx context.Context, r DateRange) ([]tables.SleepSessionRow, error) {
	rows, err := s.rangeQuery(ctx, tables.Sleep,
		`log_id, date, start_ms, end_ms, duration_min, minutes_asleep, minutes_awake,
		 time_in_bed, efficiency, sleep_type, wake_min, light_min, deep_min, rem_min, data_source`, r)
	if rows == nil || err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tables.SleepSessionRow
	for rows.Next() {
		var row tables.SleepSessionRow
		var logID sql.NullInt64
		var eff, wake, light, deep, rem sql.NullInt32
		if err := rows.Scan(&logID, &row.Date, &row.StartMs, &row.EndMs, &row.DurationMin,
			&row.MinutesAsleep, &row.MinutesAwake, &row.TimeInBed, &eff, &row.SleepType,
			&wake, &light, &deep, &rem, &row.DataSource); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row.LogID = nullI64(logID)
		row.Efficiency = nullI32(eff)
		row.WakeMin = nullI32(wake)
		row.LightMin = nullI32(light)
		row.DeepMin = nullI32(deep)
		row.RemMin = nullI32(rem)
		out = append(out, row)
	}
	s.recordQuery(len(out))
	return out, rows.Err()
}

// ZoneMinutes returns daily zone-minute rows within the range.
func (s *Service) ZoneMinutes(ctx context.Context, r DateRange) ([]tables.ZoneMinutesDailyRow, error) {
	rows, err := s.rangeQuery(ctx, tables.ZoneMinutes,
		"date, fat_burn_min, cardio_min, peak_min, out_of_range_min, total_active_min, data_source", r)
	if rows == nil || err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tables.ZoneMinutesDailyRow
	for rows.Next() {
		var row tables.ZoneMinutesDailyRow
		if err := rows.Scan(&row.Date, &row.FatBurnMin, &row.CardioMin, &row.PeakMin,
			&row.OutOfRangeMin, &row.TotalActiveMin, &row.DataSource); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, row)
	}
	s.recordQuery(len(out))
	return out, rows.Err()
}

// Activities returns activity sessions for days within the range, ordered
// by date then start time.
func (s *Service) Activities(ctx context.Context, r DateRange) ([]tables.ActivityRow, error) {
	if !snapshot.Exists(s.dir, tables.Activities) {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT log_id, date, start_ms, activity_name, duration_min, calories, distance_km,
		       avg_heart_rate, steps, fat_burn_min, cardio_min, peak_min, data_source
		FROM read_parquet($1)
		WHERE date >= $2 AND date <= $3
		ORDER BY date, start_ms%s
	`, s.limitClause())

	rows, err := s.db.QueryContext(ctx, query, snapshot.Path(s.dir, tables.Activities), r.Start, r.End)
	if err != nil {
		s.stats.Errors++
		return nil, fmt.Errorf("query %s: %w", tables.Activities, err)
	}
	defer rows.Close()

	var out []tables.ActivityRow
	for rows.Next() {
		var row tables.ActivityRow
		var logID sql.NullInt64
		var steps sql.NullInt64
		var cal, dist, avgHR, fb, cardio, peak sql.NullFloat64
		if err := rows.Scan(&logID, &row.Date, &row.StartMs, &row.ActivityName, &row.DurationMin,
			&cal, &dist, &avgHR, &steps, &fb, &cardio, &peak, &row.DataSource); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row.LogID = nullI64(logID)
		row.Calories = nullF64(cal)
		row.DistanceKm = nullF64(dist)
		row.AvgHeartRate = nullF64(avgHR)
		row.Steps = nullI64(steps)
		row.FatBurnMin = nullF64(fb)
		row.CardioMin = nullF64(cardio)
		row.PeakMin = nullF64(peak)
		out = append(out, row)
	}
	s.recordQuery(len(out))
	return out, rows.Err()
}

// DailySummary returns summary rows within the range, date ascending.
func (s *Service) DailySummary(ctx context.Context, r DateRange) ([]tables.DailySummaryRow, error) {
	rows, err := s.rangeQuery(ctx, tables.DailySummary,
		`date, total_steps, active_minutes, resting_hr, minutes_asleep, time_in_bed,
		 sleep_efficiency, wake_min, light_min, deep_min, rem_min,
		 zone_fat_burn_min, zone_cardio_min, zone_peak_min, zone_active_min,
		 activity_count, activity_minutes, activity_calories`, r)
	if rows == nil || err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tables.DailySummaryRow
	for rows.Next() {
		var row tables.DailySummaryRow
		var totalSteps sql.NullInt64
		var activeMin, asleep, inBed, wake, light, deep, rem, actCount sql.NullInt32
		var rhr, eff, zoneFB, zoneCardio, zonePeak, zoneActive, actMin, actCal sql.NullFloat64
		if err := rows.Scan(&row.Date, &totalSteps, &activeMin, &rhr, &asleep, &inBed,
			&eff, &wake, &light, &deep, &rem,
			&zoneFB, &zoneCardio, &zonePeak, &zoneActive,
			&actCount, &actMin, &actCal); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row.TotalSteps = nullI64(totalSteps)
		row.ActiveMinutes = nullI32(activeMin)
		row.RestingHR = nullF64(rhr)
		row.MinutesAsleep = nullI32(asleep)
		row.TimeInBed = nullI32(inBed)
		row.SleepEfficiency = nullF64(eff)
		row.WakeMin = nullI32(wake)
		row.LightMin = nullI32(light)
		row.DeepMin = nullI32(deep)
		row.RemMin = nullI32(rem)
		row.ZoneFatBurnMin = nullF64(zoneFB)
		row.ZoneCardioMin = nullF64(zoneCardio)
		row.ZonePeakMin = nullF64(zonePeak)
		row.ZoneActiveMin = nullF64(zoneActive)
		row.ActivityCount = nullI32(actCount)
		row.ActivityMinutes = nullF64(actMin)
		row.ActivityCalories = nullF64(actCal)
		out = append(out, row)
	}
	s.recordQuery(len(out))
	return out, rows.Err()
}

func (s *Service) recordQuery(rows int) {
	s.stats.QueriesExecuted++
	s.stats.RowsReturned += int64(rows)
}

func nullF64(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullI64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func nullI32(v sql.NullInt32) *int32 {
	if !v.Valid {
		return nil
	}
	i := v.Int32
	return &i
}
