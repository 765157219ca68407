// Package tables defines the fixed output schemas of the pipeline.
//
// One struct per snapshot table. Column names and types are the stable
// contract between the ETL side and the query side: they must not change
// across runs. Optional columns are pointer-typed and marked optional in
// the Parquet schema so that "no data" survives as a real null rather
// than a zero.
package tables

import "time"

// Snapshot table names. The Parquet file for a table is Name + ".parquet".
const (
	Steps        = "steps_daily"
	HeartRate    = "heart_rate_hourly"
	RestingHR    = "resting_heart_rate"
	Sleep        = "sleep_sessions"
	ZoneMinutes  = "zone_minutes_daily"
	Activities   = "activities"
	DailySummary = "daily_summary"
)

// All lists every snapshot table in write order.
func All() []string {
	return []string{Steps, HeartRate, RestingHR, Sleep, ZoneMinutes, Activities, DailySummary}
}

// DateFormat is the canonical calendar-date encoding used in every table.
// Lexicographic order equals chronological order.
const DateFormat = "2006-01-02"

// FormatDate renders t as a canonical date in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// Sleep session types.
const (
	SleepClassic = "classic"
	SleepStages  = "stages"
)

// StepsDailyRow is one calendar day of step data.
type StepsDailyRow struct {
	Date       string `parquet:"date,zstd"`
	TotalSteps int64  `parquet:"total_steps"`
	// ActiveMinutes counts intraday intervals with nonzero steps. It is
	// null when the source only carried a daily total.
	ActiveMinutes *int32 `parquet:"active_minutes,optional"`
	DataSource    string `parquet:"data_source,zstd"`
}

// HeartRateHourlyRow is one hour of reduced intraday heart-rate readings.
type HeartRateHourlyRow struct {
	Date         string   `parquet:"date,zstd"`
	HourMs       int64    `parquet:"hour_ms"`
	AvgBPM       float64  `parquet:"avg_bpm"`
	MinBPM       int32    `parquet:"min_bpm"`
	MaxBPM       int32    `parquet:"max_bpm"`
	P50BPM       *float64 `parquet:"p50_bpm,optional"`
	P90BPM       *float64 `parquet:"p90_bpm,optional"`
	ReadingCount int64    `parquet:"reading_count"`
	DataSource   string   `parquet:"data_source,zstd"`
}

// RestingHeartRateRow is one daily resting heart-rate value.
type RestingHeartRateRow struct {
	Date          string   `parquet:"date,zstd"`
	RestingHR     float64  `parquet:"resting_hr"`
	ErrorEstimate *float64 `parquet:"error_estimate,optional"`
	DataSource    string   `parquet:"data_source,zstd"`
}

// SleepSessionRow is one logged sleep session. Classic-era sessions carry
// null stage minutes; stages-era sessions carry all four.
type SleepSessionRow struct {
	LogID         *int64  `parquet:"log_id,optional"`
	Date          string  `parquet:"date,zstd"`
	StartMs       int64   `parquet:"start_ms"`
	EndMs         int64   `parquet:"end_ms"`
	DurationMin   float64 `parquet:"duration_min"`
	MinutesAsleep int32   `parquet:"minutes_asleep"`
	MinutesAwake  int32   `parquet:"minutes_awake"`
	TimeInBed     int32   `parquet:"time_in_bed"`
	Efficiency    *int32  `parquet:"efficiency,optional"`
	SleepType     string  `parquet:"sleep_type,zstd"`
	WakeMin       *int32  `parquet:"wake_min,optional"`
	LightMin      *int32  `parquet:"light_min,optional"`
	DeepMin       *int32  `parquet:"deep_min,optional"`
	RemMin        *int32  `parquet:"rem_min,optional"`
	DataSource    string  `parquet:"data_source,zstd"`
}

// ZoneMinutesDailyRow is one calendar day of time-in-heart-rate-zone data.
type ZoneMinutesDailyRow struct {
	Date           string  `parquet:"date,zstd"`
	FatBurnMin     float64 `parquet:"fat_burn_min"`
	CardioMin      float64 `parquet:"cardio_min"`
	PeakMin        float64 `parquet:"peak_min"`
	OutOfRangeMin  float64 `parquet:"out_of_range_min"`
	TotalActiveMin float64 `parquet:"total_active_min"`
	DataSource     string  `parquet:"data_source,zstd"`
}

// ActivityRow is one logged exercise session.
type ActivityRow struct {
	LogID        *int64   `parquet:"log_id,optional"`
	Date         string   `parquet:"date,zstd"`
	StartMs      int64    `parquet:"start_ms"`
	ActivityName string   `parquet:"activity_name,zstd"`
	DurationMin  float64  `parquet:"duration_min"`
	Calories     *float64 `parquet:"calories,optional"`
	DistanceKm   *float64 `parquet:"distance_km,optional"`
	AvgHeartRate *float64 `parquet:"avg_heart_rate,optional"`
	Steps        *int64   `parquet:"steps,optional"`
	FatBurnMin   *float64 `parquet:"fat_burn_min,optional"`
	CardioMin    *float64 `parquet:"cardio_min,optional"`
	PeakMin      *float64 `parquet:"peak_min,optional"`
	DataSource   string   `parquet:"data_source,zstd"`
}

// DailySummaryRow is the one-row-per-date reduction across all daily-grain
// family tables. Every metric column is nullable: null means no family
// contributed data for that date, which is distinct from an explicit zero.
type DailySummaryRow struct {
	Date string `parquet:"date,zstd"`

	TotalSteps    *int64 `parquet:"total_steps,optional"`
	ActiveMinutes *int32 `parquet:"active_minutes,optional"`

	RestingHR *float64 `parquet:"resting_hr,optional"`

	MinutesAsleep   *int32   `parquet:"minutes_asleep,optional"`
	TimeInBed       *int32   `parquet:"time_in_bed,optional"`
	SleepEfficiency *float64 `parquet:"sleep_efficiency,optional"`
	WakeMin         *int32   `parquet:"wake_min,optional"`
	LightMin        *int32   `parquet:"light_min,optional"`
	DeepMin         *int32   `parquet:"deep_min,optional"`
	RemMin          *int32   `parquet:"rem_min,optional"`

	ZoneFatBurnMin *float64 `parquet:"zone_fat_burn_min,optional"`
	ZoneCardioMin  *float64 `parquet:"zone_cardio_min,optional"`
	ZonePeakMin    *float64 `parquet:"zone_peak_min,optional"`
	ZoneActiveMin  *float64 `parquet:"zone_active_min,optional"`

	ActivityCount    *int32   `parquet:"activity_count,optional"`
	ActivityMinutes  *float64 `parquet:"activity_minutes,optional"`
	ActivityCalories *float64 `parquet:"activity_calories,optional"`
}
