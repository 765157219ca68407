// Package aggregate reduces the normalized family tables into the
// daily_summary table.
//
// The reduction is a pure function over in-memory rows: one output row per
// calendar date present in any daily-grain input table (union, not
// intersection). Count-like columns sum, resting heart rate takes the
// arithmetic mean, sleep stages sum per date. A date with no contributing
// rows for a column keeps a nil pointer, so "no data" stays distinct from
// an explicit zero all the way into the snapshot.
package aggregate

import (
	"sort"

	"github.com/tskov/fitloom/internal/tables"
)

// Input carries the daily-grain family tables. The hourly heart-rate table
// is intentionally absent: its daily representative in the summary is the
// resting heart rate, and the hourly table is queried at its own grain.
type Input struct {
	Steps       []tables.StepsDailyRow
	RestingHR   []tables.RestingHeartRateRow
	Sleep       []tables.SleepSessionRow
	ZoneMinutes []tables.ZoneMinutesDailyRow
	Activities  []tables.ActivityRow
}

type dayBuilder struct {
	totalSteps    *int64
	activeMinutes *int32

	rhrSum   float64
	rhrCount int

	minutesAsleep *int32
	timeInBed     *int32
	effSum        float64
	effCount      int
	wakeMin       *int32
	lightMin      *int32
	deepMin       *int32
	remMin        *int32

	zoneFatBurn *float64
	zoneCardio  *float64
	zonePeak    *float64
	zoneActive  *float64

	activityCount    *int32
	activityMinutes  *float64
	activityCalories *float64
}

// Daily produces exactly one DailySummaryRow per date present in any input
// table, sorted by date ascending.
func Daily(in Input) []tables.DailySummaryRow {
	days := make(map[string]*dayBuilder)

	day := func(date string) *dayBuilder {
		b := days[date]
		if b == nil {
			b = &dayBuilder{}
			days[date] = b
		}
		return b
	}

	for _, r := range in.Steps {
		b := day(r.Date)
		b.totalSteps = addI64(b.totalSteps, r.TotalSteps)
		if r.ActiveMinutes != nil {
			b.activeMinutes = addI32(b.activeMinutes, *r.ActiveMinutes)
		}
	}

	for _, r := range in.RestingHR {
		b := day(r.Date)
		b.rhrSum += r.RestingHR
		b.rhrCount++
	}

	for _, r := range in.Sleep {
		b := day(r.Date)
		b.minutesAsleep = addI32(b.minutesAsleep, r.MinutesAsleep)
		b.timeInBed = addI32(b.timeInBed, r.TimeInBed)
		if r.Efficiency != nil {
			b.effSum += float64(*r.Efficiency)
			b.effCount++
		}
		if r.WakeMin != nil {
			b.wakeMin = addI32(b.wakeMin, *r.WakeMin)
		}
		if r.LightMin != nil {
			b.lightMin = addI32(b.lightMin, *r.LightMin)
		}
		if r.DeepMin != nil {
			b.deepMin = addI32(b.deepMin, *r.DeepMin)
		}
		if r.RemMin != nil {
			b.remMin = addI32(b.remMin, *r.RemMin)
		}
	}

	for _, r := range in.ZoneMinutes {
		b := day(r.Date)
		b.zoneFatBurn = addF64(b.zoneFatBurn, r.FatBurnMin)
		b.zoneCardio = addF64(b.zoneCardio, r.CardioMin)
		b.zonePeak = addF64(b.zonePeak, r.PeakMin)
		b.zoneActive = addF64(b.zoneActive, r.TotalActiveMin)
	}

	for _, r := range in.Activities {
		b := day(r.Date)
		b.activityCount = addI32(b.activityCount, 1)
		b.activityMinutes = addF64(b.activityMinutes, r.DurationMin)
		if r.Calories != nil {
			b.activityCalories = addF64(b.activityCalories, *r.Calories)
		}
	}

	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	rows := make([]tables.DailySummaryRow, 0, len(dates))
	for _, date := range dates {
		b := days[date]
		row := tables.DailySummaryRow{
			Date:             date,
			TotalSteps:       b.totalSteps,
			ActiveMinutes:    b.activeMinutes,
			MinutesAsleep:    b.minutesAsleep,
			TimeInBed:        b.timeInBed,
			WakeMin:          b.wakeMin,
			LightMin:         b.lightMin,
			DeepMin:          b.deepMin,
			RemMin:           b.remMin,
			ZoneFatBurnMin:   b.zoneFatBurn,
			ZoneCardioMin:    b.zoneCardio,
			ZonePeakMin:      b.zonePeak,
			ZoneActiveMin:    b.zoneActive,
			ActivityCount:    b.activityCount,
			ActivityMinutes:  b.activityMinutes,
			ActivityCalories: b.activityCalories,
		}
		if b.rhrCount > 0 {
			v := b.rhrSum / float64(b.rhrCount)
			row.RestingHR = &v
		}
		if b.effCount > 0 {
			v := b.effSum / float64(b.effCount)
			row.SleepEfficiency = &v
		}
		rows = append(rows, row)
	}

	return rows
}

func addI64(dst *int64, v int64) *int64 {
	if dst == nil {
		n := v
		return &n
	}
	*dst += v
	return dst
}

func addI32(dst *int32, v int32) *int32 {
	if dst == nil {
		n := v
		return &n
	}
	*dst += v
	return dst
}

func addF64(dst *float64, v float64) *float64 {
	if dst == nil {
		n := v
		return &n
	}
	*dst += v
	return dst
}
