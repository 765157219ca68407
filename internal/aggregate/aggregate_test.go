package aggregate

import (
	"testing"

	"github.com/tskov/fitloom/internal/tables"
)

func ptrF(v float64) *float64 { return &v }
func ptrI32(v int32) *int32   { return &v }

func TestDaily_UnionOfDates(t *testing.T) {
	in := Input{
		Steps: []tables.StepsDailyRow{
			{Date: "2023-01-05", TotalSteps: 8000},
		},
		RestingHR: []tables.RestingHeartRateRow{
			{Date: "2023-01-06", RestingHR: 61},
		},
		ZoneMinutes: []tables.ZoneMinutesDailyRow{
			{Date: "2023-01-07", FatBurnMin: 30, TotalActiveMin: 30},
		},
	}

	rows := Daily(in)
	if len(rows) != 3 {
		t.Fatalf("expected 3 dates (union), got %d", len(rows))
	}
	for i, want := range []string{"2023-01-05", "2023-01-06", "2023-01-07"} {
		if rows[i].Date != want {
			t.Errorf("row %d date = %s, want %s", i, rows[i].Date, want)
		}
	}
}

// Columns with no contributing rows stay null; they never collapse to zero.
func TestDaily_NullNotZero(t *testing.T) {
	in := Input{
		Steps: []tables.StepsDailyRow{
			{Date: "2023-01-05", TotalSteps: 8000},
		},
	}

	rows := Daily(in)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	r := rows[0]
	if r.TotalSteps == nil || *r.TotalSteps != 8000 {
		t.Errorf("total_steps = %v", r.TotalSteps)
	}
	if r.RestingHR != nil {
		t.Errorf("resting_hr should be null, got %v", *r.RestingHR)
	}
	if r.MinutesAsleep != nil {
		t.Errorf("minutes_asleep should be null, got %v", *r.MinutesAsleep)
	}
	if r.ActivityCount != nil {
		t.Errorf("activity_count should be null, got %v", *r.ActivityCount)
	}
}

// An explicit zero in a source row is a real zero, not a null.
func TestDaily_ExplicitZeroSurvives(t *testing.T) {
	in := Input{
		Steps: []tables.StepsDailyRow{
			{Date: "2023-01-05", TotalSteps: 0},
		},
	}

	rows := Daily(in)
	if rows[0].TotalSteps == nil || *rows[0].TotalSteps != 0 {
		t.Fatalf("explicit zero lost: %v", rows[0].TotalSteps)
	}
}

func TestDaily_RestingHRMean(t *testing.T) {
	in := Input{
		RestingHR: []tables.RestingHeartRateRow{
			{Date: "2023-01-05", RestingHR: 60},
			{Date: "2023-01-05", RestingHR: 64},
		},
	}

	rows := Daily(in)
	if rows[0].RestingHR == nil || *rows[0].RestingHR != 62 {
		t.Fatalf("resting_hr = %v, want 62", rows[0].RestingHR)
	}
}

func TestDaily_SleepSessionsSum(t *testing.T) {
	in := Input{
		Sleep: []tables.SleepSessionRow{
			{
				Date: "2023-01-05", MinutesAsleep: 420, MinutesAwake: 50, TimeInBed: 470,
				Efficiency: ptrI32(90), SleepType: tables.SleepStages,
				WakeMin: ptrI32(50), LightMin: ptrI32(250), DeepMin: ptrI32(80), RemMin: ptrI32(90),
			},
			{
				Date: "2023-01-05", MinutesAsleep: 55, MinutesAwake: 5, TimeInBed: 60,
				Efficiency: ptrI32(96), SleepType: tables.SleepClassic,
			},
		},
	}

	rows := Daily(in)
	r := rows[0]
	if r.MinutesAsleep == nil || *r.MinutesAsleep != 475 {
		t.Errorf("minutes_asleep = %v, want 475", r.MinutesAsleep)
	}
	if r.TimeInBed == nil || *r.TimeInBed != 530 {
		t.Errorf("time_in_bed = %v, want 530", r.TimeInBed)
	}
	if r.SleepEfficiency == nil || *r.SleepEfficiency != 93 {
		t.Errorf("sleep_efficiency = %v, want 93", r.SleepEfficiency)
	}
	// Only the stages session contributes stage minutes; the classic one
	// adds nothing rather than zeroing them out.
	if r.DeepMin == nil || *r.DeepMin != 80 {
		t.Errorf("deep_min = %v, want 80", r.DeepMin)
	}
}

func TestDaily_ActivityRollup(t *testing.T) {
	in := Input{
		Activities: []tables.ActivityRow{
			{Date: "2023-01-05", DurationMin: 35, Calories: ptrF(350)},
			{Date: "2023-01-05", DurationMin: 20},
		},
	}

	rows := Daily(in)
	r := rows[0]
	if r.ActivityCount == nil || *r.ActivityCount != 2 {
		t.Errorf("activity_count = %v", r.ActivityCount)
	}
	if r.ActivityMinutes == nil || *r.ActivityMinutes != 55 {
		t.Errorf("activity_minutes = %v", r.ActivityMinutes)
	}
	// Only the session that reported calories contributes.
	if r.ActivityCalories == nil || *r.ActivityCalories != 350 {
		t.Errorf("activity_calories = %v", r.ActivityCalories)
	}
}

func TestDaily_Empty(t *testing.T) {
	rows := Daily(Input{})
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}
