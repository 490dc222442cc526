package timesheet_test

import (
	"testing"

	"github.com/greenridge/fieldops/internal/models"
	"github.com/greenridge/fieldops/internal/timesheet"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name            string
		totalHours      float64
		breakMin        int
		adjBreakMin     int
		nonBillableMin  int
		adjTravelMin    int
		adjustments     []models.HoursAdjustment
		want            float64
	}{
		{
			name:       "standard day",
			totalHours: 8.0, breakMin: 60, adjBreakMin: 30, nonBillableMin: 30, adjTravelMin: 45,
			want: 7.75,
		},
		{
			name:       "over-deduction clamps to zero",
			totalHours: 1.0, breakMin: 120, nonBillableMin: 30,
			want: 0.0,
		},
		{
			name:       "manual adjustment adds before deductions",
			totalHours: 8.0, breakMin: 60, adjBreakMin: 45, nonBillableMin: 30, adjTravelMin: 90,
			adjustments: []models.HoursAdjustment{{Hours: 0.5, Reason: "forgot to clock in"}},
			want:        9.25,
		},
		{
			name:       "all zero inputs",
			totalHours: 0,
			want:       0,
		},
		{
			name:       "no deductions passes total through",
			totalHours: 6.5,
			want:       6.5,
		},
		{
			name:       "negative adjustment subtracts",
			totalHours: 8.0, adjustments: []models.HoursAdjustment{{Hours: -1.25}},
			want: 6.75,
		},
		{
			name:       "repeating fraction rounds half-up to 2 places",
			totalHours: 5.0, adjTravelMin: 46,
			want: 5.77, // 5 + 46/60 = 5.7666...
		},
		{
			name:       "travel credit alone",
			totalHours: 0, adjTravelMin: 18,
			want: 0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timesheet.Calculate(tt.totalHours, tt.breakMin, tt.adjBreakMin, tt.nonBillableMin, tt.adjTravelMin, tt.adjustments)
			if got != tt.want {
				t.Errorf("Calculate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateRecordTreatsNilAdjustmentsAsZero(t *testing.T) {
	record := &models.WorkRecord{
		TotalHours:             8.0,
		BreakTimeMinutes:       60,
		NonBillableTimeMinutes: 30,
	}
	got := timesheet.CalculateRecord(record)
	if got != 6.5 {
		t.Errorf("CalculateRecord() = %v, want 6.5", got)
	}

	adjBreak := 30
	adjTravel := 45
	record.AdjustedBreakTimeMinutes = &adjBreak
	record.AdjustedTravelTimeMinutes = &adjTravel
	got = timesheet.CalculateRecord(record)
	if got != 7.75 {
		t.Errorf("CalculateRecord() with allocations = %v, want 7.75", got)
	}
}

func TestCalculateMatchesRecordVariant(t *testing.T) {
	// The two entry points must never diverge; they are the same formula.
	record := &models.WorkRecord{
		TotalHours:             7.25,
		BreakTimeMinutes:       45,
		NonBillableTimeMinutes: 15,
		HoursAdjustments:       []models.HoursAdjustment{{Hours: 0.75}, {Hours: -0.25}},
	}
	adjBreak := 20
	adjTravel := 33
	record.AdjustedBreakTimeMinutes = &adjBreak
	record.AdjustedTravelTimeMinutes = &adjTravel

	direct := timesheet.Calculate(7.25, 45, 20, 15, 33, record.HoursAdjustments)
	viaRecord := timesheet.CalculateRecord(record)
	if direct != viaRecord {
		t.Errorf("Calculate = %v but CalculateRecord = %v", direct, viaRecord)
	}
}

func TestRoundHours(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{5.766666, 5.77},
		{5.765, 5.77}, // half rounds up
		{5.764, 5.76},
		{0, 0},
		{2.3, 2.3},
	}
	for _, tt := range tests {
		if got := timesheet.RoundHours(tt.in); got != tt.want {
			t.Errorf("RoundHours(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
