// Package timesheet holds the pure billing math: the billable-hours formula
// and the proportional allocation engine. Nothing in this package reads or
// writes storage; callers feed it work records and persist the results.
package timesheet

import (
	"github.com/shopspring/decimal"

	"github.com/greenridge/fieldops/internal/models"
)

var sixty = decimal.NewFromInt(60)

// Calculate is the single implementation of the billable-hours formula:
//
//	adjustedTotal = totalHours + sum(adjustments)
//	billable      = adjustedTotal
//	              - breakMinutes/60 + adjustedBreakMinutes/60
//	              - nonBillableMinutes/60
//	              + adjustedTravelMinutes/60
//
// clamped at zero and rounded half-up to 2 decimal places. Raw break time is
// deducted and the engine-assigned fair share is credited back in its place;
// allocated travel is credited on top since raw travel never enters the
// deduction. Every caller that needs billable hours goes through here;
// keeping a second copy of this formula anywhere is a defect.
func Calculate(totalHours float64, breakMinutes, adjustedBreakMinutes, nonBillableMinutes, adjustedTravelMinutes int, adjustments []models.HoursAdjustment) float64 {
	total := decimal.NewFromFloat(totalHours)
	for _, adj := range adjustments {
		total = total.Add(decimal.NewFromFloat(adj.Hours))
	}

	billable := total.
		Sub(minutesToHours(breakMinutes)).
		Add(minutesToHours(adjustedBreakMinutes)).
		Sub(minutesToHours(nonBillableMinutes)).
		Add(minutesToHours(adjustedTravelMinutes))

	if billable.IsNegative() {
		return 0
	}
	f, _ := billable.Round(2).Float64()
	return f
}

// CalculateRecord applies the formula to a record's current fields, treating
// unset adjusted allocations as zero.
func CalculateRecord(r *models.WorkRecord) float64 {
	return Calculate(
		r.TotalHours,
		r.BreakTimeMinutes,
		r.AdjustedBreak(),
		r.NonBillableTimeMinutes,
		r.AdjustedTravel(),
		r.HoursAdjustments,
	)
}

// RoundHours rounds an hours value half-up to 2 decimal places.
func RoundHours(hours float64) float64 {
	f, _ := decimal.NewFromFloat(hours).Round(2).Float64()
	return f
}

func minutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(sixty)
}
