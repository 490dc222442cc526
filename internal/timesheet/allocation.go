package timesheet

import (
	"fmt"
	"math"

	"github.com/greenridge/fieldops/internal/models"
)

// Metric selects which pooled time field an allocation run redistributes.
type Metric string

const (
	MetricBreak  Metric = "break"
	MetricTravel Metric = "travel"
)

// Valid reports whether m names a known allocation metric.
func (m Metric) Valid() bool {
	return m == MetricBreak || m == MetricTravel
}

// PoolMinutes returns the record's raw pooled value for this metric.
func (m Metric) PoolMinutes(r *models.WorkRecord) int {
	if m == MetricTravel {
		return r.TravelTimeMinutes
	}
	return r.BreakTimeMinutes
}

// AdjustedMinutes returns the record's current engine-assigned allocation
// for this metric, 0 when unset.
func (m Metric) AdjustedMinutes(r *models.WorkRecord) int {
	if m == MetricTravel {
		return r.AdjustedTravel()
	}
	return r.AdjustedBreak()
}

// RecordAllocation is one record's share of an allocation run.
type RecordAllocation struct {
	RecordID         string  `json:"record_id"`
	ClientName       string  `json:"client_name"`
	RawPoolMinutes   int     `json:"raw_pool_minutes"`
	BaseHours        float64 `json:"base_hours"`
	Proportion       float64 `json:"proportion"`
	AllocatedMinutes int     `json:"allocated_minutes"`
	NewBillableHours float64 `json:"new_billable_hours"`
	HasZeroPool      bool    `json:"has_zero_pool"`
}

// AllocationResult is the outcome of redistributing one day's pool. It is a
// preview: nothing is persisted by the engine. UpdatedCount stays 0 until an
// apply writes the allocations through the store.
type AllocationResult struct {
	Date             string             `json:"date,omitempty"`
	Metric           Metric             `json:"metric"`
	Records          []RecordAllocation `json:"records"`
	TotalPoolMinutes int                `json:"total_pool_minutes"`
	TotalBaseHours   float64            `json:"total_base_hours"`
	HasZeroPool      bool               `json:"has_zero_pool"`
	Warnings         []string           `json:"warnings,omitempty"`
	UpdatedCount     int                `json:"updated_count"`
}

// NoBaseHoursError means the day has no proportional basis: every record's
// base billable hours are zero, so pooled minutes cannot be distributed.
type NoBaseHoursError struct {
	Date string
}

func (e *NoBaseHoursError) Error() string {
	if e.Date == "" {
		return "no base billable hours to allocate against"
	}
	return fmt.Sprintf("no base billable hours to allocate against on %s", e.Date)
}

// Allocate redistributes the day's pooled minutes for the given metric across
// records in proportion to each record's base billable hours, floor-rounding
// each share. Base hours are the record's current billable hours with any
// previously applied allocation stripped, so rerunning after an apply yields
// the same shares instead of compounding them.
//
// Independent flooring can leave up to len(records)-1 pool minutes
// unallocated; that deficit is accepted, there is no remainder pass.
func Allocate(records []*models.WorkRecord, metric Metric) (*AllocationResult, error) {
	if !metric.Valid() {
		return nil, fmt.Errorf("unknown allocation metric %q", metric)
	}

	result := &AllocationResult{
		Metric:  metric,
		Records: make([]RecordAllocation, 0, len(records)),
	}

	for _, r := range records {
		result.TotalPoolMinutes += metric.PoolMinutes(r)
	}

	if result.TotalPoolMinutes == 0 {
		result.HasZeroPool = true
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no %s minutes to allocate", metric))
		for _, r := range records {
			base := baseHours(r, metric)
			result.TotalBaseHours += base
			result.Records = append(result.Records, RecordAllocation{
				RecordID:         r.ID,
				ClientName:       r.ClientName,
				RawPoolMinutes:   0,
				BaseHours:        base,
				AllocatedMinutes: 0,
				NewBillableHours: RoundHours(base),
				HasZeroPool:      true,
			})
		}
		result.TotalBaseHours = RoundHours(result.TotalBaseHours)
		return result, nil
	}

	bases := make([]float64, len(records))
	for i, r := range records {
		if prev := metric.AdjustedMinutes(r); prev != 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("record %s (%s): existing %s allocation of %d minutes will be replaced",
					r.ID, r.ClientName, metric, prev))
		}
		bases[i] = baseHours(r, metric)
		result.TotalBaseHours += bases[i]
	}

	if result.TotalBaseHours <= 0 {
		return nil, &NoBaseHoursError{}
	}

	for i, r := range records {
		raw := metric.PoolMinutes(r)
		proportion := bases[i] / result.TotalBaseHours
		allocated := int(math.Floor(float64(result.TotalPoolMinutes) * proportion))
		newBillable := bases[i] + float64(allocated)/60
		if newBillable < 0 {
			newBillable = 0
		}

		if raw == 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("record %s (%s): no recorded %s time but receives a %d minute share",
					r.ID, r.ClientName, metric, allocated))
		}

		result.Records = append(result.Records, RecordAllocation{
			RecordID:         r.ID,
			ClientName:       r.ClientName,
			RawPoolMinutes:   raw,
			BaseHours:        bases[i],
			Proportion:       proportion,
			AllocatedMinutes: allocated,
			NewBillableHours: RoundHours(newBillable),
			HasZeroPool:      raw == 0,
		})
	}

	result.TotalBaseHours = RoundHours(result.TotalBaseHours)
	return result, nil
}

// baseHours strips the record's previous allocation for the metric out of its
// current billable hours, clamping at zero. The clamp only matters when a
// stored billable value predates the stored allocation, which indicates
// upstream over-deduction; proportions must still stay non-negative.
func baseHours(r *models.WorkRecord, metric Metric) float64 {
	base := r.BillableHours - float64(metric.AdjustedMinutes(r))/60
	if base < 0 {
		return 0
	}
	return base
}
