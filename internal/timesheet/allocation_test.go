package timesheet_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/greenridge/fieldops/internal/models"
	"github.com/greenridge/fieldops/internal/timesheet"
)

func travelRecord(id string, travelMinutes int, billableHours float64) *models.WorkRecord {
	return &models.WorkRecord{
		ID:                id,
		ClientName:        "client-" + id,
		TravelTimeMinutes: travelMinutes,
		BillableHours:     billableHours,
	}
}

func TestAllocateProportionalShares(t *testing.T) {
	// Pool 75 travel minutes over base hours [2, 5, 1] (total 8):
	// floor(18.75)=18, floor(46.875)=46, floor(9.375)=9.
	records := []*models.WorkRecord{
		travelRecord("a", 30, 2),
		travelRecord("b", 5, 5),
		travelRecord("c", 40, 1),
	}

	result, err := timesheet.Allocate(records, timesheet.MetricTravel)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if result.TotalPoolMinutes != 75 {
		t.Errorf("TotalPoolMinutes = %d, want 75", result.TotalPoolMinutes)
	}
	if result.TotalBaseHours != 8 {
		t.Errorf("TotalBaseHours = %v, want 8", result.TotalBaseHours)
	}

	wantMinutes := []int{18, 46, 9}
	wantBillable := []float64{2.30, 5.77, 1.15}
	for i, ra := range result.Records {
		if ra.AllocatedMinutes != wantMinutes[i] {
			t.Errorf("record %s: AllocatedMinutes = %d, want %d", ra.RecordID, ra.AllocatedMinutes, wantMinutes[i])
		}
		if ra.NewBillableHours != wantBillable[i] {
			t.Errorf("record %s: NewBillableHours = %v, want %v", ra.RecordID, ra.NewBillableHours, wantBillable[i])
		}
	}
}

func TestAllocateFloorDeficitBound(t *testing.T) {
	tests := []struct {
		name    string
		records []*models.WorkRecord
	}{
		{
			name: "even split",
			records: []*models.WorkRecord{
				travelRecord("a", 30, 4),
				travelRecord("b", 30, 4),
			},
		},
		{
			name: "uneven bases",
			records: []*models.WorkRecord{
				travelRecord("a", 17, 1.5),
				travelRecord("b", 23, 2.75),
				travelRecord("c", 9, 0.25),
				travelRecord("d", 41, 6),
			},
		},
		{
			name: "single record takes whole pool",
			records: []*models.WorkRecord{
				travelRecord("a", 55, 3),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := timesheet.Allocate(tt.records, timesheet.MetricTravel)
			if err != nil {
				t.Fatalf("Allocate: %v", err)
			}
			sum := 0
			for _, ra := range result.Records {
				sum += ra.AllocatedMinutes
			}
			if sum > result.TotalPoolMinutes {
				t.Errorf("allocated %d minutes, exceeds pool of %d", sum, result.TotalPoolMinutes)
			}
			if deficit := result.TotalPoolMinutes - sum; deficit >= len(tt.records) {
				t.Errorf("deficit %d, want < %d", deficit, len(tt.records))
			}
		})
	}
}

func TestAllocateZeroPool(t *testing.T) {
	records := []*models.WorkRecord{
		travelRecord("a", 0, 2),
		travelRecord("b", 0, 3),
	}

	result, err := timesheet.Allocate(records, timesheet.MetricTravel)
	if err != nil {
		t.Fatalf("zero pool must not error, got %v", err)
	}
	if !result.HasZeroPool {
		t.Error("result.HasZeroPool = false, want true")
	}
	for _, ra := range result.Records {
		if ra.AllocatedMinutes != 0 {
			t.Errorf("record %s: AllocatedMinutes = %d, want 0", ra.RecordID, ra.AllocatedMinutes)
		}
		if !ra.HasZeroPool {
			t.Errorf("record %s: HasZeroPool = false, want true", ra.RecordID)
		}
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a no-pool warning")
	}
}

func TestAllocateNoBaseHours(t *testing.T) {
	records := []*models.WorkRecord{
		travelRecord("a", 30, 0),
		travelRecord("b", 15, 0),
	}

	_, err := timesheet.Allocate(records, timesheet.MetricTravel)
	var nbe *timesheet.NoBaseHoursError
	if !errors.As(err, &nbe) {
		t.Fatalf("err = %v, want NoBaseHoursError", err)
	}
}

func TestAllocateInvalidMetric(t *testing.T) {
	if _, err := timesheet.Allocate(nil, timesheet.Metric("overtime")); err == nil {
		t.Fatal("expected an error for an unknown metric")
	}
}

func TestAllocateBreakMetricUsesBreakFields(t *testing.T) {
	records := []*models.WorkRecord{
		{ID: "a", ClientName: "alpha", BreakTimeMinutes: 20, TravelTimeMinutes: 90, BillableHours: 3},
		{ID: "b", ClientName: "beta", BreakTimeMinutes: 40, TravelTimeMinutes: 90, BillableHours: 3},
	}

	result, err := timesheet.Allocate(records, timesheet.MetricBreak)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if result.TotalPoolMinutes != 60 {
		t.Errorf("TotalPoolMinutes = %d, want 60 (break pool, not travel)", result.TotalPoolMinutes)
	}
	for _, ra := range result.Records {
		if ra.AllocatedMinutes != 30 {
			t.Errorf("record %s: AllocatedMinutes = %d, want 30", ra.RecordID, ra.AllocatedMinutes)
		}
	}
}

func TestAllocateIdempotentAfterApply(t *testing.T) {
	records := []*models.WorkRecord{
		travelRecord("a", 30, 2),
		travelRecord("b", 5, 5),
		travelRecord("c", 40, 1),
	}

	first, err := timesheet.Allocate(records, timesheet.MetricTravel)
	if err != nil {
		t.Fatalf("first Allocate: %v", err)
	}

	// Simulate an apply: persist each allocation and recompute billable hours
	// the way the store does.
	for i, ra := range first.Records {
		allocated := ra.AllocatedMinutes
		records[i].AdjustedTravelTimeMinutes = &allocated
		records[i].TotalHours = ra.BaseHours // raw inputs behind the base
		records[i].BillableHours = timesheet.CalculateRecord(records[i])
	}

	second, err := timesheet.Allocate(records, timesheet.MetricTravel)
	if err != nil {
		t.Fatalf("second Allocate: %v", err)
	}

	for i := range first.Records {
		if first.Records[i].AllocatedMinutes != second.Records[i].AllocatedMinutes {
			t.Errorf("record %s: rerun changed allocation %d -> %d",
				first.Records[i].RecordID,
				first.Records[i].AllocatedMinutes,
				second.Records[i].AllocatedMinutes)
		}
	}

	if !strings.Contains(strings.Join(second.Warnings, "\n"), "will be replaced") {
		t.Error("rerun should warn that existing allocations will be replaced")
	}
}

func TestAllocateWarnsOnZeroRawPoolRecord(t *testing.T) {
	records := []*models.WorkRecord{
		travelRecord("a", 60, 2),
		travelRecord("b", 0, 2), // no recorded travel, still gets a share
	}

	result, err := timesheet.Allocate(records, timesheet.MetricTravel)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if result.Records[1].AllocatedMinutes != 30 {
		t.Errorf("zero-raw record AllocatedMinutes = %d, want 30", result.Records[1].AllocatedMinutes)
	}
	if !result.Records[1].HasZeroPool {
		t.Error("zero-raw record should be flagged HasZeroPool")
	}
	if !strings.Contains(strings.Join(result.Warnings, "\n"), "no recorded travel time") {
		t.Errorf("missing zero-raw warning, got %v", result.Warnings)
	}
}
