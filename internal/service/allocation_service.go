package service

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/greenridge/fieldops/internal/models"
	"github.com/greenridge/fieldops/internal/timesheet"
)

// AllocationService drives the proportional allocation engine over a single
// date or an inclusive date range, and separates previewing shares from
// persisting them.
type AllocationService struct {
	store  WorkRecordStore
	logger *zap.Logger
}

// RangeResult aggregates per-day allocation results over an inclusive
// calendar range.
type RangeResult struct {
	StartDate        string                        `json:"start_date"`
	EndDate          string                        `json:"end_date"`
	Metric           timesheet.Metric              `json:"metric"`
	TotalDays        int                           `json:"total_days"`
	DaysWithData     int                           `json:"days_with_data"`
	DaysWithWarnings int                           `json:"days_with_warnings"`
	DaysWithNoData   int                           `json:"days_with_no_data"`
	Days             []*timesheet.AllocationResult `json:"days"`
	UpdatedCount     int                           `json:"updated_count"`
}

func NewAllocationService(store WorkRecordStore, logger *zap.Logger) *AllocationService {
	return &AllocationService{
		store:  store,
		logger: logger,
	}
}

// Preview computes the day's allocation without writing anything.
func (s *AllocationService) Preview(date time.Time, metric timesheet.Metric) (*timesheet.AllocationResult, error) {
	day := models.FormatDay(date)

	records, err := s.store.GetRecordsForDate(date)
	if err != nil {
		return nil, fmt.Errorf("failed to load records for %s: %w", day, err)
	}
	if len(records) == 0 {
		return nil, &NoRecordsError{Date: day}
	}

	result, err := timesheet.Allocate(records, metric)
	if err != nil {
		var nbe *timesheet.NoBaseHoursError
		if errors.As(err, &nbe) {
			nbe.Date = day
		}
		return nil, err
	}
	result.Date = day

	s.logger.Debug("Allocation previewed",
		zap.String("date", day),
		zap.String("metric", string(metric)),
		zap.Int("record_count", len(result.Records)),
		zap.Int("pool_minutes", result.TotalPoolMinutes),
		zap.Int("warning_count", len(result.Warnings)),
	)
	return result, nil
}

// Apply persists a previewed allocation record by record. Each write sets the
// metric's adjusted minutes and marks the record locally edited; the store
// recomputes billable hours as part of the update. The first failed write
// aborts the apply, leaving earlier writes in place, and is returned as a
// RecordUpdateError.
func (s *AllocationService) Apply(result *timesheet.AllocationResult) (*timesheet.AllocationResult, error) {
	provenance := models.ProvenanceLocal

	for _, ra := range result.Records {
		allocated := ra.AllocatedMinutes
		req := &models.UpdateWorkRecordRequest{Provenance: &provenance}
		if result.Metric == timesheet.MetricTravel {
			req.AdjustedTravelTimeMinutes = &allocated
		} else {
			req.AdjustedBreakTimeMinutes = &allocated
		}

		if _, err := s.store.Update(ra.RecordID, req); err != nil {
			s.logger.Error("Failed to apply allocation",
				zap.String("date", result.Date),
				zap.String("metric", string(result.Metric)),
				zap.String("record_id", ra.RecordID),
				zap.Error(err),
			)
			return result, &RecordUpdateError{RecordID: ra.RecordID, Err: err}
		}
		result.UpdatedCount++
	}

	s.logger.Info("Allocation applied",
		zap.String("date", result.Date),
		zap.String("metric", string(result.Metric)),
		zap.Int("updated_count", result.UpdatedCount),
	)
	return result, nil
}

// CalculateAndApply is Preview immediately followed by Apply.
func (s *AllocationService) CalculateAndApply(date time.Time, metric timesheet.Metric) (*timesheet.AllocationResult, error) {
	result, err := s.Preview(date, metric)
	if err != nil {
		return nil, err
	}
	return s.Apply(result)
}

// PreviewRange previews every day in [start, end] inclusive.
func (s *AllocationService) PreviewRange(start, end time.Time, metric timesheet.Metric) (*RangeResult, error) {
	return s.runRange(start, end, metric, false)
}

// ApplyRange previews and applies every day in [start, end] inclusive. A day
// whose apply fails is kept as a warning day and the range continues.
func (s *AllocationService) ApplyRange(start, end time.Time, metric timesheet.Metric) (*RangeResult, error) {
	return s.runRange(start, end, metric, true)
}

func (s *AllocationService) runRange(start, end time.Time, metric timesheet.Metric, apply bool) (*RangeResult, error) {
	start = models.Day(start)
	end = models.Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			models.FormatDay(end), models.FormatDay(start))
	}

	rr := &RangeResult{
		StartDate: models.FormatDay(start),
		EndDate:   models.FormatDay(end),
		Metric:    metric,
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		rr.TotalDays++

		result, err := s.Preview(d, metric)
		if err != nil {
			var nre *NoRecordsError
			if errors.As(err, &nre) {
				// Empty days are expected inside a range; not a warning.
				rr.DaysWithNoData++
				continue
			}
			var nbe *timesheet.NoBaseHoursError
			if errors.As(err, &nbe) {
				// The day has records but no proportional basis; keep it as a
				// zero-effect day instead of aborting the range.
				rr.DaysWithData++
				rr.DaysWithWarnings++
				rr.Days = append(rr.Days, &timesheet.AllocationResult{
					Date:     models.FormatDay(d),
					Metric:   metric,
					Warnings: []string{nbe.Error()},
				})
				continue
			}
			return nil, err
		}

		rr.DaysWithData++
		hadWarnings := len(result.Warnings) > 0

		if apply {
			if _, err := s.Apply(result); err != nil {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("apply aborted: %v", err))
				hadWarnings = true
			}
			rr.UpdatedCount += result.UpdatedCount
		}

		if hadWarnings {
			rr.DaysWithWarnings++
		}
		rr.Days = append(rr.Days, result)
	}

	s.logger.Info("Range allocation completed",
		zap.String("start_date", rr.StartDate),
		zap.String("end_date", rr.EndDate),
		zap.String("metric", string(metric)),
		zap.Bool("applied", apply),
		zap.Int("total_days", rr.TotalDays),
		zap.Int("days_with_data", rr.DaysWithData),
		zap.Int("days_with_no_data", rr.DaysWithNoData),
		zap.Int("days_with_warnings", rr.DaysWithWarnings),
		zap.Int("updated_count", rr.UpdatedCount),
	)
	return rr, nil
}
