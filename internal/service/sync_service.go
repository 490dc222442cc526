package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/greenridge/fieldops/internal/models"
)

// SyncAction is the outcome of reconciling one external edit.
type SyncAction string

const (
	SyncApplied SyncAction = "applied"
	SyncCreated SyncAction = "created"
	SyncSkipped SyncAction = "skipped"
)

// SyncDecision reports what was done with a single external edit.
type SyncDecision struct {
	Action   SyncAction `json:"action"`
	RecordID string     `json:"record_id,omitempty"`
	Warning  string     `json:"warning,omitempty"`
}

// SyncOptions configures a reconcile call. ForceSync bypasses every timestamp
// check and always applies remote data; it is a per-call parameter, never
// retained state.
type SyncOptions struct {
	ForceSync bool
}

// SyncBatchResult aggregates counters over a batch of external edits.
type SyncBatchResult struct {
	Processed int      `json:"processed"`
	Applied   int      `json:"applied"`
	Created   int      `json:"created"`
	Skipped   int      `json:"skipped"`
	Errors    int      `json:"errors"`
	Warnings  []string `json:"warnings,omitempty"`
	Cancelled bool     `json:"cancelled"`
}

// EditFetcher pages external edits out of the document workspace.
type EditFetcher interface {
	FetchEdits(ctx context.Context, since time.Time, page, pageSize int) ([]models.ExternalEdit, bool, error)
}

// SyncService decides, edit by edit, whether an externally-edited document
// should overwrite the matching local work record. The decision uses only the
// remote edit timestamp and the record's last-sync timestamp and provenance;
// no state is kept between calls.
type SyncService struct {
	store    WorkRecordStore
	fetcher  EditFetcher
	pageSize int
	logger   *zap.Logger
}

// NewSyncService creates a sync service. fetcher may be nil when no workspace
// is configured; SyncSince then returns an error and Reconcile still works.
func NewSyncService(store WorkRecordStore, fetcher EditFetcher, pageSize int, logger *zap.Logger) *SyncService {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &SyncService{
		store:    store,
		fetcher:  fetcher,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Reconcile decides and executes the sync direction for one external edit:
//
//   - never synced before (or no local record): apply remote, creating the
//     record if needed
//   - remote edit not newer than the last sync: skip
//   - remote newer, last write was an external sync: apply silently
//   - remote newer, last write was local: apply, but warn that local edits
//     are being overwritten
//
// ForceSync bypasses the table entirely and always applies.
func (s *SyncService) Reconcile(edit models.ExternalEdit, opts SyncOptions) (*SyncDecision, error) {
	editedAt, err := parseRemoteTimestamp(edit.EditedAt)
	if err != nil {
		return nil, &SyncDecisionError{ExternalID: edit.ExternalID, Err: err}
	}
	if edit.ExternalID == "" {
		return nil, &SyncDecisionError{ExternalID: edit.ExternalID, Err: errors.New("missing external id")}
	}
	if _, err := models.ParseDay(edit.Fields.Date); err != nil {
		return nil, &SyncDecisionError{ExternalID: edit.ExternalID, Err: err}
	}

	local, err := s.store.GetByExternalID(edit.ExternalID)
	if errors.Is(err, models.ErrRecordNotFound) {
		return s.createFromRemote(edit, editedAt)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up record by external id %s: %w", edit.ExternalID, err)
	}

	if opts.ForceSync {
		s.logger.Warn("Timestamp checks bypassed by force sync",
			zap.String("external_id", edit.ExternalID),
			zap.String("record_id", local.ID),
		)
		return s.applyRemote(local, edit, editedAt, "")
	}

	if local.LastExternalSyncAt == nil {
		// Never synced; remote data is authoritative regardless of timestamps.
		return s.applyRemote(local, edit, editedAt, "")
	}

	if !editedAt.After(*local.LastExternalSyncAt) {
		s.logger.Debug("External edit skipped, no newer remote data",
			zap.String("external_id", edit.ExternalID),
			zap.String("record_id", local.ID),
			zap.Time("remote_edited_at", editedAt),
			zap.Time("last_external_sync_at", *local.LastExternalSyncAt),
		)
		return &SyncDecision{Action: SyncSkipped, RecordID: local.ID}, nil
	}

	warning := ""
	if local.Provenance == models.ProvenanceLocal {
		warning = fmt.Sprintf("record %s: local edits will be overwritten by newer remote data", local.ID)
		s.logger.Warn("Overwriting local edits with newer remote data",
			zap.String("external_id", edit.ExternalID),
			zap.String("record_id", local.ID),
			zap.Time("remote_edited_at", editedAt),
		)
	}
	return s.applyRemote(local, edit, editedAt, warning)
}

// SyncBatch reconciles a slice of edits sequentially. Cancellation is checked
// only at record boundaries, so the edit in flight always completes and the
// result carries partial counters with Cancelled set.
func (s *SyncService) SyncBatch(ctx context.Context, edits []models.ExternalEdit, opts SyncOptions) *SyncBatchResult {
	result := &SyncBatchResult{}

	for _, edit := range edits {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}
		result.Processed++

		decision, err := s.Reconcile(edit, opts)
		if err != nil {
			result.Errors++
			s.logger.Error("Failed to reconcile external edit",
				zap.String("external_id", edit.ExternalID),
				zap.Error(err),
			)
			continue
		}

		switch decision.Action {
		case SyncApplied:
			result.Applied++
		case SyncCreated:
			result.Created++
		case SyncSkipped:
			result.Skipped++
		}
		if decision.Warning != "" {
			result.Warnings = append(result.Warnings, decision.Warning)
		}
	}

	s.logger.Info("Sync batch completed",
		zap.Int("processed", result.Processed),
		zap.Int("applied", result.Applied),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors),
		zap.Bool("cancelled", result.Cancelled),
	)
	return result
}

// SyncSince pages edits out of the workspace starting at the given timestamp
// and reconciles each page, aggregating counters across pages.
func (s *SyncService) SyncSince(ctx context.Context, since time.Time, opts SyncOptions) (*SyncBatchResult, error) {
	if s.fetcher == nil {
		return nil, errors.New("no workspace configured for sync")
	}

	total := &SyncBatchResult{}
	for page := 1; ; page++ {
		if ctx.Err() != nil {
			total.Cancelled = true
			break
		}

		edits, hasMore, err := s.fetcher.FetchEdits(ctx, since, page, s.pageSize)
		if err != nil {
			return total, fmt.Errorf("failed to fetch edits page %d: %w", page, err)
		}

		pageResult := s.SyncBatch(ctx, edits, opts)
		total.Processed += pageResult.Processed
		total.Applied += pageResult.Applied
		total.Created += pageResult.Created
		total.Skipped += pageResult.Skipped
		total.Errors += pageResult.Errors
		total.Warnings = append(total.Warnings, pageResult.Warnings...)
		if pageResult.Cancelled {
			total.Cancelled = true
			break
		}
		if !hasMore {
			break
		}
	}
	return total, nil
}

func (s *SyncService) createFromRemote(edit models.ExternalEdit, editedAt time.Time) (*SyncDecision, error) {
	externalID := edit.ExternalID
	created, err := s.store.Create(&models.CreateWorkRecordRequest{
		Date:                   edit.Fields.Date,
		ClientName:             edit.Fields.ClientName,
		TotalHours:             edit.Fields.TotalHours,
		BreakTimeMinutes:       edit.Fields.BreakTimeMinutes,
		TravelTimeMinutes:      edit.Fields.TravelTimeMinutes,
		NonBillableTimeMinutes: edit.Fields.NonBillableTimeMinutes,
		HoursAdjustments:       edit.Fields.HoursAdjustments,
		Provenance:             models.ProvenanceExternalSync,
		LastExternalSyncAt:     &editedAt,
		ExternalRecordID:       &externalID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create record from external edit %s: %w", edit.ExternalID, err)
	}

	s.logger.Info("Work record created from external edit",
		zap.String("external_id", edit.ExternalID),
		zap.String("record_id", created.ID),
		zap.String("date", edit.Fields.Date),
	)
	return &SyncDecision{Action: SyncCreated, RecordID: created.ID}, nil
}

func (s *SyncService) applyRemote(local *models.WorkRecord, edit models.ExternalEdit, editedAt time.Time, warning string) (*SyncDecision, error) {
	provenance := models.ProvenanceExternalSync
	adjustments := edit.Fields.HoursAdjustments

	// Remote wins: overwrite the raw fields and stamp the sync. Adjusted
	// allocations stay untouched; only the allocation engine writes those.
	// The store recomputes billable hours from the merged fields.
	updated, err := s.store.Update(local.ID, &models.UpdateWorkRecordRequest{
		Date:                   &edit.Fields.Date,
		ClientName:             &edit.Fields.ClientName,
		TotalHours:             &edit.Fields.TotalHours,
		BreakTimeMinutes:       &edit.Fields.BreakTimeMinutes,
		TravelTimeMinutes:      &edit.Fields.TravelTimeMinutes,
		NonBillableTimeMinutes: &edit.Fields.NonBillableTimeMinutes,
		HoursAdjustments:       &adjustments,
		Provenance:             &provenance,
		LastExternalSyncAt:     &editedAt,
	})
	if err != nil {
		return nil, &RecordUpdateError{RecordID: local.ID, Err: err}
	}

	s.logger.Info("External edit applied",
		zap.String("external_id", edit.ExternalID),
		zap.String("record_id", updated.ID),
		zap.Time("remote_edited_at", editedAt),
		zap.Bool("overwrote_local_edits", warning != ""),
	)
	return &SyncDecision{Action: SyncApplied, RecordID: updated.ID, Warning: warning}, nil
}

// parseRemoteTimestamp accepts the timestamp shapes the workspace API emits.
func parseRemoteTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing remote edit timestamp")
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse remote timestamp %q", s)
}
