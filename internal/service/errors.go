package service

import "fmt"

// NoRecordsError means no work records exist for the requested date. Range
// runs skip such days silently; single-date runs propagate it to the caller.
type NoRecordsError struct {
	Date string
}

func (e *NoRecordsError) Error() string {
	return fmt.Sprintf("no work records found for %s", e.Date)
}

// RecordUpdateError means a persistence write failed while applying an
// allocation. It aborts the current date's apply; earlier writes stay in
// place.
type RecordUpdateError struct {
	RecordID string
	Err      error
}

func (e *RecordUpdateError) Error() string {
	return fmt.Sprintf("failed to update record %s: %v", e.RecordID, e.Err)
}

func (e *RecordUpdateError) Unwrap() error {
	return e.Err
}

// SyncDecisionError means an external edit carried malformed data (typically
// an unparsable remote timestamp). The event is skipped and counted; it never
// aborts a batch.
type SyncDecisionError struct {
	ExternalID string
	Err        error
}

func (e *SyncDecisionError) Error() string {
	return fmt.Sprintf("cannot decide sync direction for external record %s: %v", e.ExternalID, e.Err)
}

func (e *SyncDecisionError) Unwrap() error {
	return e.Err
}
