package service

import (
	"time"

	"github.com/greenridge/fieldops/internal/models"
)

// WorkRecordStore is the persistence surface the reconciliation core consumes.
// Update must recompute billable hours through the timesheet calculator
// whenever any formula input changes; the sqlite repository does exactly that.
// Lookups by external id return models.ErrRecordNotFound when nothing matches.
type WorkRecordStore interface {
	GetRecordsForDate(date time.Time) ([]*models.WorkRecord, error)
	GetRecordsForRange(start, end time.Time) ([]*models.WorkRecord, error)
	GetByExternalID(externalID string) (*models.WorkRecord, error)
	Create(req *models.CreateWorkRecordRequest) (*models.WorkRecord, error)
	Update(id string, req *models.UpdateWorkRecordRequest) (*models.WorkRecord, error)
}
