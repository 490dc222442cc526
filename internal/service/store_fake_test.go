package service_test

import (
	"fmt"
	"time"

	"github.com/greenridge/fieldops/internal/models"
	"github.com/greenridge/fieldops/internal/timesheet"
)

// fakeStore is an in-memory WorkRecordStore honoring the same contract as the
// sqlite repository: updates recompute billable hours whenever a formula
// input changes. failUpdates simulates persistence failures for specific ids.
type fakeStore struct {
	records     map[string]*models.WorkRecord
	order       []string
	nextID      int
	failUpdates map[string]error
	updateCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:     make(map[string]*models.WorkRecord),
		failUpdates: make(map[string]error),
	}
}

func (f *fakeStore) add(r *models.WorkRecord) *models.WorkRecord {
	if r.ID == "" {
		f.nextID++
		r.ID = fmt.Sprintf("r%d", f.nextID)
	}
	f.records[r.ID] = r
	f.order = append(f.order, r.ID)
	return r
}

func (f *fakeStore) GetRecordsForDate(date time.Time) ([]*models.WorkRecord, error) {
	var out []*models.WorkRecord
	for _, id := range f.order {
		if models.SameDay(f.records[id].Date, date) {
			out = append(out, f.records[id])
		}
	}
	return out, nil
}

func (f *fakeStore) GetRecordsForRange(start, end time.Time) ([]*models.WorkRecord, error) {
	var out []*models.WorkRecord
	for _, id := range f.order {
		d := f.records[id].Date
		if !d.Before(start) && !d.After(end) {
			out = append(out, f.records[id])
		}
	}
	return out, nil
}

func (f *fakeStore) GetByExternalID(externalID string) (*models.WorkRecord, error) {
	for _, id := range f.order {
		r := f.records[id]
		if r.ExternalRecordID != nil && *r.ExternalRecordID == externalID {
			return r, nil
		}
	}
	return nil, models.ErrRecordNotFound
}

func (f *fakeStore) Create(req *models.CreateWorkRecordRequest) (*models.WorkRecord, error) {
	date, err := models.ParseDay(req.Date)
	if err != nil {
		return nil, err
	}
	provenance := req.Provenance
	if provenance == "" {
		provenance = models.ProvenanceLocal
	}
	r := &models.WorkRecord{
		Date:                   date,
		ClientName:             req.ClientName,
		TotalHours:             req.TotalHours,
		BreakTimeMinutes:       req.BreakTimeMinutes,
		TravelTimeMinutes:      req.TravelTimeMinutes,
		NonBillableTimeMinutes: req.NonBillableTimeMinutes,
		HoursAdjustments:       req.HoursAdjustments,
		Provenance:             provenance,
		LastExternalSyncAt:     req.LastExternalSyncAt,
		ExternalRecordID:       req.ExternalRecordID,
	}
	r.BillableHours = timesheet.CalculateRecord(r)
	return f.add(r), nil
}

func (f *fakeStore) Update(id string, req *models.UpdateWorkRecordRequest) (*models.WorkRecord, error) {
	f.updateCalls++
	if err, ok := f.failUpdates[id]; ok {
		return nil, err
	}
	r, ok := f.records[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}

	if req.Date != nil {
		date, err := models.ParseDay(*req.Date)
		if err != nil {
			return nil, err
		}
		r.Date = date
	}
	if req.ClientName != nil {
		r.ClientName = *req.ClientName
	}
	if req.TotalHours != nil {
		r.TotalHours = *req.TotalHours
	}
	if req.BreakTimeMinutes != nil {
		r.BreakTimeMinutes = *req.BreakTimeMinutes
	}
	if req.AdjustedBreakTimeMinutes != nil {
		v := *req.AdjustedBreakTimeMinutes
		r.AdjustedBreakTimeMinutes = &v
	}
	if req.TravelTimeMinutes != nil {
		r.TravelTimeMinutes = *req.TravelTimeMinutes
	}
	if req.AdjustedTravelTimeMinutes != nil {
		v := *req.AdjustedTravelTimeMinutes
		r.AdjustedTravelTimeMinutes = &v
	}
	if req.NonBillableTimeMinutes != nil {
		r.NonBillableTimeMinutes = *req.NonBillableTimeMinutes
	}
	if req.HoursAdjustments != nil {
		r.HoursAdjustments = *req.HoursAdjustments
	}
	if req.Provenance != nil {
		r.Provenance = *req.Provenance
	}
	if req.LastExternalSyncAt != nil {
		t := *req.LastExternalSyncAt
		r.LastExternalSyncAt = &t
	}
	if req.ExternalRecordID != nil {
		s := *req.ExternalRecordID
		r.ExternalRecordID = &s
	}

	r.BillableHours = timesheet.CalculateRecord(r)
	return r, nil
}
