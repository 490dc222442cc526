package models

import (
	"errors"
	"time"
)

// ErrRecordNotFound is returned by stores when no work record matches a lookup.
var ErrRecordNotFound = errors.New("work record not found")

// Provenance records who produced the most recent write to a work record.
type Provenance string

const (
	ProvenanceLocal        Provenance = "local"
	ProvenanceExternalSync Provenance = "external-sync"
)

// HoursAdjustment is a signed manual correction applied to total hours
// before any deduction math.
type HoursAdjustment struct {
	Hours  float64 `json:"hours"`
	Reason string  `json:"reason,omitempty"`
	Source string  `json:"source,omitempty"`
}

// WorkRecord is one unit of billable work for one client on one day.
// BillableHours is derived; it is recomputed by the store on every update
// that touches a formula input and is never hand-edited.
type WorkRecord struct {
	ID                        string            `json:"id"`
	Date                      time.Time         `json:"date"`
	ClientName                string            `json:"client_name"`
	TotalHours                float64           `json:"total_hours"`
	BillableHours             float64           `json:"billable_hours"`
	BreakTimeMinutes          int               `json:"break_time_minutes"`
	AdjustedBreakTimeMinutes  *int              `json:"adjusted_break_time_minutes,omitempty"`
	TravelTimeMinutes         int               `json:"travel_time_minutes"`
	AdjustedTravelTimeMinutes *int              `json:"adjusted_travel_time_minutes,omitempty"`
	NonBillableTimeMinutes    int               `json:"non_billable_time_minutes"`
	HoursAdjustments          []HoursAdjustment `json:"hours_adjustments,omitempty"`
	Provenance                Provenance        `json:"provenance"`
	LastExternalSyncAt        *time.Time        `json:"last_external_sync_at,omitempty"`
	ExternalRecordID          *string           `json:"external_record_id,omitempty"`
	CreatedAt                 time.Time         `json:"created_at"`
	UpdatedAt                 time.Time         `json:"updated_at"`
}

type CreateWorkRecordRequest struct {
	Date                   string            `json:"date" validate:"required,datetime=2006-01-02"`
	ClientName             string            `json:"client_name" validate:"required"`
	TotalHours             float64           `json:"total_hours" validate:"gte=0"`
	BreakTimeMinutes       int               `json:"break_time_minutes" validate:"gte=0"`
	TravelTimeMinutes      int               `json:"travel_time_minutes" validate:"gte=0"`
	NonBillableTimeMinutes int               `json:"non_billable_time_minutes" validate:"gte=0"`
	HoursAdjustments       []HoursAdjustment `json:"hours_adjustments,omitempty"`
	Provenance             Provenance        `json:"provenance,omitempty"`
	LastExternalSyncAt     *time.Time        `json:"last_external_sync_at,omitempty"`
	ExternalRecordID       *string           `json:"external_record_id,omitempty"`
}

// UpdateWorkRecordRequest is a partial update; nil fields are left untouched.
// HoursAdjustments is a pointer-to-slice so an explicit empty list clears the
// stored adjustments while nil leaves them alone.
type UpdateWorkRecordRequest struct {
	Date                      *string            `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ClientName                *string            `json:"client_name,omitempty"`
	TotalHours                *float64           `json:"total_hours,omitempty" validate:"omitempty,gte=0"`
	BreakTimeMinutes          *int               `json:"break_time_minutes,omitempty" validate:"omitempty,gte=0"`
	AdjustedBreakTimeMinutes  *int               `json:"adjusted_break_time_minutes,omitempty" validate:"omitempty,gte=0"`
	TravelTimeMinutes         *int               `json:"travel_time_minutes,omitempty" validate:"omitempty,gte=0"`
	AdjustedTravelTimeMinutes *int               `json:"adjusted_travel_time_minutes,omitempty" validate:"omitempty,gte=0"`
	NonBillableTimeMinutes    *int               `json:"non_billable_time_minutes,omitempty" validate:"omitempty,gte=0"`
	HoursAdjustments          *[]HoursAdjustment `json:"hours_adjustments,omitempty"`
	Provenance                *Provenance        `json:"provenance,omitempty"`
	LastExternalSyncAt        *time.Time         `json:"last_external_sync_at,omitempty"`
	ExternalRecordID          *string            `json:"external_record_id,omitempty"`
}

// AdjustedBreak returns the engine-assigned break allocation, 0 when unset.
func (r *WorkRecord) AdjustedBreak() int {
	if r.AdjustedBreakTimeMinutes == nil {
		return 0
	}
	return *r.AdjustedBreakTimeMinutes
}

// AdjustedTravel returns the engine-assigned travel allocation, 0 when unset.
func (r *WorkRecord) AdjustedTravel() int {
	if r.AdjustedTravelTimeMinutes == nil {
		return 0
	}
	return *r.AdjustedTravelTimeMinutes
}
