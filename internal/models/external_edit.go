package models

// ExternalEdit is one externally-sourced edit event from the document
// workspace: an opaque external id, the remote edit timestamp as delivered
// by the workspace API, and the already-parsed record fields. How the remote
// document was parsed into fields is not this backend's concern.
type ExternalEdit struct {
	ExternalID string         `json:"external_id"`
	EditedAt   string         `json:"edited_at"`
	Fields     ExternalFields `json:"fields"`
}

// ExternalFields are the raw record fields carried by an external edit.
// Adjusted allocations are never supplied remotely; only the allocation
// engine writes those.
type ExternalFields struct {
	Date                   string            `json:"date"`
	ClientName             string            `json:"client_name"`
	TotalHours             float64           `json:"total_hours"`
	BreakTimeMinutes       int               `json:"break_time_minutes"`
	TravelTimeMinutes      int               `json:"travel_time_minutes"`
	NonBillableTimeMinutes int               `json:"non_billable_time_minutes"`
	HoursAdjustments       []HoursAdjustment `json:"hours_adjustments,omitempty"`
}
