package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/greenridge/fieldops/internal/models"
	"github.com/greenridge/fieldops/internal/timesheet"
)

const workRecordColumns = `id, work_date, client_name, total_hours, billable_hours,
		break_time_minutes, adjusted_break_time_minutes,
		travel_time_minutes, adjusted_travel_time_minutes,
		non_billable_time_minutes, hours_adjustments,
		provenance, last_external_sync_at, external_record_id,
		created_at, updated_at`

// WorkRecordRepository persists work records in sqlite. It owns the derived
// billable-hours column: every write that touches a formula input runs the
// timesheet calculator before hitting the database, so stored billable hours
// are never stale and never hand-edited.
type WorkRecordRepository struct {
	db *sql.DB
}

func NewWorkRecordRepository(db *sql.DB) *WorkRecordRepository {
	return &WorkRecordRepository{db: db}
}

func (r *WorkRecordRepository) Create(req *models.CreateWorkRecordRequest) (*models.WorkRecord, error) {
	date, err := models.ParseDay(req.Date)
	if err != nil {
		return nil, err
	}

	provenance := req.Provenance
	if provenance == "" {
		provenance = models.ProvenanceLocal
	}

	adjustmentsJSON, err := marshalAdjustments(req.HoursAdjustments)
	if err != nil {
		return nil, err
	}

	// New records carry no engine-assigned allocations yet.
	billable := timesheet.Calculate(req.TotalHours, req.BreakTimeMinutes, 0, req.NonBillableTimeMinutes, 0, req.HoursAdjustments)

	id := uuid.NewString()
	query := `
		INSERT INTO work_records (
			id, work_date, client_name, total_hours, billable_hours,
			break_time_minutes, travel_time_minutes, non_billable_time_minutes,
			hours_adjustments, provenance, last_external_sync_at, external_record_id
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(
		query,
		id,
		models.FormatDay(date),
		req.ClientName,
		req.TotalHours,
		billable,
		req.BreakTimeMinutes,
		req.TravelTimeMinutes,
		req.NonBillableTimeMinutes,
		adjustmentsJSON,
		string(provenance),
		req.LastExternalSyncAt,
		req.ExternalRecordID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create work record: %w", err)
	}

	return r.GetByID(id)
}

func (r *WorkRecordRepository) GetByID(id string) (*models.WorkRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM work_records WHERE id = ?`, workRecordColumns)
	record, err := scanWorkRecord(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("work record %s: %w", id, models.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work record: %w", err)
	}
	return record, nil
}

func (r *WorkRecordRepository) GetByExternalID(externalID string) (*models.WorkRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM work_records WHERE external_record_id = ?`, workRecordColumns)
	record, err := scanWorkRecord(r.db.QueryRow(query, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("external record %s: %w", externalID, models.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work record by external id: %w", err)
	}
	return record, nil
}

func (r *WorkRecordRepository) GetRecordsForDate(date time.Time) ([]*models.WorkRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM work_records
		WHERE work_date = ?
		ORDER BY created_at ASC, id ASC
	`, workRecordColumns)
	return r.queryRecords(query, models.FormatDay(date))
}

func (r *WorkRecordRepository) GetRecordsForRange(start, end time.Time) ([]*models.WorkRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM work_records
		WHERE work_date >= ? AND work_date <= ?
		ORDER BY work_date ASC, created_at ASC, id ASC
	`, workRecordColumns)
	return r.queryRecords(query, models.FormatDay(start), models.FormatDay(end))
}

func (r *WorkRecordRepository) queryRecords(query string, args ...interface{}) ([]*models.WorkRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query work records: %w", err)
	}
	defer rows.Close()

	var records []*models.WorkRecord
	for rows.Next() {
		record, err := scanWorkRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work record: %w", err)
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

// Update applies a partial update. When any billable-hours formula input
// changes, the new billable value is computed from the merged record and
// written in the same statement.
func (r *WorkRecordRepository) Update(id string, req *models.UpdateWorkRecordRequest) (*models.WorkRecord, error) {
	current, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	merged := *current
	setParts := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []interface{}{}
	inputsChanged := false

	if req.Date != nil {
		date, err := models.ParseDay(*req.Date)
		if err != nil {
			return nil, err
		}
		setParts = append(setParts, "work_date = ?")
		args = append(args, models.FormatDay(date))
		merged.Date = date
	}
	if req.ClientName != nil {
		setParts = append(setParts, "client_name = ?")
		args = append(args, *req.ClientName)
		merged.ClientName = *req.ClientName
	}
	if req.TotalHours != nil {
		setParts = append(setParts, "total_hours = ?")
		args = append(args, *req.TotalHours)
		merged.TotalHours = *req.TotalHours
		inputsChanged = true
	}
	if req.BreakTimeMinutes != nil {
		setParts = append(setParts, "break_time_minutes = ?")
		args = append(args, *req.BreakTimeMinutes)
		merged.BreakTimeMinutes = *req.BreakTimeMinutes
		inputsChanged = true
	}
	if req.AdjustedBreakTimeMinutes != nil {
		setParts = append(setParts, "adjusted_break_time_minutes = ?")
		args = append(args, *req.AdjustedBreakTimeMinutes)
		merged.AdjustedBreakTimeMinutes = req.AdjustedBreakTimeMinutes
		inputsChanged = true
	}
	if req.TravelTimeMinutes != nil {
		setParts = append(setParts, "travel_time_minutes = ?")
		args = append(args, *req.TravelTimeMinutes)
		merged.TravelTimeMinutes = *req.TravelTimeMinutes
	}
	if req.AdjustedTravelTimeMinutes != nil {
		setParts = append(setParts, "adjusted_travel_time_minutes = ?")
		args = append(args, *req.AdjustedTravelTimeMinutes)
		merged.AdjustedTravelTimeMinutes = req.AdjustedTravelTimeMinutes
		inputsChanged = true
	}
	if req.NonBillableTimeMinutes != nil {
		setParts = append(setParts, "non_billable_time_minutes = ?")
		args = append(args, *req.NonBillableTimeMinutes)
		merged.NonBillableTimeMinutes = *req.NonBillableTimeMinutes
		inputsChanged = true
	}
	if req.HoursAdjustments != nil {
		adjustmentsJSON, err := marshalAdjustments(*req.HoursAdjustments)
		if err != nil {
			return nil, err
		}
		setParts = append(setParts, "hours_adjustments = ?")
		args = append(args, adjustmentsJSON)
		merged.HoursAdjustments = *req.HoursAdjustments
		inputsChanged = true
	}
	if req.Provenance != nil {
		setParts = append(setParts, "provenance = ?")
		args = append(args, string(*req.Provenance))
	}
	if req.LastExternalSyncAt != nil {
		setParts = append(setParts, "last_external_sync_at = ?")
		args = append(args, *req.LastExternalSyncAt)
	}
	if req.ExternalRecordID != nil {
		setParts = append(setParts, "external_record_id = ?")
		args = append(args, *req.ExternalRecordID)
	}

	if inputsChanged {
		setParts = append(setParts, "billable_hours = ?")
		args = append(args, timesheet.CalculateRecord(&merged))
	}

	if len(setParts) == 1 {
		return current, nil
	}

	query := fmt.Sprintf(`
		UPDATE work_records
		SET %s
		WHERE id = ?
	`, strings.Join(setParts, ", "))
	args = append(args, id)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update work record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, models.ErrRecordNotFound
	}

	return r.GetByID(id)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkRecord(row rowScanner) (*models.WorkRecord, error) {
	var record models.WorkRecord
	var workDate string
	var adjustedBreak, adjustedTravel sql.NullInt64
	var adjustmentsJSON, externalID sql.NullString
	var provenance string
	var lastSync sql.NullTime

	err := row.Scan(
		&record.ID,
		&workDate,
		&record.ClientName,
		&record.TotalHours,
		&record.BillableHours,
		&record.BreakTimeMinutes,
		&adjustedBreak,
		&record.TravelTimeMinutes,
		&adjustedTravel,
		&record.NonBillableTimeMinutes,
		&adjustmentsJSON,
		&provenance,
		&lastSync,
		&externalID,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Date, err = models.ParseDay(workDate)
	if err != nil {
		return nil, err
	}
	record.Provenance = models.Provenance(provenance)
	if adjustedBreak.Valid {
		v := int(adjustedBreak.Int64)
		record.AdjustedBreakTimeMinutes = &v
	}
	if adjustedTravel.Valid {
		v := int(adjustedTravel.Int64)
		record.AdjustedTravelTimeMinutes = &v
	}
	if lastSync.Valid {
		t := lastSync.Time
		record.LastExternalSyncAt = &t
	}
	if externalID.Valid {
		s := externalID.String
		record.ExternalRecordID = &s
	}
	if adjustmentsJSON.Valid && adjustmentsJSON.String != "" {
		if err := json.Unmarshal([]byte(adjustmentsJSON.String), &record.HoursAdjustments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hours adjustments for %s: %w", record.ID, err)
		}
	}
	return &record, nil
}

func marshalAdjustments(adjustments []models.HoursAdjustment) (interface{}, error) {
	if len(adjustments) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(adjustments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal hours adjustments: %w", err)
	}
	return string(data), nil
}
