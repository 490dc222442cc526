package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/greenridge/fieldops/internal/models"
	"github.com/greenridge/fieldops/internal/repository"
)

// WorkRecordHandler exposes plain CRUD over work records. Records are never
// deleted; corrections come in as updates or external edits.
type WorkRecordHandler struct {
	repo     *repository.WorkRecordRepository
	validate *validator.Validate
	logger   *zap.Logger
}

func NewWorkRecordHandler(repo *repository.WorkRecordRepository, validate *validator.Validate, logger *zap.Logger) *WorkRecordHandler {
	return &WorkRecordHandler{
		repo:     repo,
		validate: validate,
		logger:   logger,
	}
}

func (h *WorkRecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.CreateWorkRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.repo.Create(&req)
	if err != nil {
		h.logger.Error("Failed to create work record", zap.Error(err))
		http.Error(w, "Failed to create work record", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (h *WorkRecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	record, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			http.Error(w, "Work record not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to get work record", zap.Error(err))
		http.Error(w, "Failed to get work record", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// List returns records for a single date (?date=) or an inclusive range
// (?start_date=&end_date=).
func (h *WorkRecordHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var records []*models.WorkRecord

	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		date, err := models.ParseDay(dateStr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err = h.repo.GetRecordsForDate(date)
		if err != nil {
			h.logger.Error("Failed to list work records", zap.Error(err))
			http.Error(w, "Failed to list work records", http.StatusInternalServerError)
			return
		}
	} else {
		startStr := r.URL.Query().Get("start_date")
		endStr := r.URL.Query().Get("end_date")
		if startStr == "" || endStr == "" {
			http.Error(w, "Either date or start_date and end_date are required", http.StatusBadRequest)
			return
		}
		start, err := models.ParseDay(startStr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		end, err := models.ParseDay(endStr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err = h.repo.GetRecordsForRange(start, end)
		if err != nil {
			h.logger.Error("Failed to list work records", zap.Error(err))
			http.Error(w, "Failed to list work records", http.StatusInternalServerError)
			return
		}
	}

	if records == nil {
		records = []*models.WorkRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *WorkRecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	var req models.UpdateWorkRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.repo.Update(id, &req)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			http.Error(w, "Work record not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to update work record", zap.Error(err))
		http.Error(w, "Failed to update work record", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, record)
}
