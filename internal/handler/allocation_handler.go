package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/greenridge/fieldops/internal/models"
	"github.com/greenridge/fieldops/internal/service"
	"github.com/greenridge/fieldops/internal/timesheet"
)

// AllocationRequest selects a metric and either a single date or an
// inclusive date range.
type AllocationRequest struct {
	Metric    string `json:"metric" validate:"required,oneof=break travel"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type AllocationHandler struct {
	service  *service.AllocationService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewAllocationHandler(service *service.AllocationService, validate *validator.Validate, logger *zap.Logger) *AllocationHandler {
	return &AllocationHandler{
		service:  service,
		validate: validate,
		logger:   logger,
	}
}

func (h *AllocationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, false)
}

func (h *AllocationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, true)
}

func (h *AllocationHandler) run(w http.ResponseWriter, r *http.Request, apply bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	metric := timesheet.Metric(req.Metric)

	switch {
	case req.Date != "":
		date, err := models.ParseDay(req.Date)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var result *timesheet.AllocationResult
		if apply {
			result, err = h.service.CalculateAndApply(date, metric)
		} else {
			result, err = h.service.Preview(date, metric)
		}
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case req.StartDate != "" && req.EndDate != "":
		start, err := models.ParseDay(req.StartDate)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		end, err := models.ParseDay(req.EndDate)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var result *service.RangeResult
		if apply {
			result, err = h.service.ApplyRange(start, end, metric)
		} else {
			result, err = h.service.PreviewRange(start, end, metric)
		}
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	default:
		http.Error(w, "Either date or start_date and end_date are required", http.StatusBadRequest)
	}
}

func (h *AllocationHandler) writeError(w http.ResponseWriter, err error) {
	var nre *service.NoRecordsError
	if errors.As(err, &nre) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	var nbe *timesheet.NoBaseHoursError
	if errors.As(err, &nbe) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	h.logger.Error("Allocation failed", zap.Error(err))
	http.Error(w, "Allocation failed", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
