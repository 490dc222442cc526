package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/greenridge/fieldops/internal/models"
	"github.com/greenridge/fieldops/internal/service"
)

// ReconcileRequest carries one external edit plus per-call options.
type ReconcileRequest struct {
	ExternalID string                `json:"external_id" validate:"required"`
	EditedAt   string                `json:"edited_at" validate:"required"`
	Fields     models.ExternalFields `json:"fields" validate:"required"`
	ForceSync  bool                  `json:"force_sync"`
}

// SyncRunRequest triggers a paged workspace sync starting at Since.
type SyncRunRequest struct {
	Since     string `json:"since" validate:"required"`
	ForceSync bool   `json:"force_sync"`
}

type SyncHandler struct {
	service  *service.SyncService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewSyncHandler(service *service.SyncService, validate *validator.Validate, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		service:  service,
		validate: validate,
		logger:   logger,
	}
}

func (h *SyncHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	decision, err := h.service.Reconcile(models.ExternalEdit{
		ExternalID: req.ExternalID,
		EditedAt:   req.EditedAt,
		Fields:     req.Fields,
	}, service.SyncOptions{ForceSync: req.ForceSync})
	if err != nil {
		var sde *service.SyncDecisionError
		if errors.As(err, &sde) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to reconcile external edit", zap.Error(err))
		http.Error(w, "Failed to reconcile external edit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

// Run pages all workspace edits since the given timestamp through the
// reconciler. The client disconnecting cancels the run at the next record
// boundary.
func (h *SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SyncRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	since, err := time.Parse(time.RFC3339, req.Since)
	if err != nil {
		http.Error(w, "Invalid since timestamp", http.StatusBadRequest)
		return
	}

	result, err := h.service.SyncSince(r.Context(), since, service.SyncOptions{ForceSync: req.ForceSync})
	if err != nil {
		h.logger.Error("Workspace sync failed", zap.Error(err))
		http.Error(w, "Workspace sync failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
