package router

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/greenridge/fieldops/internal/handler"
)

func New(
	workRecordHandler *handler.WorkRecordHandler,
	allocationHandler *handler.AllocationHandler,
	syncHandler *handler.SyncHandler,
	logger *zap.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Work record endpoints
	mux.HandleFunc("/api/v1/work-records", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			workRecordHandler.Create(w, r)
		case http.MethodGet:
			if r.URL.Query().Get("id") != "" {
				workRecordHandler.Get(w, r)
			} else {
				workRecordHandler.List(w, r)
			}
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/work-records/update", workRecordHandler.Update)

	// Allocation endpoints
	mux.HandleFunc("/api/v1/allocations/preview", allocationHandler.Preview)
	mux.HandleFunc("/api/v1/allocations/apply", allocationHandler.Apply)

	// Sync endpoints
	mux.HandleFunc("/api/v1/sync/reconcile", syncHandler.Reconcile)
	mux.HandleFunc("/api/v1/sync/run", syncHandler.Run)

	// Logging middleware
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		)
		mux.ServeHTTP(w, r)
	})
}
