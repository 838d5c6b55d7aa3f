package dashboard

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/citycare/clinic-opd/pkg/logging"
)

// Handler handles HTTP requests for the dashboard.
type Handler struct {
	service *Service
	logger  *logging.Logger
	now     func() time.Time
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger, now: time.Now}
}

// Summary handles GET /dashboard?date= requests. Without a date it
// reports on today.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	date := h.now().Truncate(24 * time.Hour)
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	summary, err := h.service.Summary(r.Context(), date)
	if err != nil {
		h.logger.Error("failed to build dashboard summary", "error", err)
		http.Error(w, "failed to build dashboard summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
