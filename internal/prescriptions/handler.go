package prescriptions

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/citycare/clinic-opd/internal/store"
	"github.com/citycare/clinic-opd/pkg/logging"
)

// Handler handles HTTP requests for prescriptions.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Save handles POST /prescriptions requests
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.AppointmentID <= 0 {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}

	var followUp *time.Time
	if req.FollowUpDate != "" {
		parsed, err := time.Parse("2006-01-02", req.FollowUpDate)
		if err != nil {
			http.Error(w, "invalid follow_up_date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		followUp = &parsed
	}

	p, err := h.repo.Save(r.Context(), req.AppointmentID, req.Diagnosis, req.Medicines, req.Dosage, req.Notes, followUp)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			http.Error(w, "unknown appointment", http.StatusConflict)
			return
		}
		h.logger.Error("failed to save prescription", "error", err)
		http.Error(w, "failed to save prescription", http.StatusInternalServerError)
		return
	}

	h.logger.Info("prescription saved", "prescription_id", p.ID, "appointment_id", p.AppointmentID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(p)
}

// Latest handles GET /appointments/{appointmentID}/prescription requests.
// No prescription yet is a 404, not a server error.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	p, err := h.repo.LatestForAppointment(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load prescription", "error", err, "appointment_id", id)
		http.Error(w, "failed to load prescription", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "no prescription recorded for this appointment", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}
