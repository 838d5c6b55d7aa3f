package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/citycare/clinic-opd/internal/store"
	"github.com/citycare/clinic-opd/pkg/logging"
)

// Handler handles HTTP requests for scheduling.
type Handler struct {
	repo          *Repository
	logger        *logging.Logger
	listLimit     int
	billableLimit int
}

func NewHandler(repo *Repository, logger *logging.Logger, listLimit, billableLimit int) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if listLimit <= 0 {
		listLimit = 1000
	}
	if billableLimit <= 0 {
		billableLimit = 500
	}
	return &Handler{repo: repo, logger: logger, listLimit: listLimit, billableLimit: billableLimit}
}

// Create handles POST /appointments requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	appt, err := h.repo.Create(r.Context(), req.PatientID, date, req.TimeSlot)
	if err != nil {
		if errors.Is(err, ErrTimeSlotRequired) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if store.IsForeignKeyViolation(err) {
			http.Error(w, "unknown patient", http.StatusConflict)
			return
		}
		h.logger.Error("failed to create appointment", "error", err)
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}

	h.logger.Info("appointment created", "appointment_id", appt.ID, "patient_id", appt.PatientID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(appt)
}

// ListResponse is the response for appointment listings.
type ListResponse struct {
	Appointments []Visit `json:"appointments"`
	Count        int     `json:"count"`
}

// List handles GET /appointments requests. ?date= filters one day
// (slot order), ?q= searches by patient name/phone/date, otherwise the
// lifetime book is returned.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var (
		visits []Visit
		err    error
	)
	switch {
	case r.URL.Query().Get("date") != "":
		var date time.Time
		if date, err = time.Parse("2006-01-02", r.URL.Query().Get("date")); err != nil {
			http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		visits, err = h.repo.ListForDate(r.Context(), date)
	case r.URL.Query().Get("q") != "":
		visits, err = h.repo.Search(r.Context(), r.URL.Query().Get("q"), h.listLimit)
	default:
		visits, err = h.repo.ListAll(r.Context(), h.listLimit)
	}
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{Appointments: visits, Count: len(visits)})
}

// PendingToday handles GET /appointments/pending-today requests
func (h *Handler) PendingToday(w http.ResponseWriter, r *http.Request) {
	visits, err := h.repo.PendingToday(r.Context())
	if err != nil {
		h.logger.Error("failed to list pending appointments", "error", err)
		http.Error(w, "failed to list pending appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{Appointments: visits, Count: len(visits)})
}

// Billable handles GET /appointments/billable requests
func (h *Handler) Billable(w http.ResponseWriter, r *http.Request) {
	visits, err := h.repo.ListForBilling(r.Context(), h.billableLimit)
	if err != nil {
		h.logger.Error("failed to list billable appointments", "error", err)
		http.Error(w, "failed to list billable appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{Appointments: visits, Count: len(visits)})
}

// Complete handles POST /appointments/{appointmentID}/complete requests.
// Re-completing an already Completed appointment succeeds.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	if err := h.repo.MarkCompleted(r.Context(), id); err != nil {
		h.logger.Error("failed to mark appointment completed", "error", err, "appointment_id", id)
		http.Error(w, "failed to mark appointment completed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("appointment completed", "appointment_id", id)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": StatusCompleted})
}
