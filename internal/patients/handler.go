package patients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/citycare/clinic-opd/pkg/logging"
)

// Handler handles HTTP requests for the patient registry.
type Handler struct {
	repo         *Repository
	logger       *logging.Logger
	defaultLimit int
}

func NewHandler(repo *Repository, logger *logging.Logger, defaultLimit int) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if defaultLimit <= 0 {
		defaultLimit = 200
	}
	return &Handler{repo: repo, logger: logger, defaultLimit: defaultLimit}
}

// Register handles POST /patients requests
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	patient, err := h.repo.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrNameRequired) || errors.Is(err, ErrNegativeAge) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to register patient", "error", err)
		http.Error(w, "failed to register patient", http.StatusInternalServerError)
		return
	}

	h.logger.Info("patient registered", "patient_id", patient.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(patient)
}

// ListResponse is the response for listing or searching patients.
type ListResponse struct {
	Patients []Patient `json:"patients"`
	Count    int       `json:"count"`
}

// List handles GET /patients?q=&limit= requests. Without q it returns
// the most recent registrations; with q it searches by id, name or phone.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 && v <= h.defaultLimit {
			limit = v
		}
	}

	result, err := h.repo.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.logger.Error("failed to search patients", "error", err)
		http.Error(w, "failed to list patients", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{Patients: result, Count: len(result)})
}
