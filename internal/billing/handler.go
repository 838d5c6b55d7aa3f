package billing

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/citycare/clinic-opd/internal/store"
	"github.com/citycare/clinic-opd/pkg/logging"
)

// Handler handles HTTP requests for billing.
type Handler struct {
	engine *Engine
	logger *logging.Logger
}

func NewHandler(engine *Engine, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

// BillResponse is the response for bill creation and retrieval.
type BillResponse struct {
	Bill  *Bill      `json:"bill"`
	Items []BillItem `json:"items"`
}

// Create handles POST /bills requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.AppointmentID <= 0 {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}

	bill, items, err := h.engine.CreateBill(r.Context(), req.AppointmentID, req.Items)
	if err != nil {
		if IsValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if store.IsForeignKeyViolation(err) {
			http.Error(w, "unknown appointment", http.StatusConflict)
			return
		}
		h.logger.Error("failed to create bill", "error", err, "appointment_id", req.AppointmentID)
		http.Error(w, "failed to create bill", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(BillResponse{Bill: bill, Items: items})
}

// Get handles GET /bills/{billID} requests
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	billID, err := strconv.ParseInt(chi.URLParam(r, "billID"), 10, 64)
	if err != nil || billID <= 0 {
		http.Error(w, "invalid bill id", http.StatusBadRequest)
		return
	}

	bill, items, err := h.engine.GetBill(r.Context(), billID)
	if err != nil {
		h.logger.Error("failed to fetch bill", "error", err, "bill_id", billID)
		http.Error(w, "failed to fetch bill", http.StatusInternalServerError)
		return
	}
	if bill == nil {
		http.Error(w, "bill not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BillResponse{Bill: bill, Items: items})
}
