package reports

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/citycare/clinic-opd/pkg/logging"
)

// Handler handles HTTP requests for printable exports.
type Handler struct {
	builder *Builder
	logger  *logging.Logger
}

func NewHandler(builder *Builder, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{builder: builder, logger: logger}
}

// Prescription handles GET /reports/prescriptions/{appointmentID} requests
func (h *Handler) Prescription(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil || appointmentID <= 0 {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	export, err := h.builder.Prescription(r.Context(), appointmentID)
	if err != nil {
		h.logger.Error("failed to build prescription export", "error", err, "appointment_id", appointmentID)
		http.Error(w, "failed to build prescription export", http.StatusInternalServerError)
		return
	}
	if export == nil {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(export)
}

// Invoice handles GET /reports/invoices/{billID} requests
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request) {
	billID, err := strconv.ParseInt(chi.URLParam(r, "billID"), 10, 64)
	if err != nil || billID <= 0 {
		http.Error(w, "invalid bill id", http.StatusBadRequest)
		return
	}

	export, err := h.builder.Invoice(r.Context(), billID)
	if err != nil {
		h.logger.Error("failed to build invoice export", "error", err, "bill_id", billID)
		http.Error(w, "failed to build invoice export", http.StatusInternalServerError)
		return
	}
	if export == nil {
		http.Error(w, "bill not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(export)
}
