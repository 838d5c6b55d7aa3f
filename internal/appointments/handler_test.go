package appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citycare/clinic-opd/pkg/logging"
)

func TestCreateHandlerCreated(t *testing.T) {
	repo, mock := newTestRepo(t)
	handler := NewHandler(repo, logging.Default(), 1000, 500)

	mock.ExpectQuery("INSERT INTO appointment").
		WillReturnRows(sqlmock.NewRows([]string{"appointment_id"}).AddRow(int64(7)))

	body := `{"patient_id":12,"date":"2026-08-30","time_slot":"09:00"}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var got Appointment
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, StatusPending, got.Status)
}

func TestCreateHandlerRejectsBadDate(t *testing.T) {
	repo, _ := newTestRepo(t)
	handler := NewHandler(repo, logging.Default(), 1000, 500)

	body := `{"patient_id":12,"date":"30/08/2026","time_slot":"09:00"}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateHandlerUnknownPatientConflict(t *testing.T) {
	repo, mock := newTestRepo(t)
	handler := NewHandler(repo, logging.Default(), 1000, 500)

	mock.ExpectQuery("INSERT INTO appointment").
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})

	body := `{"patient_id":999,"date":"2026-08-30","time_slot":"09:00"}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListHandlerByDate(t *testing.T) {
	repo, mock := newTestRepo(t)
	handler := NewHandler(repo, logging.Default(), 1000, 500)

	mock.ExpectQuery("WHERE a.date = \\$1 ORDER BY a.time_slot").
		WillReturnRows(visitRows())

	req := httptest.NewRequest(http.MethodGet, "/appointments?date=2026-08-29", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp ListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Count)
}

func TestCompleteHandler(t *testing.T) {
	repo, mock := newTestRepo(t)
	handler := NewHandler(repo, logging.Default(), 1000, 500)

	mock.ExpectExec("UPDATE appointment SET status = 'Completed'").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/appointments/5/complete", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("appointmentID", "5")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	handler.Complete(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteHandlerRejectsBadID(t *testing.T) {
	repo, _ := newTestRepo(t)
	handler := NewHandler(repo, logging.Default(), 1000, 500)

	req := httptest.NewRequest(http.MethodPost, "/appointments/abc/complete", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("appointmentID", "abc")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	handler.Complete(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
