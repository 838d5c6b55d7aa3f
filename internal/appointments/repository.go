package appointments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/citycare/clinic-opd/internal/store"
)

// ErrTimeSlotRequired rejects appointments with a blank time slot.
var ErrTimeSlotRequired = errors.New("appointments: time slot is required")

// Repository provides typed persistence operations over the appointment table.
type Repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s}
}

// Create schedules an appointment in Pending status. A patient id that
// does not exist surfaces as a foreign-key violation from the store.
func (r *Repository) Create(ctx context.Context, patientID int64, date time.Time, timeSlot string) (*Appointment, error) {
	timeSlot = strings.TrimSpace(timeSlot)
	if timeSlot == "" {
		return nil, ErrTimeSlotRequired
	}

	a := Appointment{PatientID: patientID, Date: date, TimeSlot: timeSlot, Status: StatusPending}
	err := r.store.FetchOne(ctx, `
		INSERT INTO appointment (patient_id, date, time_slot, status)
		VALUES ($1, $2, $3, 'Pending')
		RETURNING appointment_id`,
		[]any{patientID, date, timeSlot},
		func(row *sql.Row) error {
			return row.Scan(&a.ID)
		})
	if err != nil {
		return nil, fmt.Errorf("appointments: create: %w", err)
	}
	return &a, nil
}

// ListForDate returns the visits scheduled on the given day, ordered by
// time slot ascending.
func (r *Repository) ListForDate(ctx context.Context, date time.Time) ([]Visit, error) {
	return r.fetchVisits(ctx, `
		SELECT a.appointment_id, a.patient_id, a.date, a.time_slot, a.status, p.name
		FROM appointment a JOIN patient p ON a.patient_id = p.patient_id
		WHERE a.date = $1 ORDER BY a.time_slot`, date)
}

// ListAll returns the lifetime appointment book, newest day first.
func (r *Repository) ListAll(ctx context.Context, limit int) ([]Visit, error) {
	return r.fetchVisits(ctx, `
		SELECT a.appointment_id, a.patient_id, a.date, a.time_slot, a.status, p.name
		FROM appointment a JOIN patient p ON a.patient_id = p.patient_id
		ORDER BY a.date DESC, a.time_slot DESC LIMIT $1`, limit)
}

// Search matches visits by partial patient name or phone, or by exact
// date when the query parses as one. Newest day first.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]Visit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.ListAll(ctx, limit)
	}

	if date, err := time.Parse("2006-01-02", query); err == nil {
		return r.fetchVisits(ctx, `
			SELECT a.appointment_id, a.patient_id, a.date, a.time_slot, a.status, p.name
			FROM appointment a JOIN patient p ON a.patient_id = p.patient_id
			WHERE a.date = $1
			ORDER BY a.date DESC, a.time_slot DESC LIMIT $2`, date, limit)
	}

	like := "%" + query + "%"
	return r.fetchVisits(ctx, `
		SELECT a.appointment_id, a.patient_id, a.date, a.time_slot, a.status, p.name
		FROM appointment a JOIN patient p ON a.patient_id = p.patient_id
		WHERE p.name ILIKE $1 OR p.phone LIKE $2
		ORDER BY a.date DESC, a.time_slot DESC LIMIT $3`, like, like, limit)
}

// PendingToday returns today's Pending visits for the doctor queue,
// earliest slot first.
func (r *Repository) PendingToday(ctx context.Context) ([]Visit, error) {
	return r.fetchVisits(ctx, `
		SELECT a.appointment_id, a.patient_id, a.date, a.time_slot, a.status, p.name
		FROM appointment a JOIN patient p ON a.patient_id = p.patient_id
		WHERE a.date = CURRENT_DATE AND a.status = 'Pending'
		ORDER BY a.time_slot`)
}

// ListForBilling returns recent visits that can be billed, newest first.
func (r *Repository) ListForBilling(ctx context.Context, limit int) ([]Visit, error) {
	return r.fetchVisits(ctx, `
		SELECT a.appointment_id, a.patient_id, a.date, a.time_slot, a.status, p.name
		FROM appointment a JOIN patient p ON a.patient_id = p.patient_id
		ORDER BY a.date DESC LIMIT $1`, limit)
}

// MarkCompleted overwrites the status to Completed. Unconditional and
// idempotent: completing twice is harmless and no Pending precondition
// is checked.
func (r *Repository) MarkCompleted(ctx context.Context, id int64) error {
	if err := r.store.Exec(ctx, `UPDATE appointment SET status = 'Completed' WHERE appointment_id = $1`, id); err != nil {
		return fmt.Errorf("appointments: mark completed: %w", err)
	}
	return nil
}

// GetWithPatient loads one appointment together with the patient
// snapshot consumed by prescription export. Returns nil when unknown.
func (r *Repository) GetWithPatient(ctx context.Context, id int64) (*VisitDetail, error) {
	var v VisitDetail
	err := r.store.FetchOne(ctx, `
		SELECT a.appointment_id, a.patient_id, a.date, a.time_slot, a.status,
		       p.name, p.age, p.gender, p.phone
		FROM appointment a JOIN patient p ON a.patient_id = p.patient_id
		WHERE a.appointment_id = $1`,
		[]any{id},
		func(row *sql.Row) error {
			return row.Scan(&v.ID, &v.PatientID, &v.Date, &v.TimeSlot, &v.Status,
				&v.PatientName, &v.PatientAge, &v.PatientGender, &v.PatientPhone)
		})
	if store.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: load with patient: %w", err)
	}
	return &v, nil
}

// Count returns the lifetime number of appointments.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.store.FetchOne(ctx, `SELECT COUNT(*) FROM appointment`, nil, func(row *sql.Row) error {
		return row.Scan(&cnt)
	})
	if err != nil {
		return 0, fmt.Errorf("appointments: count: %w", err)
	}
	return cnt, nil
}

// CountForDate returns the number of appointments on the given day.
func (r *Repository) CountForDate(ctx context.Context, date time.Time) (int64, error) {
	var cnt int64
	err := r.store.FetchOne(ctx, `SELECT COUNT(*) FROM appointment WHERE date = $1`, []any{date}, func(row *sql.Row) error {
		return row.Scan(&cnt)
	})
	if err != nil {
		return 0, fmt.Errorf("appointments: count for date: %w", err)
	}
	return cnt, nil
}

// StatusCountsForDate breaks the day's appointments down by status.
func (r *Repository) StatusCountsForDate(ctx context.Context, date time.Time) ([]StatusCount, error) {
	out := []StatusCount{}
	err := r.store.FetchAll(ctx, `
		SELECT status, COUNT(*) AS cnt FROM appointment WHERE date = $1 GROUP BY status`,
		[]any{date},
		func(rows *sql.Rows) error {
			for rows.Next() {
				var sc StatusCount
				if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
					return err
				}
				out = append(out, sc)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("appointments: status counts: %w", err)
	}
	return out, nil
}

func (r *Repository) fetchVisits(ctx context.Context, query string, args ...any) ([]Visit, error) {
	out := []Visit{}
	err := r.store.FetchAll(ctx, query, args, func(rows *sql.Rows) error {
		for rows.Next() {
			var v Visit
			if err := rows.Scan(&v.ID, &v.PatientID, &v.Date, &v.TimeSlot, &v.Status, &v.PatientName); err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	return out, nil
}
