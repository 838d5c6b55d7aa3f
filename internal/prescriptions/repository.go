package prescriptions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/citycare/clinic-opd/internal/store"
)

const prescriptionColumns = "id, appointment_id, diagnosis, medicines, dosage, notes, follow_up_date, created_at"

// Repository provides typed persistence operations over the prescription table.
type Repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s}
}

// Save appends a prescription for an appointment. An unknown
// appointment id surfaces as a foreign-key violation from the store.
func (r *Repository) Save(ctx context.Context, appointmentID int64, diagnosis, medicines, dosage, notes string, followUp *time.Time) (*Prescription, error) {
	p := Prescription{
		AppointmentID: appointmentID,
		Diagnosis:     diagnosis,
		Medicines:     medicines,
		Dosage:        dosage,
		Notes:         notes,
		FollowUpDate:  followUp,
	}
	err := r.store.FetchOne(ctx, `
		INSERT INTO prescription (appointment_id, diagnosis, medicines, dosage, notes, follow_up_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		[]any{appointmentID, diagnosis, medicines, dosage, notes, followUp},
		func(row *sql.Row) error {
			return row.Scan(&p.ID, &p.CreatedAt)
		})
	if err != nil {
		return nil, fmt.Errorf("prescriptions: save: %w", err)
	}
	return &p, nil
}

// LatestForAppointment returns the most recent prescription for the
// appointment, or nil when none has been recorded yet.
func (r *Repository) LatestForAppointment(ctx context.Context, appointmentID int64) (*Prescription, error) {
	var p Prescription
	err := r.store.FetchOne(ctx, `
		SELECT `+prescriptionColumns+`
		FROM prescription
		WHERE appointment_id = $1
		ORDER BY created_at DESC LIMIT 1`,
		[]any{appointmentID},
		func(row *sql.Row) error {
			return row.Scan(&p.ID, &p.AppointmentID, &p.Diagnosis, &p.Medicines,
				&p.Dosage, &p.Notes, &p.FollowUpDate, &p.CreatedAt)
		})
	if store.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("prescriptions: latest: %w", err)
	}
	return &p, nil
}

// DiseaseDistribution returns the most frequent non-empty diagnoses.
func (r *Repository) DiseaseDistribution(ctx context.Context, limit int) ([]DiagnosisCount, error) {
	out := []DiagnosisCount{}
	err := r.store.FetchAll(ctx, `
		SELECT diagnosis, COUNT(*) AS cnt
		FROM prescription
		WHERE diagnosis IS NOT NULL AND diagnosis <> ''
		GROUP BY diagnosis
		ORDER BY cnt DESC
		LIMIT $1`,
		[]any{limit},
		func(rows *sql.Rows) error {
			for rows.Next() {
				var dc DiagnosisCount
				if err := rows.Scan(&dc.Diagnosis, &dc.Count); err != nil {
					return err
				}
				out = append(out, dc)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("prescriptions: disease distribution: %w", err)
	}
	return out, nil
}
