package patients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/citycare/clinic-opd/internal/store"
)

// ErrNameRequired rejects registrations with a blank name before any write.
var ErrNameRequired = errors.New("patients: name is required")

// ErrNegativeAge rejects registrations with a negative age before any write.
var ErrNegativeAge = errors.New("patients: age must not be negative")

const patientColumns = "patient_id, name, age, gender, phone, address, created_at"

// Repository provides typed persistence operations over the patient table.
type Repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s}
}

// Register inserts a new patient and returns the stored record.
func (r *Repository) Register(ctx context.Context, req *RegisterRequest) (*Patient, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if req.Age != nil && *req.Age < 0 {
		return nil, ErrNegativeAge
	}

	p := Patient{
		Name:    name,
		Age:     req.Age,
		Gender:  strings.TrimSpace(req.Gender),
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	}
	err := r.store.FetchOne(ctx, `
		INSERT INTO patient (name, age, gender, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING patient_id, created_at`,
		[]any{p.Name, p.Age, p.Gender, p.Phone, p.Address},
		func(row *sql.Row) error {
			return row.Scan(&p.ID, &p.CreatedAt)
		})
	if err != nil {
		return nil, fmt.Errorf("patients: register: %w", err)
	}
	return &p, nil
}

// List returns the most recently registered patients, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]Patient, error) {
	return r.fetch(ctx, `
		SELECT `+patientColumns+`
		FROM patient ORDER BY created_at DESC LIMIT $1`, limit)
}

// Search matches by exact numeric identifier, partial name
// (case-insensitive) or partial phone. All three conditions are OR'd and
// the result is capped at limit, newest first. An empty query behaves
// exactly like List.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]Patient, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.List(ctx, limit)
	}

	id, err := strconv.ParseInt(query, 10, 64)
	if err != nil {
		id = -1
	}
	like := "%" + query + "%"
	return r.fetch(ctx, `
		SELECT `+patientColumns+`
		FROM patient
		WHERE patient_id = $1 OR name ILIKE $2 OR phone LIKE $3
		ORDER BY created_at DESC
		LIMIT $4`, id, like, like, limit)
}

// AgeGroupCounts buckets all patients for the dashboard age histogram.
func (r *Repository) AgeGroupCounts(ctx context.Context) ([]AgeGroupCount, error) {
	out := []AgeGroupCount{}
	err := r.store.FetchAll(ctx, `
		SELECT
		  CASE
		    WHEN age IS NULL THEN 'Unknown'
		    WHEN age < 18 THEN '<18'
		    WHEN age BETWEEN 18 AND 35 THEN '18-35'
		    WHEN age BETWEEN 36 AND 50 THEN '36-50'
		    WHEN age BETWEEN 51 AND 65 THEN '51-65'
		    ELSE '66+'
		  END AS age_group,
		  COUNT(*) AS cnt
		FROM patient
		GROUP BY age_group
		ORDER BY
		  CASE
		    WHEN age_group = '<18' THEN 1
		    WHEN age_group = '18-35' THEN 2
		    WHEN age_group = '36-50' THEN 3
		    WHEN age_group = '51-65' THEN 4
		    WHEN age_group = '66+' THEN 5
		    ELSE 6
		  END`, nil,
		func(rows *sql.Rows) error {
			for rows.Next() {
				var g AgeGroupCount
				if err := rows.Scan(&g.Group, &g.Count); err != nil {
					return err
				}
				out = append(out, g)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("patients: age groups: %w", err)
	}
	return out, nil
}

func (r *Repository) fetch(ctx context.Context, query string, args ...any) ([]Patient, error) {
	out := []Patient{}
	err := r.store.FetchAll(ctx, query, args, func(rows *sql.Rows) error {
		for rows.Next() {
			var p Patient
			if err := rows.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.Phone, &p.Address, &p.CreatedAt); err != nil {
				return err
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("patients: list: %w", err)
	}
	return out, nil
}
