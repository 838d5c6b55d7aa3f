package billing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/citycare/clinic-opd/internal/store"
)

// Repository provides typed persistence operations over the billing and
// billing_items tables.
type Repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s}
}

// CreateBill persists the bill header with the precomputed total, then
// all line items tagged with the new bill id, in input order. Header and
// items are written inside one transaction so a failure partway cannot
// leave an orphaned header. An unknown appointment surfaces as a
// foreign-key violation from the store.
func (r *Repository) CreateBill(ctx context.Context, appointmentID int64, total float64, items []LineItem) (*Bill, error) {
	b := Bill{AppointmentID: appointmentID, TotalAmount: total}
	err := r.store.Transact(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO billing (appointment_id, total_amount, date)
			VALUES ($1, $2, CURRENT_DATE)
			RETURNING bill_id, date`,
			appointmentID, total).Scan(&b.ID, &b.Date)
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO billing_items (bill_id, item_name, qty, price)
			VALUES ($1, $2, $3, $4)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, it := range items {
			if _, err := stmt.ExecContext(ctx, b.ID, it.ItemName, it.Qty, it.Price); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("billing: create bill: %w", err)
	}
	return &b, nil
}

// GetBill returns the bill header and its items in storage order, or a
// nil bill when the identifier is unknown.
func (r *Repository) GetBill(ctx context.Context, billID int64) (*Bill, []BillItem, error) {
	var b Bill
	err := r.store.FetchOne(ctx, `
		SELECT bill_id, appointment_id, total_amount, date
		FROM billing WHERE bill_id = $1`,
		[]any{billID},
		func(row *sql.Row) error {
			return row.Scan(&b.ID, &b.AppointmentID, &b.TotalAmount, &b.Date)
		})
	if store.IsNoRows(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("billing: load bill: %w", err)
	}

	items := []BillItem{}
	err = r.store.FetchAll(ctx, `
		SELECT id, bill_id, item_name, qty, price
		FROM billing_items WHERE bill_id = $1 ORDER BY id`,
		[]any{billID},
		func(rows *sql.Rows) error {
			for rows.Next() {
				var it BillItem
				if err := rows.Scan(&it.ID, &it.BillID, &it.ItemName, &it.Qty, &it.Price); err != nil {
					return err
				}
				items = append(items, it)
			}
			return nil
		})
	if err != nil {
		return nil, nil, fmt.Errorf("billing: load bill items: %w", err)
	}
	return &b, items, nil
}

// PatientNameForBill resolves the display name printed on the invoice.
func (r *Repository) PatientNameForBill(ctx context.Context, billID int64) (string, error) {
	var name string
	err := r.store.FetchOne(ctx, `
		SELECT p.name
		FROM billing b
		JOIN appointment a ON b.appointment_id = a.appointment_id
		JOIN patient p ON a.patient_id = p.patient_id
		WHERE b.bill_id = $1`,
		[]any{billID},
		func(row *sql.Row) error {
			return row.Scan(&name)
		})
	if store.IsNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("billing: patient for bill: %w", err)
	}
	return name, nil
}

// RevenueForDate sums the day's bill totals.
func (r *Repository) RevenueForDate(ctx context.Context, date time.Time) (float64, error) {
	var total float64
	err := r.store.FetchOne(ctx, `
		SELECT COALESCE(SUM(total_amount), 0) FROM billing WHERE date = $1`,
		[]any{date},
		func(row *sql.Row) error {
			return row.Scan(&total)
		})
	if err != nil {
		return 0, fmt.Errorf("billing: revenue for date: %w", err)
	}
	return total, nil
}

// TotalRevenue sums every bill ever closed.
func (r *Repository) TotalRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.store.FetchOne(ctx, `
		SELECT COALESCE(SUM(total_amount), 0) FROM billing`, nil,
		func(row *sql.Row) error {
			return row.Scan(&total)
		})
	if err != nil {
		return 0, fmt.Errorf("billing: total revenue: %w", err)
	}
	return total, nil
}

// RevenueLastNDays returns the per-day revenue series for the dashboard.
func (r *Repository) RevenueLastNDays(ctx context.Context, days int) ([]DailyRevenue, error) {
	out := []DailyRevenue{}
	err := r.store.FetchAll(ctx, `
		SELECT date, COALESCE(SUM(total_amount), 0) AS total
		FROM billing
		WHERE date >= CURRENT_DATE - $1 * INTERVAL '1 day'
		GROUP BY date
		ORDER BY date`,
		[]any{days},
		func(rows *sql.Rows) error {
			for rows.Next() {
				var d DailyRevenue
				if err := rows.Scan(&d.Date, &d.Total); err != nil {
					return err
				}
				out = append(out, d)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("billing: revenue series: %w", err)
	}
	return out, nil
}
