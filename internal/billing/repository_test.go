package billing

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citycare/clinic-opd/internal/store"
	"github.com/citycare/clinic-opd/pkg/logging"
)

func newTestRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := store.New(func() (*sql.DB, error) { return db, nil }, logging.Default(), nil)
	return NewRepository(s), mock
}

func TestCreateBillWritesHeaderThenItemsInOrder(t *testing.T) {
	repo, mock := newTestRepo(t)

	billed := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO billing").
		WithArgs(int64(7), 210.0).
		WillReturnRows(sqlmock.NewRows([]string{"bill_id", "date"}).AddRow(int64(3), billed))
	prep := mock.ExpectPrepare("INSERT INTO billing_items")
	prep.ExpectExec().
		WithArgs(int64(3), "Paracetamol", 2, 5.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs(int64(3), "Consultation Fee", 1, 200.0).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	bill, err := repo.CreateBill(context.Background(), 7, 210.0, []LineItem{
		{ItemName: "Paracetamol", Qty: 2, Price: 5.00},
		{ItemName: "Consultation Fee", Qty: 1, Price: 200.00},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), bill.ID)
	assert.Equal(t, 210.0, bill.TotalAmount)
	assert.Equal(t, billed, bill.Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBillRollsBackWhenAnItemFails(t *testing.T) {
	repo, mock := newTestRepo(t)

	boom := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO billing").
		WithArgs(int64(7), 210.0).
		WillReturnRows(sqlmock.NewRows([]string{"bill_id", "date"}).AddRow(int64(3), time.Now()))
	prep := mock.ExpectPrepare("INSERT INTO billing_items")
	prep.ExpectExec().
		WithArgs(int64(3), "Paracetamol", 2, 5.0).
		WillReturnError(boom)
	mock.ExpectRollback()

	_, err := repo.CreateBill(context.Background(), 7, 210.0, []LineItem{
		{ItemName: "Paracetamol", Qty: 2, Price: 5.00},
	})
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBillReturnsHeaderAndOrderedItems(t *testing.T) {
	repo, mock := newTestRepo(t)

	billed := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM billing WHERE bill_id").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"bill_id", "appointment_id", "total_amount", "date"}).
			AddRow(int64(3), int64(7), 210.0, billed))
	mock.ExpectQuery("FROM billing_items WHERE bill_id").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "bill_id", "item_name", "qty", "price"}).
			AddRow(int64(1), int64(3), "Paracetamol", 2, 5.0).
			AddRow(int64(2), int64(3), "Consultation Fee", 1, 200.0))

	bill, items, err := repo.GetBill(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, bill)
	assert.Equal(t, 210.0, bill.TotalAmount)
	require.Len(t, items, 2)
	assert.Equal(t, "Paracetamol", items[0].ItemName)
	assert.Equal(t, "Consultation Fee", items[1].ItemName)
}

func TestGetBillUnknownIDIsNil(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("FROM billing WHERE bill_id").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	bill, items, err := repo.GetBill(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, bill)
	assert.Nil(t, items)
}

func TestRevenueForDateEmptyDayIsZero(t *testing.T) {
	repo, mock := newTestRepo(t)

	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SUM\\(total_amount\\)").
		WithArgs(day).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0.0))

	total, err := repo.RevenueForDate(context.Background(), day)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRevenueLastNDaysScansSeries(t *testing.T) {
	repo, mock := newTestRepo(t)

	d1 := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	mock.ExpectQuery("GROUP BY date").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"date", "total"}).
			AddRow(d1, 500.0).
			AddRow(d2, 210.0))

	got, err := repo.RevenueLastNDays(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 210.0, got[1].Total)
}
