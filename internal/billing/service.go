package billing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/citycare/clinic-opd/internal/observability/metrics"
	"github.com/citycare/clinic-opd/pkg/logging"
)

// ValidationError marks a bill request rejected before any write.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "billing: " + e.Reason
}

// IsValidation reports whether err is a pre-write rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Engine turns an ordered set of line items into a persisted bill with
// a computed total.
type Engine struct {
	repo    *Repository
	logger  *logging.Logger
	metrics *metrics.BillingMetrics
}

func NewEngine(repo *Repository, logger *logging.Logger, m *metrics.BillingMetrics) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{repo: repo, logger: logger, metrics: m}
}

// CreateBill validates the line items, computes the total and persists
// header plus items in one transaction. The returned bill's stored
// total always equals the sum computed here, and item order matches
// input order.
func (e *Engine) CreateBill(ctx context.Context, appointmentID int64, items []LineItem) (*Bill, []BillItem, error) {
	if err := validateItems(items); err != nil {
		e.metrics.ObserveRejected(rejectionReason(err))
		return nil, nil, err
	}

	total := SumItems(items)
	bill, err := e.repo.CreateBill(ctx, appointmentID, total, items)
	if err != nil {
		return nil, nil, err
	}

	stored := make([]BillItem, len(items))
	for i, it := range items {
		stored[i] = BillItem{BillID: bill.ID, ItemName: it.ItemName, Qty: it.Qty, Price: it.Price}
	}

	e.metrics.ObserveBillCreated(total)
	e.logger.Info("bill created", "bill_id", bill.ID, "appointment_id", appointmentID,
		"items", len(items), "total", FormatAmount(total))
	return bill, stored, nil
}

// GetBill returns the persisted header and ordered items, or nil when
// the bill id is unknown.
func (e *Engine) GetBill(ctx context.Context, billID int64) (*Bill, []BillItem, error) {
	return e.repo.GetBill(ctx, billID)
}

// SumItems computes Σ(qty×price) in integer paise so float accumulation
// cannot drift away from the 2-decimal amount printed on the invoice.
func SumItems(items []LineItem) float64 {
	var cents int64
	for _, it := range items {
		cents += int64(it.Qty) * toCents(it.Price)
	}
	return float64(cents) / 100
}

// FormatAmount renders a money amount with exactly two decimals.
func FormatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

func toCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

func validateItems(items []LineItem) error {
	if len(items) == 0 {
		return &ValidationError{Reason: "at least one line item is required"}
	}
	for i, it := range items {
		if strings.TrimSpace(it.ItemName) == "" {
			return &ValidationError{Reason: fmt.Sprintf("item %d: name is required", i+1)}
		}
		if it.Qty <= 0 {
			return &ValidationError{Reason: fmt.Sprintf("item %d: quantity must be a positive integer", i+1)}
		}
		if it.Price < 0 {
			return &ValidationError{Reason: fmt.Sprintf("item %d: price must not be negative", i+1)}
		}
	}
	return nil
}

func rejectionReason(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) && strings.Contains(ve.Reason, "line item is required") {
		return "empty_items"
	}
	return "bad_item"
}
