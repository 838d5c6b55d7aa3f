package billing

import "time"

// Bill is the persisted header of one billing event. The total is
// computed once at creation and stored; it is never recomputed from the
// items afterwards.
type Bill struct {
	ID            int64     `json:"bill_id"`
	AppointmentID int64     `json:"appointment_id"`
	TotalAmount   float64   `json:"total_amount"`
	Date          time.Time `json:"date"`
}

// BillItem is one persisted line of a bill. Items belong to exactly one
// bill and have no lifecycle of their own.
type BillItem struct {
	ID       int64   `json:"id"`
	BillID   int64   `json:"bill_id"`
	ItemName string  `json:"item_name"`
	Qty      int     `json:"qty"`
	Price    float64 `json:"price"`
}

// LineItem is one billable entry as submitted by the desk.
type LineItem struct {
	ItemName string  `json:"item_name"`
	Qty      int     `json:"qty"`
	Price    float64 `json:"price"`
}

// CreateRequest is the payload for closing a bill.
type CreateRequest struct {
	AppointmentID int64      `json:"appointment_id"`
	Items         []LineItem `json:"items"`
}

// DailyRevenue is one day of the dashboard revenue series.
type DailyRevenue struct {
	Date  time.Time `json:"date"`
	Total float64   `json:"total"`
}
