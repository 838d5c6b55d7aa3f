package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/citycare/clinic-opd/internal/appointments"
	"github.com/citycare/clinic-opd/internal/billing"
	"github.com/citycare/clinic-opd/internal/prescriptions"
)

// AppointmentSource resolves an appointment with its patient snapshot.
type AppointmentSource interface {
	GetWithPatient(ctx context.Context, appointmentID int64) (*appointments.VisitDetail, error)
}

// PrescriptionSource resolves the latest prescription for an appointment.
type PrescriptionSource interface {
	LatestForAppointment(ctx context.Context, appointmentID int64) (*prescriptions.Prescription, error)
}

// BillSource resolves a bill with its items and the billed patient.
type BillSource interface {
	GetBill(ctx context.Context, billID int64) (*billing.Bill, []billing.BillItem, error)
	PatientNameForBill(ctx context.Context, billID int64) (string, error)
}

// PrescriptionExport is the printable prescription payload. Renderers
// downstream own layout; this package owns the field contract.
type PrescriptionExport struct {
	AppointmentID int64  `json:"appointment_id"`
	Date          string `json:"date"`
	TimeSlot      string `json:"time_slot"`

	PatientName   string `json:"patient_name"`
	PatientAge    *int   `json:"patient_age,omitempty"`
	PatientGender string `json:"patient_gender"`
	PatientPhone  string `json:"patient_phone"`

	Diagnosis    string `json:"diagnosis"`
	Medicines    string `json:"medicines"`
	Dosage       string `json:"dosage"`
	Notes        string `json:"notes"`
	FollowUpDate string `json:"follow_up_date"`
	RecordedAt   string `json:"recorded_at"`
}

// InvoiceLine is one printed invoice row with its extended amount.
type InvoiceLine struct {
	ItemName string `json:"item_name"`
	Qty      int    `json:"qty"`
	Price    string `json:"price"`
	Amount   string `json:"amount"`
}

// InvoiceExport is the printable invoice payload. TotalAmount is the
// stored header total formatted to two decimals; the line amounts sum
// to it.
type InvoiceExport struct {
	BillID      int64         `json:"bill_id"`
	Date        string        `json:"date"`
	PatientName string        `json:"patient_name"`
	Items       []InvoiceLine `json:"items"`
	TotalAmount string        `json:"total_amount"`
}

// Builder assembles export payloads from the record stores.
type Builder struct {
	appointments  AppointmentSource
	prescriptions PrescriptionSource
	bills         BillSource
}

func NewBuilder(a AppointmentSource, p PrescriptionSource, b BillSource) *Builder {
	return &Builder{appointments: a, prescriptions: p, bills: b}
}

// Prescription builds the printable prescription for an appointment, or
// nil when the appointment id is unknown. A visit without a recorded
// prescription still exports, with "none" in the clinical fields.
func (b *Builder) Prescription(ctx context.Context, appointmentID int64) (*PrescriptionExport, error) {
	visit, err := b.appointments.GetWithPatient(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("reports: load appointment: %w", err)
	}
	if visit == nil {
		return nil, nil
	}

	export := PrescriptionExport{
		AppointmentID: visit.ID,
		Date:          visit.Date.Format("2006-01-02"),
		TimeSlot:      visit.TimeSlot,
		PatientName:   visit.PatientName,
		PatientAge:    visit.PatientAge,
		PatientGender: visit.PatientGender,
		PatientPhone:  visit.PatientPhone,
		Diagnosis:     "none",
		Medicines:     "none",
		Dosage:        "none",
		Notes:         "none",
		FollowUpDate:  "none",
	}

	p, err := b.prescriptions.LatestForAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("reports: load prescription: %w", err)
	}
	if p != nil {
		export.Diagnosis = orNone(p.Diagnosis)
		export.Medicines = orNone(p.Medicines)
		export.Dosage = orNone(p.Dosage)
		export.Notes = orNone(p.Notes)
		if p.FollowUpDate != nil {
			export.FollowUpDate = p.FollowUpDate.Format("2006-01-02")
		}
		export.RecordedAt = p.CreatedAt.Format(time.RFC3339)
	}
	return &export, nil
}

// Invoice builds the printable invoice for a bill, or nil when the bill
// id is unknown.
func (b *Builder) Invoice(ctx context.Context, billID int64) (*InvoiceExport, error) {
	bill, items, err := b.bills.GetBill(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("reports: load bill: %w", err)
	}
	if bill == nil {
		return nil, nil
	}

	name, err := b.bills.PatientNameForBill(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("reports: patient for bill: %w", err)
	}

	lines := make([]InvoiceLine, len(items))
	for i, it := range items {
		lines[i] = InvoiceLine{
			ItemName: it.ItemName,
			Qty:      it.Qty,
			Price:    billing.FormatAmount(it.Price),
			Amount:   billing.FormatAmount(float64(it.Qty) * it.Price),
		}
	}

	return &InvoiceExport{
		BillID:      bill.ID,
		Date:        bill.Date.Format("2006-01-02"),
		PatientName: name,
		Items:       lines,
		TotalAmount: billing.FormatAmount(bill.TotalAmount),
	}, nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
