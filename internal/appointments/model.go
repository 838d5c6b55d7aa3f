package appointments

import "time"

// Appointment lifecycle states. An appointment starts Pending and moves
// once to Completed; it never reverts.
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
)

type Appointment struct {
	ID        int64     `json:"appointment_id"`
	PatientID int64     `json:"patient_id"`
	Date      time.Time `json:"date"`
	TimeSlot  string    `json:"time_slot"`
	Status    string    `json:"status"`
}

// Visit is an appointment joined with the patient's display name, the
// shape every listing screen consumes.
type Visit struct {
	Appointment
	PatientName string `json:"patient_name"`
}

// VisitDetail adds the patient snapshot needed by prescription export.
type VisitDetail struct {
	Appointment
	PatientName   string `json:"patient_name"`
	PatientAge    *int   `json:"patient_age,omitempty"`
	PatientGender string `json:"patient_gender"`
	PatientPhone  string `json:"patient_phone"`
}

// CreateRequest is the payload for scheduling an appointment.
type CreateRequest struct {
	PatientID int64  `json:"patient_id"`
	Date      string `json:"date"`
	TimeSlot  string `json:"time_slot"`
}

// StatusCount is one slice of the appointment status breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}
