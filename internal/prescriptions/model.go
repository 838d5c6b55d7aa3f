package prescriptions

import "time"

// Prescription is one visit note written by the doctor. Rows are
// append-only per appointment; the latest is the one with the most
// recent creation timestamp.
type Prescription struct {
	ID            int64      `json:"id"`
	AppointmentID int64      `json:"appointment_id"`
	Diagnosis     string     `json:"diagnosis"`
	Medicines     string     `json:"medicines"`
	Dosage        string     `json:"dosage"`
	Notes         string     `json:"notes"`
	FollowUpDate  *time.Time `json:"follow_up_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SaveRequest is the payload for recording a prescription. Medicines is
// comma-separated free text, matching the paper form it replaces.
type SaveRequest struct {
	AppointmentID int64  `json:"appointment_id"`
	Diagnosis     string `json:"diagnosis"`
	Medicines     string `json:"medicines"`
	Dosage        string `json:"dosage"`
	Notes         string `json:"notes"`
	FollowUpDate  string `json:"follow_up_date,omitempty"`
}

// DiagnosisCount is one bar of the dashboard disease distribution.
type DiagnosisCount struct {
	Diagnosis string `json:"diagnosis"`
	Count     int64  `json:"count"`
}
