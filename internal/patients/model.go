package patients

import "time"

// Patient is a registered clinic patient. Records are created once and
// never mutated or deleted.
type Patient struct {
	ID        int64     `json:"patient_id"`
	Name      string    `json:"name"`
	Age       *int      `json:"age,omitempty"`
	Gender    string    `json:"gender"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterRequest is the payload for registering a patient.
type RegisterRequest struct {
	Name    string `json:"name"`
	Age     *int   `json:"age,omitempty"`
	Gender  string `json:"gender"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// AgeGroupCount is one bucket of the dashboard age histogram.
type AgeGroupCount struct {
	Group string `json:"age_group"`
	Count int64  `json:"count"`
}
