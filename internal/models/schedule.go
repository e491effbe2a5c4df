package models

const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
)

// Presentation categories of appointment statuses
const (
	CategoryPrimary = "primary"
	CategorySuccess = "success"
	CategoryInfo    = "info"
	CategoryError   = "error"
	CategoryDefault = "default"
)

type Appointment struct {
	ID          int64  `json:"id"`
	PatientName string `json:"patient_name"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Reason      string `json:"reason"`
	Status      string `json:"status"`
	Notes       string `json:"notes,omitempty"`
}

type AvailabilitySlot struct {
	ID          int64  `json:"id"`
	Day         string `json:"day"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

// StatusCategory maps appointment status to presentation category
// Unknown statuses map to CategoryDefault
func StatusCategory(status string) string {
	switch status {
	case AppointmentStatusScheduled:
		return CategoryPrimary
	case AppointmentStatusConfirmed:
		return CategorySuccess
	case AppointmentStatusCompleted:
		return CategoryInfo
	case AppointmentStatusCancelled:
		return CategoryError
	default:
		return CategoryDefault
	}
}

// AvailabilityLabel returns human label and category of a slot
func (s AvailabilitySlot) AvailabilityLabel() (label string, category string) {
	if s.IsAvailable {
		return "Available", CategorySuccess
	}
	return "Unavailable", CategoryError
}
