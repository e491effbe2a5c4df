package clinicapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nkiryanov/clinicdesk/internal/models"
)

type appointmentResponse struct {
	ID              int64  `json:"id"`
	AppointmentDate string `json:"appointment_date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Reason          string `json:"reason"`
	Status          string `json:"status"`
	Notes           string `json:"notes"`

	PatientDetails struct {
		User struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		} `json:"user"`
	} `json:"patient_details"`
}

func (a appointmentResponse) toModel() models.Appointment {
	u := a.PatientDetails.User
	return models.Appointment{
		ID:          a.ID,
		PatientName: models.Identity{FirstName: u.FirstName, LastName: u.LastName}.FullName(),
		Date:        a.AppointmentDate,
		StartTime:   a.StartTime,
		EndTime:     a.EndTime,
		Reason:      a.Reason,
		Status:      a.Status,
		Notes:       a.Notes,
	}
}

type availabilityResponse struct {
	ID          int64  `json:"id"`
	Day         string `json:"day"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

// DoctorAppointments lists appointments of the doctor
func (c *Client) DoctorAppointments(ctx context.Context, access string, doctorID int64) ([]models.Appointment, error) {
	var resp []appointmentResponse

	path := "/api/appointments/doctor/" + strconv.FormatInt(doctorID, 10) + "/"
	if err := c.do(ctx, request{method: http.MethodGet, path: path, access: access}, &resp); err != nil {
		return nil, err
	}

	appointments := make([]models.Appointment, 0, len(resp))
	for _, a := range resp {
		appointments = append(appointments, a.toModel())
	}
	return appointments, nil
}

// DoctorAvailability lists weekly availability slots of the doctor
func (c *Client) DoctorAvailability(ctx context.Context, access string, doctorID int64) ([]models.AvailabilitySlot, error) {
	var resp []availabilityResponse

	path := "/api/doctors/" + strconv.FormatInt(doctorID, 10) + "/availability/"
	if err := c.do(ctx, request{method: http.MethodGet, path: path, access: access}, &resp); err != nil {
		return nil, err
	}

	slots := make([]models.AvailabilitySlot, 0, len(resp))
	for _, s := range resp {
		slots = append(slots, models.AvailabilitySlot{
			ID:          s.ID,
			Day:         s.Day,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			IsAvailable: s.IsAvailable,
		})
	}
	return slots, nil
}
