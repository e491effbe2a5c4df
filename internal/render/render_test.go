package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/clinicdesk/internal/apperrors"
	"github.com/nkiryanov/clinicdesk/internal/models"
	"github.com/nkiryanov/clinicdesk/internal/service/dashboard"
	"github.com/nkiryanov/clinicdesk/internal/service/session"
)

var testDashboard = dashboard.Dashboard{
	DoctorID: 3,
	Appointments: []models.Appointment{
		{ID: 10, PatientName: "John Doe", Date: "2026-10-19", StartTime: "09:00:00", EndTime: "09:30:00", Reason: "Checkup", Status: "scheduled"},
		{ID: 11, PatientName: "Jane Roe", Date: "2026-10-19", StartTime: "14:15:00", EndTime: "14:45:00", Reason: "Follow-up", Status: "no_show"},
	},
	Availability: []models.AvailabilitySlot{
		{ID: 1, Day: "monday", StartTime: "09:00:00", EndTime: "17:00:00", IsAvailable: true},
		{ID: 2, Day: "sunday", StartTime: "00:00", EndTime: "00:00", IsAvailable: false},
	},
}

func TestParseFormat(t *testing.T) {
	for _, f := range []string{"table", "json"} {
		got, err := ParseFormat(f)
		require.NoError(t, err)
		require.Equal(t, f, got)
	}

	_, err := ParseFormat("yaml")
	require.Error(t, err)

	_, err = NewPrinter(&bytes.Buffer{}, "xml")
	require.Error(t, err, "printer should not accept unknown format")
}

func TestClock(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{"09:00:00", "9:00 AM"},
		{"14:15:00", "2:15 PM"},
		{"00:00", "12:00 AM"},
		{"soon", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			require.Equal(t, tt.expected, clock(tt.value))
		})
	}
}

func TestPrinter_Dashboard(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		p, err := NewPrinter(&buf, FormatTable)
		require.NoError(t, err)

		err = p.Dashboard(testDashboard)

		require.NoError(t, err)
		out := buf.String()
		require.Contains(t, out, "Appointments (2)")
		require.Contains(t, out, "John Doe")
		require.Contains(t, out, "9:00 AM - 9:30 AM")
		require.Contains(t, out, "primary", "scheduled maps to primary")
		require.Contains(t, out, "default", "unknown status maps to default")
		require.Contains(t, out, "Availability (2)")
		require.Contains(t, out, "Unavailable")
	})

	t.Run("table empty lists", func(t *testing.T) {
		var buf bytes.Buffer
		p, err := NewPrinter(&buf, FormatTable)
		require.NoError(t, err)

		err = p.Dashboard(dashboard.Dashboard{DoctorID: 3})

		require.NoError(t, err)
		require.Contains(t, buf.String(), "No appointments scheduled")
		require.Contains(t, buf.String(), "No availability set")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		p, err := NewPrinter(&buf, FormatJSON)
		require.NoError(t, err)

		err = p.Dashboard(dashboard.Dashboard{
			DoctorID:     3,
			Appointments: testDashboard.Appointments[:1],
			Availability: testDashboard.Availability[:1],
		})

		require.NoError(t, err)
		require.JSONEq(t, `{
			"doctor_id": 3,
			"appointments": [{
				"id": 10,
				"patient_name": "John Doe",
				"date": "2026-10-19",
				"start_time": "09:00:00",
				"end_time": "09:30:00",
				"reason": "Checkup",
				"status": "scheduled"
			}],
			"availability": [{
				"id": 1,
				"day": "monday",
				"start_time": "09:00:00",
				"end_time": "17:00:00",
				"is_available": true
			}]
		}`, buf.String())
	})
}

func TestPrinter_Session(t *testing.T) {
	authenticated := session.State{
		Phase:    session.PhaseAuthenticated,
		Identity: &models.Identity{ID: 3, Username: "dr.jones", Role: "doctor", FirstName: "Indiana", LastName: "Jones"},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		p, err := NewPrinter(&buf, FormatTable)
		require.NoError(t, err)

		require.NoError(t, p.Session(authenticated))

		require.Contains(t, buf.String(), "authenticated")
		require.Contains(t, buf.String(), "Indiana Jones")
	})

	t.Run("json with error", func(t *testing.T) {
		var buf bytes.Buffer
		p, err := NewPrinter(&buf, FormatJSON)
		require.NoError(t, err)

		err = p.Session(session.State{
			Phase: session.PhaseAnonymous,
			Error: "Invalid credentials",
			Err:   apperrors.ErrInvalidCredentials,
		})

		require.NoError(t, err)
		require.JSONEq(t, `{
			"phase": "anonymous",
			"identity": null,
			"error": "Invalid credentials",
			"error_kind": "invalid_credentials"
		}`, buf.String())
	})
}
