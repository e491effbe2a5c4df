package dashboard

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nkiryanov/clinicdesk/internal/apperrors"
	"github.com/nkiryanov/clinicdesk/internal/logger"
	"github.com/nkiryanov/clinicdesk/internal/models"
)

// Source of the access token of the current session
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Remote read API with doctor's schedule
type ScheduleAPI interface {
	DoctorAppointments(ctx context.Context, access string, doctorID int64) ([]models.Appointment, error)
	DoctorAvailability(ctx context.Context, access string, doctorID int64) ([]models.AvailabilitySlot, error)
}

// Dashboard of a doctor: appointments and weekly availability
type Dashboard struct {
	DoctorID     int64                     `json:"doctor_id"`
	Appointments []models.Appointment      `json:"appointments"`
	Availability []models.AvailabilitySlot `json:"availability"`
}

type Service struct {
	api    ScheduleAPI
	tokens TokenSource
	logger logger.Logger
}

func New(api ScheduleAPI, tokens TokenSource, l logger.Logger) (*Service, error) {
	if api == nil || tokens == nil {
		return nil, errors.New("schedule api and token source must be set")
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Service{api: api, tokens: tokens, logger: l}, nil
}

// Load fetches appointments and availability of the doctor in parallel
// Fails with apperrors.ErrNoSession if nobody is logged in
func (s *Service) Load(ctx context.Context, doctorID int64) (Dashboard, error) {
	d := Dashboard{DoctorID: doctorID}

	if doctorID <= 0 {
		return d, &apperrors.APIError{
			Kind:   apperrors.ErrValidationFailure,
			Fields: map[string][]string{"doctor_id": {"Must be a positive number."}},
		}
	}

	access, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return d, err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appointments, err := s.api.DoctorAppointments(gctx, access, doctorID)
		if err != nil {
			return fmt.Errorf("failed to load appointments: %w", err)
		}
		d.Appointments = appointments
		return nil
	})

	g.Go(func() error {
		slots, err := s.api.DoctorAvailability(gctx, access, doctorID)
		if err != nil {
			return fmt.Errorf("failed to load availability: %w", err)
		}
		d.Availability = slots
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("Failed to load dashboard", "doctor_id", doctorID, "kind", apperrors.Kind(err), "error", err)
		return Dashboard{DoctorID: doctorID}, err
	}

	s.logger.Debug("Dashboard loaded",
		"doctor_id", doctorID,
		"appointments", len(d.Appointments),
		"availability", len(d.Availability),
	)
	return d, nil
}
