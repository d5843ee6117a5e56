package service

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"medibook-server/internal/lifecycle"
	"medibook-server/internal/models"
	"medibook-server/internal/repository"
)

// AppointmentService owns every status transition after booking:
// read-time sweeps, doctor completion/cancellation, reschedules and
// deletion. Listing screens go through it so the stale check lives in
// exactly one place.
type AppointmentService interface {
	ListForPatient(patientID string, now time.Time) ([]AppointmentView, error)
	ListForDoctor(doctorID string, now time.Time) ([]AppointmentView, error)
	Get(appointmentID string) (*models.Appointment, error)
	MarkCompleted(appointmentID string) (*models.Appointment, error)
	MarkCancelled(appointmentID string) (*models.Appointment, error)
	Reschedule(appointmentID, newDate, newTime string, newType models.ConsultationType) (*models.Appointment, error)
	Delete(appointmentID string) error
	// SweepStale demotes every due Scheduled/Confirmed appointment.
	// Safe to run concurrently from any number of callers.
	SweepStale(now time.Time) (int, error)
}

// AppointmentView decorates an appointment with its display bucket.
type AppointmentView struct {
	models.Appointment
	Bucket lifecycle.DisplayBucket `json:"bucket"`
}

type appointmentService struct {
	appointments repository.AppointmentRepository
	events       EventPublisher
	logger       *logrus.Logger
	loc          *time.Location
}

// NewAppointmentService wires the lifecycle manager over its store.
func NewAppointmentService(
	appointments repository.AppointmentRepository,
	events EventPublisher,
	logger *logrus.Logger,
	loc *time.Location,
) AppointmentService {
	if loc == nil {
		loc = time.Local
	}
	return &appointmentService{
		appointments: appointments,
		events:       events,
		logger:       logger,
		loc:          loc,
	}
}

// sweepList demotes due rows in place and persists each demotion with a
// conditional update, so two viewers sweeping the same row both settle
// on Pending.
func (s *appointmentService) sweepList(appointments []models.Appointment, now time.Time) []AppointmentView {
	views := make([]AppointmentView, 0, len(appointments))
	for i := range appointments {
		a := &appointments[i]
		if status, changed := lifecycle.SweepStatus(a, now, s.loc); changed {
			if err := s.appointments.DemoteIfDue(a.ID); err != nil {
				// Best-effort: the row is shown with its stored status
				// and the next viewer retries the demotion.
				s.logger.WithError(err).WithField("appointmentId", a.ID).
					Warn("failed to persist stale demotion")
			} else {
				a.Status = status
			}
		}
		views = append(views, AppointmentView{Appointment: *a, Bucket: lifecycle.Bucket(a.Status)})
	}
	return views
}

func (s *appointmentService) ListForPatient(patientID string, now time.Time) ([]AppointmentView, error) {
	appointments, err := s.appointments.ListByPatient(patientID)
	if err != nil {
		return nil, err
	}
	return s.sweepList(appointments, now), nil
}

func (s *appointmentService) ListForDoctor(doctorID string, now time.Time) ([]AppointmentView, error) {
	appointments, err := s.appointments.ListByDoctor(doctorID)
	if err != nil {
		return nil, err
	}
	return s.sweepList(appointments, now), nil
}

func (s *appointmentService) Get(appointmentID string) (*models.Appointment, error) {
	appointment, err := s.appointments.GetByID(appointmentID)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	return appointment, err
}

func (s *appointmentService) transition(appointmentID string, guard func(models.AppointmentStatus) error, to models.AppointmentStatus) (*models.Appointment, error) {
	appointment, err := s.Get(appointmentID)
	if err != nil {
		return nil, err
	}
	if err := guard(appointment.Status); err != nil {
		return nil, err
	}
	if err := s.appointments.UpdateStatus(appointmentID, to); err != nil {
		return nil, err
	}
	appointment.Status = to
	s.logger.WithFields(logrus.Fields{
		"appointmentId": appointmentID,
		"status":        to,
	}).Info("appointment status updated")
	return appointment, nil
}

func (s *appointmentService) MarkCompleted(appointmentID string) (*models.Appointment, error) {
	return s.transition(appointmentID, lifecycle.CanComplete, models.StatusCompleted)
}

func (s *appointmentService) MarkCancelled(appointmentID string) (*models.Appointment, error) {
	appointment, err := s.transition(appointmentID, lifecycle.CanCancel, models.StatusCancelled)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.AppointmentCancelled(appointment)
	}
	return appointment, nil
}

func (s *appointmentService) Reschedule(appointmentID, newDate, newTime string, newType models.ConsultationType) (*models.Appointment, error) {
	if _, err := time.Parse(models.DateLayout, newDate); err != nil {
		return nil, &ValidationError{Field: "appointmentDate"}
	}
	if _, err := time.Parse(models.TimeLayout, newTime); err != nil {
		return nil, &ValidationError{Field: "appointmentTime"}
	}

	appointment, err := s.Get(appointmentID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CanReschedule(appointment.Status); err != nil {
		return nil, err
	}

	if err := s.appointments.Reschedule(appointmentID, newDate, newTime, newType); err != nil {
		return nil, err
	}

	appointment.AppointmentDate = newDate
	appointment.AppointmentTime = newTime
	appointment.ConsultationType = newType
	appointment.Status = models.StatusScheduled
	return appointment, nil
}

func (s *appointmentService) Delete(appointmentID string) error {
	if _, err := s.Get(appointmentID); err != nil {
		return err
	}
	// Report files are intentionally not cascaded: their rows keep the
	// appointment id and their blobs stay on disk.
	return s.appointments.Delete(appointmentID)
}

func (s *appointmentService) SweepStale(now time.Time) (int, error) {
	candidates, err := s.appointments.ListByStatuses([]models.AppointmentStatus{
		models.StatusScheduled, models.StatusConfirmed,
	})
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range candidates {
		if _, changed := lifecycle.SweepStatus(&candidates[i], now, s.loc); !changed {
			continue
		}
		if err := s.appointments.DemoteIfDue(candidates[i].ID); err != nil {
			s.logger.WithError(err).WithField("appointmentId", candidates[i].ID).
				Warn("sweep failed for appointment")
			continue
		}
		swept++
	}

	if swept > 0 {
		s.logger.WithField("count", swept).Info("stale appointments demoted to Pending")
	}
	return swept, nil
}
