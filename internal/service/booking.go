package service

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"medibook-server/internal/config"
	"medibook-server/internal/lifecycle"
	"medibook-server/internal/models"
	"medibook-server/internal/repository"
	"medibook-server/internal/utils"
)

// BookingForm carries the patient-submitted booking fields. All twelve
// are required; validation runs before any persistence call.
type BookingForm struct {
	FullName         string `json:"fullName"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	DateOfBirth      string `json:"dob"`
	Gender           string `json:"gender"`
	Address          string `json:"address"`
	DoctorID         string `json:"doctor"`
	Specialization   string `json:"specialization"`
	AppointmentDate  string `json:"appointmentDate"`
	AppointmentTime  string `json:"appointmentTime"`
	ConsultationType string `json:"consultationType"`
	Location         string `json:"location"`

	// Reason is free text and optional.
	Reason string `json:"reason"`
}

// requiredFields preserves the form's field order so the first missing
// one is the one named in the error.
func (f *BookingForm) requiredFields() []struct{ name, value string } {
	return []struct{ name, value string }{
		{"fullName", f.FullName},
		{"email", f.Email},
		{"phone", f.Phone},
		{"dob", f.DateOfBirth},
		{"gender", f.Gender},
		{"address", f.Address},
		{"doctor", f.DoctorID},
		{"specialization", f.Specialization},
		{"appointmentDate", f.AppointmentDate},
		{"appointmentTime", f.AppointmentTime},
		{"consultationType", f.ConsultationType},
		{"location", f.Location},
	}
}

// BookingService turns a submitted form into a persisted appointment
// and hands off to the payment collaborator.
type BookingService interface {
	CreateAppointment(form BookingForm, patientID string) (*models.Appointment, error)
	ConfirmPayment(appointmentID, paymentID string) (*models.Appointment, error)
}

type bookingService struct {
	appointments repository.AppointmentRepository
	users        repository.UserRepository
	policy       config.BookingConfig
	events       EventPublisher
	logger       *logrus.Logger
	now          func() time.Time
}

// EventPublisher fans appointment events out to side collaborators
// (email, calendar). Publishing is fire-and-forget: failures are
// logged, never surfaced to the booking caller.
type EventPublisher interface {
	AppointmentConfirmed(appointment *models.Appointment)
	AppointmentCancelled(appointment *models.Appointment)
	AppointmentReminder(appointment *models.Appointment)
}

// NewBookingService wires the booking coordinator.
func NewBookingService(
	appointments repository.AppointmentRepository,
	users repository.UserRepository,
	policy config.BookingConfig,
	events EventPublisher,
	logger *logrus.Logger,
) BookingService {
	return &bookingService{
		appointments: appointments,
		users:        users,
		policy:       policy,
		events:       events,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *bookingService) CreateAppointment(form BookingForm, patientID string) (*models.Appointment, error) {
	for _, field := range form.requiredFields() {
		if field.value == "" {
			return nil, &ValidationError{Field: field.name}
		}
	}
	if _, err := time.Parse(models.DateLayout, form.AppointmentDate); err != nil {
		return nil, &ValidationError{Field: "appointmentDate"}
	}
	if _, err := time.Parse(models.TimeLayout, form.AppointmentTime); err != nil {
		return nil, &ValidationError{Field: "appointmentTime"}
	}

	doctor, err := s.users.GetDoctor(form.DoctorID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	appointment := &models.Appointment{
		PatientID: patientID,
		DoctorID:  doctor.ID,
		// Copied, not referenced: later profile edits must not rewrite
		// historical appointments.
		DoctorName:       doctor.FullName(),
		Specialization:   doctor.Specialization,
		FullName:         form.FullName,
		Email:            form.Email,
		Phone:            form.Phone,
		DateOfBirth:      form.DateOfBirth,
		Gender:           form.Gender,
		Address:          form.Address,
		AppointmentDate:  form.AppointmentDate,
		AppointmentTime:  form.AppointmentTime,
		ConsultationType: models.ConsultationType(form.ConsultationType),
		Reason:           form.Reason,
		Location:         form.Location,
		PatientCode:      utils.GenerateDisplayCode(8),
		Status:           models.StatusPendingPayment,
	}

	if s.policy.EnforceSlotUniqueness {
		// Check and insert run atomically in the store; a plain
		// count-then-create here would let two concurrent bookings for
		// the same slot both pass the check.
		inserted, err := s.appointments.CreateIfSlotFree(appointment)
		if err != nil {
			return nil, err
		}
		if !inserted {
			return nil, ErrSlotTaken
		}
	} else if err := s.appointments.Create(appointment); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"appointmentId": appointment.ID,
		"doctorId":      doctor.ID,
		"date":          appointment.AppointmentDate,
		"time":          appointment.AppointmentTime,
	}).Info("appointment created, awaiting payment")

	return appointment, nil
}

func (s *bookingService) ConfirmPayment(appointmentID, paymentID string) (*models.Appointment, error) {
	appointment, err := s.appointments.GetByID(appointmentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if lifecycle.Terminal(appointment.Status) {
		return nil, lifecycle.ErrInvalidTransition
	}

	paidAt := s.now()
	if err := s.appointments.ConfirmPayment(appointmentID, paymentID, paidAt); err != nil {
		return nil, err
	}

	appointment.Status = models.StatusConfirmed
	appointment.PaymentID = paymentID
	appointment.PaymentAt = &paidAt

	s.logger.WithFields(logrus.Fields{
		"appointmentId": appointmentID,
		"paymentId":     paymentID,
	}).Info("payment confirmed")

	if s.events != nil {
		s.events.AppointmentConfirmed(appointment)
	}

	return appointment, nil
}
