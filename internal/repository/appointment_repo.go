package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"medibook-server/internal/models"
)

// AppointmentRepository persists appointments. Every mutation touches a
// single row with a partial field update; last-write-wins on the status
// column is the concurrency control.
type AppointmentRepository interface {
	Create(appointment *models.Appointment) error
	GetByID(id string) (*models.Appointment, error)
	ListByPatient(patientID string) ([]models.Appointment, error)
	ListByDoctor(doctorID string) ([]models.Appointment, error)
	ListByStatuses(statuses []models.AppointmentStatus) ([]models.Appointment, error)
	// UpdateStatus sets only the status column.
	UpdateStatus(id string, status models.AppointmentStatus) error
	// DemoteIfDue sets status to Pending only while the row still holds
	// one of the sweepable statuses, keeping concurrent sweeps idempotent.
	DemoteIfDue(id string) error
	ConfirmPayment(id, paymentID string, at time.Time) error
	Reschedule(id, date, timeOfDay string, consultationType models.ConsultationType) error
	Delete(id string) error
	// CreateIfSlotFree inserts the appointment only when no non-terminal
	// appointment already holds the same doctor, date and time. The
	// check and the insert run in one transaction with a locking read,
	// so two concurrent bookings for the same slot cannot both pass.
	// Returns false, nil when the slot was taken.
	CreateIfSlotFree(appointment *models.Appointment) (bool, error)
	SpecializationCounts() ([]SpecializationCount, error)
	StatusCounts() (map[models.AppointmentStatus]int64, error)
	ListDueOn(date string) ([]models.Appointment, error)
}

// SpecializationCount is one row of the admin statistics breakdown.
type SpecializationCount struct {
	Specialization string `json:"specialization"`
	Total          int64  `json:"total"`
}

type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository returns a gorm-backed AppointmentRepository.
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(appointment *models.Appointment) error {
	return r.db.Create(appointment).Error
}

func (r *appointmentRepository) GetByID(id string) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := r.db.First(&appointment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) ListByPatient(patientID string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.Where("patient_id = ?", patientID).
		Order("appointment_date asc, appointment_time asc").
		Find(&appointments).Error
	return appointments, err
}

func (r *appointmentRepository) ListByDoctor(doctorID string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.Where("doctor_id = ?", doctorID).
		Order("appointment_date asc, appointment_time asc").
		Find(&appointments).Error
	return appointments, err
}

func (r *appointmentRepository) ListByStatuses(statuses []models.AppointmentStatus) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.Where("status IN ?", statuses).Find(&appointments).Error
	return appointments, err
}

func (r *appointmentRepository) UpdateStatus(id string, status models.AppointmentStatus) error {
	return r.db.Model(&models.Appointment{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *appointmentRepository) DemoteIfDue(id string) error {
	return r.db.Model(&models.Appointment{}).
		Where("id = ? AND status IN ?", id, []models.AppointmentStatus{models.StatusScheduled, models.StatusConfirmed}).
		Update("status", models.StatusPending).Error
}

func (r *appointmentRepository) ConfirmPayment(id, paymentID string, at time.Time) error {
	return r.db.Model(&models.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.StatusConfirmed,
			"payment_id": paymentID,
			"payment_at": at,
		}).Error
}

func (r *appointmentRepository) Reschedule(id, date, timeOfDay string, consultationType models.ConsultationType) error {
	return r.db.Model(&models.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"appointment_date":  date,
			"appointment_time":  timeOfDay,
			"consultation_type": consultationType,
			"status":            models.StatusScheduled,
		}).Error
}

func (r *appointmentRepository) Delete(id string) error {
	return r.db.Delete(&models.Appointment{}, "id = ?", id).Error
}

func (r *appointmentRepository) CreateIfSlotFree(appointment *models.Appointment) (bool, error) {
	inserted := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Appointment{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("doctor_id = ? AND appointment_date = ? AND appointment_time = ? AND status NOT IN ?",
				appointment.DoctorID, appointment.AppointmentDate, appointment.AppointmentTime,
				[]models.AppointmentStatus{models.StatusCompleted, models.StatusCancelled}).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(appointment).Error; err != nil {
			return err
		}
		inserted = true
		return nil
	})
	return inserted, err
}

func (r *appointmentRepository) SpecializationCounts() ([]SpecializationCount, error) {
	var counts []SpecializationCount
	err := r.db.Model(&models.Appointment{}).
		Select("specialization, COUNT(*) as total").
		Group("specialization").
		Order("total desc").
		Scan(&counts).Error
	return counts, err
}

func (r *appointmentRepository) StatusCounts() (map[models.AppointmentStatus]int64, error) {
	var rows []struct {
		Status models.AppointmentStatus
		Total  int64
	}
	err := r.db.Model(&models.Appointment{}).
		Select("status, COUNT(*) as total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.AppointmentStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *appointmentRepository) ListDueOn(date string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.Where("appointment_date = ? AND status IN ?", date,
		[]models.AppointmentStatus{models.StatusScheduled, models.StatusConfirmed}).
		Find(&appointments).Error
	return appointments, err
}
