package models

import (
	"fmt"
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPendingPayment AppointmentStatus = "Pending Payment"
	StatusScheduled      AppointmentStatus = "Scheduled"
	StatusConfirmed      AppointmentStatus = "Confirmed"
	StatusPending        AppointmentStatus = "Pending"
	StatusCompleted      AppointmentStatus = "Completed"
	StatusCancelled      AppointmentStatus = "Cancelled"
)

// ConsultationType enumerates how the consultation takes place.
type ConsultationType string

const (
	ConsultationInPerson  ConsultationType = "In-Person"
	ConsultationVideoCall ConsultationType = "Video-Call"
	ConsultationHomeVisit ConsultationType = "Home Visit"
)

const (
	// DateLayout and TimeLayout are the stored formats for the
	// scheduled calendar date and local time-of-day.
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment represents a booked consultation. DoctorName and
// Specialization are copied from the doctor's profile at booking time
// so later profile edits do not rewrite history.
type Appointment struct {
	BaseModel
	PatientID      string `gorm:"size:36;index" json:"patientId"`
	DoctorID       string `gorm:"size:36;index" json:"doctorId"`
	DoctorName     string `gorm:"size:200" json:"doctorName"`
	Specialization string `gorm:"size:100" json:"specialization"`

	// Patient contact details as submitted on the booking form.
	FullName    string `gorm:"size:200" json:"fullName"`
	Email       string `gorm:"size:255" json:"email"`
	Phone       string `gorm:"size:40" json:"phone"`
	DateOfBirth string `gorm:"size:10" json:"dob"`
	Gender      string `gorm:"size:20" json:"gender"`
	Address     string `gorm:"size:255" json:"address"`

	AppointmentDate  string            `gorm:"size:10;index" json:"appointmentDate"` // 2006-01-02
	AppointmentTime  string            `gorm:"size:5" json:"appointmentTime"`        // 15:04
	ConsultationType ConsultationType  `gorm:"size:20" json:"consultationType"`
	Reason           string            `gorm:"size:500" json:"reason"`
	Location         string            `gorm:"size:255" json:"location"`
	PatientCode      string            `gorm:"size:16" json:"patientCode"`
	Status           AppointmentStatus `gorm:"size:20;default:'Pending Payment';index" json:"status"`

	PaymentID string     `gorm:"size:100" json:"paymentId,omitempty"`
	PaymentAt *time.Time `json:"paymentAt,omitempty"`

	// Relations
	Patient User `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  User `gorm:"foreignKey:DoctorID" json:"-"`
}

// At combines the scheduled date and time-of-day into a single instant
// in the given location. Staleness checks order against this instant.
func (a *Appointment) At(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, a.AppointmentDate+" "+a.AppointmentTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid appointment date/time %q %q: %w", a.AppointmentDate, a.AppointmentTime, err)
	}
	return t, nil
}
