package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// User represents a patient, doctor or admin account.
// Doctor-only fields (Specialization, ConsultationFee, availability)
// are left empty for patients.
type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password     string     `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	FirstName    string     `gorm:"size:100" json:"firstName"`
	LastName     string     `gorm:"size:100" json:"lastName"`
	Role         Role       `gorm:"size:20;default:'patient'" json:"role"`
	DateOfBirth  *time.Time `json:"dateOfBirth,omitempty"`
	Gender       string     `gorm:"size:20" json:"gender,omitempty"`
	PhoneNumber  string     `json:"phoneNumber,omitempty"`
	Address      string     `json:"address,omitempty"`
	ProfileImage string     `json:"profileImage,omitempty"`

	// DisplayCode is a human-facing short code shown on cards and
	// receipts. It is best-effort unique; ID stays the identity key.
	DisplayCode string `gorm:"size:16;index" json:"displayCode,omitempty"`

	Specialization string `gorm:"size:100" json:"specialization,omitempty"`

	// Relations (not always preloaded)
	RefreshTokens       []RefreshToken       `gorm:"foreignKey:UserID" json:"-"`
	Availability        []DoctorAvailability `gorm:"foreignKey:DoctorID" json:"availability,omitempty"`
	DoctorAppointments  []Appointment        `gorm:"foreignKey:DoctorID" json:"-"`
	PatientAppointments []Appointment        `gorm:"foreignKey:PatientID" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID             string               `json:"id"`
	Email          string               `json:"email"`
	FirstName      string               `json:"firstName"`
	LastName       string               `json:"lastName"`
	Role           Role                 `json:"role"`
	DateOfBirth    *time.Time           `json:"dateOfBirth,omitempty"`
	Gender         string               `json:"gender,omitempty"`
	PhoneNumber    string               `json:"phoneNumber,omitempty"`
	Address        string               `json:"address,omitempty"`
	ProfileImage   string               `json:"profileImage,omitempty"`
	DisplayCode    string               `json:"displayCode,omitempty"`
	Specialization string               `json:"specialization,omitempty"`
	Availability   []DoctorAvailability `json:"availability,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// FullName joins the first and last name for denormalized display fields.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           u.Role,
		DateOfBirth:    u.DateOfBirth,
		Gender:         u.Gender,
		PhoneNumber:    u.PhoneNumber,
		Address:        u.Address,
		ProfileImage:   u.ProfileImage,
		DisplayCode:    u.DisplayCode,
		Specialization: u.Specialization,
		Availability:   u.Availability,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
