package models

import (
	"time"
)

// MedicalReportFile is one uploaded file in an appointment's report
// bundle. Entries are appended in upload order and removed one at a
// time by their storage path; the bundle is simply the set of rows for
// an appointment.
type MedicalReportFile struct {
	BaseModel
	AppointmentID string `gorm:"size:36;index" json:"appointmentId"`
	Title         string `gorm:"size:255;not null" json:"title"`
	FileURL       string `gorm:"size:500;not null" json:"fileUrl"`
	StoragePath   string `gorm:"size:500;uniqueIndex" json:"storagePath"`
	FileType      string `gorm:"size:100" json:"fileType"`
	UploadedBy    string `gorm:"size:36" json:"uploadedBy"`
}

// Prescription is created by a doctor against an appointment and is
// immutable once written. It holds free-text notes and/or one file.
type Prescription struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AppointmentID string    `gorm:"size:36;index" json:"appointmentId"`
	DoctorID      string    `gorm:"size:36;index" json:"doctorId"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
	FileURL       string    `gorm:"size:500" json:"fileUrl,omitempty"`
	FileType      string    `gorm:"size:100" json:"fileType,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
