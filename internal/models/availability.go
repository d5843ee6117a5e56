package models

// DoctorAvailability holds one weekday of a doctor's weekly schedule.
// A doctor has at most seven rows, one per weekday name. Availability
// is advisory only: it is not cross-checked against existing
// appointments.
type DoctorAvailability struct {
	BaseModel
	DoctorID  string `gorm:"size:36;uniqueIndex:idx_avail_doctor_day,priority:1" json:"doctorId"`
	Weekday   string `gorm:"size:10;uniqueIndex:idx_avail_doctor_day,priority:2" json:"weekday"` // Monday..Sunday
	Enabled   bool   `gorm:"default:false" json:"enabled"`
	StartTime string `gorm:"size:5" json:"startTime"` // 15:04
	EndTime   string `gorm:"size:5" json:"endTime"`   // 15:04
}
