package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medibook-server/internal/middleware"
	"medibook-server/internal/models"
	"medibook-server/internal/storage"
	"medibook-server/internal/utils"
)

// UserHandler handles doctor listings, availability and profile photos.
type UserHandler struct {
	DB    *gorm.DB
	Blobs storage.BlobStore
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB, blobs storage.BlobStore) *UserHandler {
	return &UserHandler{DB: db, Blobs: blobs}
}

// GetDoctors lists doctors, optionally filtered by specialization.
func (h *UserHandler) GetDoctors(c *gin.Context) {
	query := h.DB.Preload("Availability").Where("role = ?", models.RoleDoctor)
	if spec := c.Query("specialization"); spec != "" {
		query = query.Where("specialization = ?", spec)
	}

	var doctors []models.User
	if err := query.Order("first_name asc").Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	sanitized := make([]models.UserSanitized, 0, len(doctors))
	for i := range doctors {
		sanitized = append(sanitized, doctors[i].Sanitize())
	}
	utils.Success(c, "Doctors fetched successfully", sanitized)
}

// GetDoctorByID returns one doctor with availability.
func (h *UserHandler) GetDoctorByID(c *gin.Context) {
	var doctor models.User
	err := h.DB.Preload("Availability").
		Where("id = ? AND role = ?", c.Param("id"), models.RoleDoctor).
		First(&doctor).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	utils.Success(c, "Doctor fetched successfully", doctor.Sanitize())
}

// AvailabilityDay is one weekday entry of the weekly schedule.
type AvailabilityDay struct {
	Weekday   string `json:"weekday" binding:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// SetAvailabilityRequest carries the full weekly schedule.
type SetAvailabilityRequest struct {
	Days []AvailabilityDay `json:"days" binding:"required,max=7,dive"`
}

// SetAvailability replaces the calling doctor's weekly availability.
func (h *UserHandler) SetAvailability(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req SetAvailabilityRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	for _, day := range req.Days {
		if day.Enabled && (day.StartTime == "" || day.EndTime == "") {
			utils.BadRequest(c, "Enabled day "+day.Weekday+" requires startTime and endTime")
			return
		}
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doctor_id = ?", doctorID).Delete(&models.DoctorAvailability{}).Error; err != nil {
			return err
		}
		for _, day := range req.Days {
			row := models.DoctorAvailability{
				DoctorID:  doctorID,
				Weekday:   day.Weekday,
				Enabled:   day.Enabled,
				StartTime: day.StartTime,
				EndTime:   day.EndTime,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to save availability: "+err.Error())
		return
	}

	utils.Success(c, "Availability saved successfully", req.Days)
}

// UploadProfilePhoto stores a profile image and records its URL.
func (h *UserHandler) UploadProfilePhoto(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "Error retrieving file from form: "+err.Error())
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		utils.BadRequest(c, "Profile photo must be an image")
		return
	}

	url, _, err := h.Blobs.Save("profiles", userID, header.Filename, file)
	if err != nil {
		utils.InternalServerError(c, "Failed to store profile photo: "+err.Error())
		return
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("profile_image", url).Error; err != nil {
		utils.InternalServerError(c, "Failed to update profile photo: "+err.Error())
		return
	}

	utils.Success(c, "Profile photo uploaded successfully", gin.H{"profileImage": url})
}
