package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"medibook-server/internal/middleware"
	"medibook-server/internal/models"
	"medibook-server/internal/service"
	"medibook-server/internal/storage"
	"medibook-server/internal/utils"
)

// ReportHandler manages the per-appointment medical report bundle and
// prescriptions. Files follow write-once-then-register: the blob is
// stored first and its URL registered afterwards, so a failed register
// leaves an orphaned blob, never a dangling reference.
type ReportHandler struct {
	DB           *gorm.DB
	Blobs        storage.BlobStore
	Appointments service.AppointmentService
	Logger       *logrus.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(db *gorm.DB, blobs storage.BlobStore, appointments service.AppointmentService, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{DB: db, Blobs: blobs, Appointments: appointments, Logger: logger}
}

func (h *ReportHandler) authorize(c *gin.Context) (*models.Appointment, string, models.Role, bool) {
	appointment, err := h.Appointments.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, "", "", false
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)
	if role != models.RoleAdmin && userID != appointment.PatientID && userID != appointment.DoctorID {
		utils.Forbidden(c, "You are not authorized to access this appointment's files")
		return nil, "", "", false
	}
	return appointment, userID, role, true
}

// UploadReport appends one file to the appointment's report bundle.
func (h *ReportHandler) UploadReport(c *gin.Context) {
	appointment, userID, _, ok := h.authorize(c)
	if !ok {
		return
	}

	title := c.PostForm("title")
	if title == "" {
		utils.BadRequest(c, "missing required field: title")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "Error retrieving file from form: "+err.Error())
		return
	}
	defer file.Close()

	url, path, err := h.Blobs.Save("reports", appointment.ID, header.Filename, file)
	if err != nil {
		utils.InternalServerError(c, "Failed to store report file: "+err.Error())
		return
	}

	report := models.MedicalReportFile{
		AppointmentID: appointment.ID,
		Title:         title,
		FileURL:       url,
		StoragePath:   path,
		FileType:      header.Header.Get("Content-Type"),
		UploadedBy:    userID,
	}
	if err := h.DB.Create(&report).Error; err != nil {
		// The blob stays behind as acceptable garbage; nothing
		// references it.
		utils.InternalServerError(c, "Failed to register report file: "+err.Error())
		return
	}

	utils.Created(c, "Report file uploaded successfully", report)
}

// ListReports returns the appointment's report bundle in upload order.
func (h *ReportHandler) ListReports(c *gin.Context) {
	appointment, _, _, ok := h.authorize(c)
	if !ok {
		return
	}

	var reports []models.MedicalReportFile
	if err := h.DB.Where("appointment_id = ?", appointment.ID).
		Order("created_at asc").Find(&reports).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch report files: "+err.Error())
		return
	}
	utils.Success(c, "Report files fetched successfully", reports)
}

// DeleteReportRequest names the file to remove by its storage path.
type DeleteReportRequest struct {
	StoragePath string `json:"storagePath" binding:"required"`
}

// DeleteReport removes a single bundle entry by storage path, deleting
// both the registration row and the blob.
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	appointment, _, _, ok := h.authorize(c)
	if !ok {
		return
	}

	var req DeleteReportRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var report models.MedicalReportFile
	err := h.DB.Where("appointment_id = ? AND storage_path = ?", appointment.ID, req.StoragePath).
		First(&report).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Report file not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if err := h.DB.Delete(&report).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete report file: "+err.Error())
		return
	}
	if err := h.Blobs.Remove(report.StoragePath); err != nil {
		// Row is gone; the leftover blob is orphaned, not dangling.
		h.Logger.WithError(err).WithField("storagePath", report.StoragePath).
			Warn("failed to remove report blob")
	}

	utils.Success(c, "Report file deleted successfully", nil)
}

// CreatePrescription records an immutable prescription with notes
// and/or one attached file. Doctors only.
func (h *ReportHandler) CreatePrescription(c *gin.Context) {
	appointment, userID, role, ok := h.authorize(c)
	if !ok {
		return
	}
	if role != models.RoleDoctor || userID != appointment.DoctorID {
		utils.Forbidden(c, "Only the assigned doctor can write a prescription")
		return
	}

	notes := c.PostForm("notes")

	var fileURL, fileType string
	if file, header, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		url, _, err := h.Blobs.Save("prescriptions", appointment.ID, header.Filename, file)
		if err != nil {
			utils.InternalServerError(c, "Failed to store prescription file: "+err.Error())
			return
		}
		fileURL = url
		fileType = header.Header.Get("Content-Type")
	}

	if notes == "" && fileURL == "" {
		utils.BadRequest(c, "Prescription requires notes or a file")
		return
	}

	prescription := models.Prescription{
		ID:            uuid.New().String(),
		AppointmentID: appointment.ID,
		DoctorID:      userID,
		Notes:         notes,
		FileURL:       fileURL,
		FileType:      fileType,
	}
	if err := h.DB.Create(&prescription).Error; err != nil {
		utils.InternalServerError(c, "Failed to create prescription: "+err.Error())
		return
	}

	utils.Created(c, "Prescription created successfully", prescription)
}

// ListPrescriptions returns the appointment's prescriptions.
func (h *ReportHandler) ListPrescriptions(c *gin.Context) {
	appointment, _, _, ok := h.authorize(c)
	if !ok {
		return
	}

	var prescriptions []models.Prescription
	if err := h.DB.Where("appointment_id = ?", appointment.ID).
		Order("created_at asc").Find(&prescriptions).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch prescriptions: "+err.Error())
		return
	}
	utils.Success(c, "Prescriptions fetched successfully", prescriptions)
}
