package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"medibook-server/internal/lifecycle"
	"medibook-server/internal/middleware"
	"medibook-server/internal/models"
	"medibook-server/internal/payment"
	"medibook-server/internal/service"
	"medibook-server/internal/utils"
)

// AppointmentHandler exposes the booking coordinator and the lifecycle
// manager over HTTP.
type AppointmentHandler struct {
	Booking      service.BookingService
	Appointments service.AppointmentService
	Payments     payment.Client
	FeeAmount    int64
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(booking service.BookingService, appointments service.AppointmentService, payments payment.Client, feeAmount int64) *AppointmentHandler {
	return &AppointmentHandler{
		Booking:      booking,
		Appointments: appointments,
		Payments:     payments,
		FeeAmount:    feeAmount,
	}
}

// PaymentOrder is returned alongside a created appointment so the
// client can complete payment with the gateway.
type PaymentOrder struct {
	OrderID string `json:"orderId"`
	Amount  int64  `json:"amount"`
}

// CreateAppointment handles booking form submission. The appointment is
// persisted in Pending Payment; a gateway order is attempted afterwards
// and its failure leaves the appointment untouched.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var form service.BookingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	appointment, err := h.Booking.CreateAppointment(form, patientID)
	if err != nil {
		switch {
		case service.IsValidation(err):
			utils.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrDoctorNotFound):
			utils.NotFound(c, "Doctor not found")
		case errors.Is(err, service.ErrSlotTaken):
			utils.Conflict(c, "The doctor is already booked for this date and time")
		default:
			utils.InternalServerError(c, "Failed to create appointment: "+err.Error())
		}
		return
	}

	response := gin.H{"appointment": appointment}
	if h.Payments != nil {
		order, err := h.Payments.CreateOrder(c.Request.Context(), h.FeeAmount, appointment.ID)
		if err != nil {
			// The appointment stays in Pending Payment; the client can
			// retry the order later.
			response["paymentOrderError"] = err.Error()
		} else {
			response["paymentOrder"] = PaymentOrder{OrderID: order.ID, Amount: order.Amount}
		}
	}

	utils.Created(c, "Appointment created successfully", response)
}

// GetAppointmentsForUser lists appointments for the logged-in patient
// or doctor, sweeping stale rows and attaching display buckets.
func (h *AppointmentHandler) GetAppointmentsForUser(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	var (
		views []service.AppointmentView
		err   error
	)
	switch role {
	case models.RoleDoctor:
		views, err = h.Appointments.ListForDoctor(userID, time.Now())
	case models.RolePatient:
		views, err = h.Appointments.ListForPatient(userID, time.Now())
	default:
		utils.Forbidden(c, "User role not permitted to view appointments this way")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", views)
}

func (h *AppointmentHandler) loadAuthorized(c *gin.Context) (*models.Appointment, bool) {
	appointment, err := h.Appointments.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)
	if role != models.RoleAdmin && userID != appointment.PatientID && userID != appointment.DoctorID {
		utils.Forbidden(c, "You are not authorized to access this appointment")
		return nil, false
	}
	return appointment, true
}

// GetAppointmentByID fetches a single appointment.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointment, ok := h.loadAuthorized(c)
	if !ok {
		return
	}
	utils.Success(c, "Appointment fetched successfully", appointment)
}

// CreatePaymentOrder opens a fresh gateway order for an appointment
// still awaiting payment, for when the order created at booking time
// failed or expired.
func (h *AppointmentHandler) CreatePaymentOrder(c *gin.Context) {
	appointment, ok := h.loadAuthorized(c)
	if !ok {
		return
	}
	if lifecycle.Terminal(appointment.Status) {
		utils.Conflict(c, "Appointment is already completed or cancelled")
		return
	}

	order, err := h.Payments.CreateOrder(c.Request.Context(), h.FeeAmount, appointment.ID)
	if err != nil {
		utils.UpstreamError(c, "Payment gateway error: "+err.Error())
		return
	}

	utils.Created(c, "Payment order created successfully", PaymentOrder{OrderID: order.ID, Amount: order.Amount})
}

// ConfirmPaymentRequest carries the gateway's payment identifier.
type ConfirmPaymentRequest struct {
	PaymentID string `json:"paymentId" binding:"required"`
}

// ConfirmPayment records a completed payment and moves the appointment
// to Confirmed.
func (h *AppointmentHandler) ConfirmPayment(c *gin.Context) {
	appointment, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	var req ConfirmPaymentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updated, err := h.Booking.ConfirmPayment(appointment.ID, req.PaymentID)
	if err != nil {
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			utils.Conflict(c, "Appointment is already completed or cancelled")
		} else {
			utils.InternalServerError(c, "Failed to confirm payment: "+err.Error())
		}
		return
	}

	utils.Success(c, "Payment confirmed successfully", updated)
}

// UpdateStatusRequest asks for a terminal transition.
type UpdateStatusRequest struct {
	Status models.AppointmentStatus `json:"status" binding:"required,oneof='Completed' 'Cancelled'"`
}

// UpdateAppointmentStatus marks an appointment Completed or Cancelled.
// Doctors complete or cancel their own appointments; patients may only
// cancel theirs.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	appointment, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)
	if role == models.RolePatient {
		if req.Status != models.StatusCancelled || userID != appointment.PatientID {
			utils.Forbidden(c, "Patients can only cancel their own appointments")
			return
		}
	}

	var (
		updated *models.Appointment
		err     error
	)
	if req.Status == models.StatusCompleted {
		updated, err = h.Appointments.MarkCompleted(appointment.ID)
	} else {
		updated, err = h.Appointments.MarkCancelled(appointment.ID)
	}
	if err != nil {
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			utils.Conflict(c, "Appointment is already completed or cancelled")
		} else {
			utils.InternalServerError(c, "Failed to update appointment status: "+err.Error())
		}
		return
	}

	utils.Success(c, "Appointment status updated successfully", updated)
}

// RescheduleRequest carries the new slot.
type RescheduleRequest struct {
	AppointmentDate  string `json:"appointmentDate" binding:"required"`
	AppointmentTime  string `json:"appointmentTime" binding:"required"`
	ConsultationType string `json:"consultationType" binding:"required,oneof='In-Person' 'Video-Call' 'Home Visit'"`
}

// RescheduleAppointment moves a non-terminal appointment to a new slot
// and resets its status to Scheduled.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	appointment, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	var req RescheduleRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updated, err := h.Appointments.Reschedule(appointment.ID, req.AppointmentDate, req.AppointmentTime, models.ConsultationType(req.ConsultationType))
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrInvalidTransition):
			utils.Conflict(c, "Completed or cancelled appointments cannot be rescheduled")
		case service.IsValidation(err):
			utils.BadRequest(c, err.Error())
		default:
			utils.InternalServerError(c, "Failed to reschedule appointment: "+err.Error())
		}
		return
	}

	utils.Success(c, "Appointment rescheduled successfully", updated)
}

// DeleteAppointment removes a non-terminal appointment. Only the owning
// patient may delete; previously uploaded report files are kept.
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	appointment, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	if userID != appointment.PatientID {
		utils.Forbidden(c, "Only the booking patient can delete an appointment")
		return
	}
	if lifecycle.Terminal(appointment.Status) {
		utils.Conflict(c, "Completed or cancelled appointments cannot be deleted")
		return
	}

	if err := h.Appointments.Delete(appointment.ID); err != nil {
		utils.InternalServerError(c, "Failed to delete appointment: "+err.Error())
		return
	}

	utils.Success(c, "Appointment deleted successfully", nil)
}
