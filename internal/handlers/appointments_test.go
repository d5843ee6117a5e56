package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"medibook-server/internal/models"
	"medibook-server/internal/payment"
	"medibook-server/internal/service"
)

// stubAppointmentService serves a single fixed appointment.
type stubAppointmentService struct {
	appointment *models.Appointment
}

func (s *stubAppointmentService) ListForPatient(string, time.Time) ([]service.AppointmentView, error) {
	return nil, nil
}

func (s *stubAppointmentService) ListForDoctor(string, time.Time) ([]service.AppointmentView, error) {
	return nil, nil
}

func (s *stubAppointmentService) Get(id string) (*models.Appointment, error) {
	if s.appointment == nil || s.appointment.ID != id {
		return nil, service.ErrNotFound
	}
	return s.appointment, nil
}

func (s *stubAppointmentService) MarkCompleted(string) (*models.Appointment, error) {
	return nil, nil
}

func (s *stubAppointmentService) MarkCancelled(string) (*models.Appointment, error) {
	return nil, nil
}

func (s *stubAppointmentService) Reschedule(string, string, string, models.ConsultationType) (*models.Appointment, error) {
	return nil, nil
}

func (s *stubAppointmentService) Delete(string) error { return nil }

func (s *stubAppointmentService) SweepStale(time.Time) (int, error) { return 0, nil }

// stubGateway returns a canned order or error.
type stubGateway struct {
	order *payment.Order
	err   error
}

func (g stubGateway) CreateOrder(ctx context.Context, amount int64, receipt string) (*payment.Order, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.order, nil
}

func identity(userID string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("userRole", role)
		c.Next()
	}
}

func paymentOrderRouter(h *AppointmentHandler, userID string, role models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/appointments/:id/payment/order", identity(userID, role), h.CreatePaymentOrder)
	return router
}

func pendingAppointment() *models.Appointment {
	return &models.Appointment{
		BaseModel: models.BaseModel{ID: "appt-1"},
		PatientID: "patient-1",
		DoctorID:  "doc-1",
		Status:    models.StatusPendingPayment,
	}
}

func TestCreatePaymentOrderGatewayFailureIsBadGateway(t *testing.T) {
	appointments := &stubAppointmentService{appointment: pendingAppointment()}
	gateway := stubGateway{err: errors.New("connection refused")}
	h := NewAppointmentHandler(nil, appointments, gateway, 20000)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/appointments/appt-1/payment/order", nil)
	paymentOrderRouter(h, "patient-1", models.RolePatient).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Payment gateway error")
}

func TestCreatePaymentOrderReturnsOrder(t *testing.T) {
	appointments := &stubAppointmentService{appointment: pendingAppointment()}
	gateway := stubGateway{order: &payment.Order{ID: "order_42", Amount: 20000}}
	h := NewAppointmentHandler(nil, appointments, gateway, 20000)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/appointments/appt-1/payment/order", nil)
	paymentOrderRouter(h, "patient-1", models.RolePatient).ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "order_42")
}

func TestCreatePaymentOrderRejectsTerminalAppointment(t *testing.T) {
	done := pendingAppointment()
	done.Status = models.StatusCancelled
	appointments := &stubAppointmentService{appointment: done}
	h := NewAppointmentHandler(nil, appointments, stubGateway{}, 20000)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/appointments/appt-1/payment/order", nil)
	paymentOrderRouter(h, "patient-1", models.RolePatient).ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreatePaymentOrderForbidsNonParticipants(t *testing.T) {
	appointments := &stubAppointmentService{appointment: pendingAppointment()}
	h := NewAppointmentHandler(nil, appointments, stubGateway{}, 20000)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/appointments/appt-1/payment/order", nil)
	paymentOrderRouter(h, "someone-else", models.RolePatient).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
