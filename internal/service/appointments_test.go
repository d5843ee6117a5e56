package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibook-server/internal/config"
	"medibook-server/internal/lifecycle"
	"medibook-server/internal/models"
)

func seedAppointment(repo *fakeAppointmentRepo, id, patientID, doctorID, date, timeOfDay string, status models.AppointmentStatus) {
	_ = repo.Create(&models.Appointment{
		BaseModel:       models.BaseModel{ID: id},
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: date,
		AppointmentTime: timeOfDay,
		Status:          status,
	})
}

func TestListForPatientSweepsStaleRows(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := NewAppointmentService(repo, &recordingEvents{}, testLogger(), time.UTC)

	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	seedAppointment(repo, "past-scheduled", "p1", "d1", "2026-09-15", "09:00", models.StatusScheduled)
	seedAppointment(repo, "past-confirmed", "p1", "d1", "2026-09-14", "16:00", models.StatusConfirmed)
	seedAppointment(repo, "future", "p1", "d1", "2026-09-16", "09:00", models.StatusScheduled)
	seedAppointment(repo, "exact-instant", "p1", "d1", "2026-09-15", "12:00", models.StatusScheduled)
	seedAppointment(repo, "awaiting-payment", "p1", "d1", "2026-09-14", "09:00", models.StatusPendingPayment)
	seedAppointment(repo, "done", "p1", "d1", "2026-09-10", "09:00", models.StatusCompleted)

	views, err := svc.ListForPatient("p1", now)
	require.NoError(t, err)

	byID := map[string]AppointmentView{}
	for _, v := range views {
		byID[v.ID] = v
	}

	assert.Equal(t, models.StatusPending, byID["past-scheduled"].Status)
	assert.Equal(t, lifecycle.BucketPending, byID["past-scheduled"].Bucket)
	assert.Equal(t, models.StatusPending, byID["past-confirmed"].Status)

	// Only strictly-past instants demote.
	assert.Equal(t, models.StatusScheduled, byID["future"].Status)
	assert.Equal(t, lifecycle.BucketUpcoming, byID["future"].Bucket)
	assert.Equal(t, models.StatusScheduled, byID["exact-instant"].Status)

	// Statuses outside Scheduled/Confirmed are never swept.
	assert.Equal(t, models.StatusPendingPayment, byID["awaiting-payment"].Status)
	assert.Equal(t, lifecycle.BucketUpcoming, byID["awaiting-payment"].Bucket)
	assert.Equal(t, models.StatusCompleted, byID["done"].Status)

	// The demotion is persisted, not display-only.
	stored, err := repo.GetByID("past-scheduled")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestSweepStaleCountsOnlyDemotions(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := NewAppointmentService(repo, &recordingEvents{}, testLogger(), time.UTC)

	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	seedAppointment(repo, "due-1", "p1", "d1", "2026-09-15", "08:00", models.StatusScheduled)
	seedAppointment(repo, "due-2", "p2", "d1", "2026-09-14", "08:00", models.StatusConfirmed)
	seedAppointment(repo, "future", "p3", "d1", "2026-09-16", "08:00", models.StatusScheduled)

	swept, err := svc.SweepStale(now)
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	// Idempotent: a second sweep finds nothing to do.
	swept, err = svc.SweepStale(now)
	require.NoError(t, err)
	assert.Zero(t, swept)
}

func TestMarkCompletedAndTerminalGuards(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := NewAppointmentService(repo, &recordingEvents{}, testLogger(), time.UTC)
	seedAppointment(repo, "a1", "p1", "d1", "2026-09-15", "10:00", models.StatusConfirmed)

	appointment, err := svc.MarkCompleted("a1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, appointment.Status)

	_, err = svc.MarkCompleted("a1")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	_, err = svc.MarkCancelled("a1")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	_, err = svc.Reschedule("a1", "2026-10-01", "11:00", models.ConsultationInPerson)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestMarkCancelledPublishesEvent(t *testing.T) {
	repo := newFakeAppointmentRepo()
	events := &recordingEvents{}
	svc := NewAppointmentService(repo, events, testLogger(), time.UTC)
	seedAppointment(repo, "a1", "p1", "d1", "2026-09-15", "10:00", models.StatusScheduled)

	appointment, err := svc.MarkCancelled("a1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, appointment.Status)
	assert.Equal(t, []string{"a1"}, events.cancelled)
}

func TestRescheduleResetsToScheduled(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := NewAppointmentService(repo, &recordingEvents{}, testLogger(), time.UTC)
	seedAppointment(repo, "a1", "p1", "d1", "2026-09-15", "10:00", models.StatusPending)

	appointment, err := svc.Reschedule("a1", "2026-10-01", "14:30", models.ConsultationVideoCall)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, appointment.Status)
	assert.Equal(t, "2026-10-01", appointment.AppointmentDate)
	assert.Equal(t, "14:30", appointment.AppointmentTime)
	assert.Equal(t, models.ConsultationVideoCall, appointment.ConsultationType)

	_, err = svc.Reschedule("a1", "bad-date", "14:30", models.ConsultationVideoCall)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestDeleteUnknownAppointment(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := NewAppointmentService(repo, &recordingEvents{}, testLogger(), time.UTC)
	assert.ErrorIs(t, svc.Delete("missing"), ErrNotFound)
}

func TestDeleteRemovesFromBothListings(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := NewAppointmentService(repo, &recordingEvents{}, testLogger(), time.UTC)
	seedAppointment(repo, "a1", "p1", "d1", "2026-09-20", "10:00", models.StatusScheduled)

	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Delete("a1"))

	patientViews, err := svc.ListForPatient("p1", now)
	require.NoError(t, err)
	assert.Empty(t, patientViews)

	doctorViews, err := svc.ListForDoctor("d1", now)
	require.NoError(t, err)
	assert.Empty(t, doctorViews)
}

// TestBookingLifecycleEndToEnd walks one appointment through the full
// booking flow: create, confirm payment, miss the slot, reschedule and
// complete.
func TestBookingLifecycleEndToEnd(t *testing.T) {
	repo := newFakeAppointmentRepo()
	users := newFakeUserRepo(testDoctor())
	events := &recordingEvents{}
	booking := NewBookingService(repo, users, config.BookingConfig{}, events, testLogger())
	lifecycleSvc := NewAppointmentService(repo, events, testLogger(), time.UTC)

	appointment, err := booking.CreateAppointment(validForm(), "patient-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingPayment, appointment.Status)

	confirmed, err := booking.ConfirmPayment(appointment.ID, "pay_abc")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)

	// The patient misses the slot; a later listing demotes it.
	after := time.Date(2026, 9, 15, 11, 0, 0, 0, time.UTC)
	views, err := lifecycleSvc.ListForPatient("patient-1", after)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, models.StatusPending, views[0].Status)

	// Rescheduling revives it, then the doctor completes it.
	_, err = lifecycleSvc.Reschedule(appointment.ID, "2026-09-20", "09:00", models.ConsultationInPerson)
	require.NoError(t, err)

	done, err := lifecycleSvc.MarkCompleted(appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)

	// Terminal: no payment, cancel or reschedule may follow.
	_, err = booking.ConfirmPayment(appointment.ID, "pay_late")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	_, err = lifecycleSvc.Reschedule(appointment.ID, "2026-09-25", "09:00", models.ConsultationInPerson)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}
