// Package lifecycle is the single owner of appointment status rules.
// Every screen and job that needs to know whether a status may change,
// which bucket it renders in, or whether a booking has gone stale goes
// through this package instead of re-deriving the answer from the
// clock locally.
package lifecycle

import (
	"errors"
	"time"

	"medibook-server/internal/models"
)

// ErrInvalidTransition is returned when a status change is requested
// from a terminal state (Completed or Cancelled).
var ErrInvalidTransition = errors.New("appointment is in a terminal state")

// DisplayBucket groups statuses for listing screens.
type DisplayBucket string

const (
	BucketUpcoming  DisplayBucket = "Upcoming"
	BucketPending   DisplayBucket = "Pending"
	BucketCompleted DisplayBucket = "Completed"
	BucketCancelled DisplayBucket = "Cancelled"
)

// Terminal reports whether status admits no further transitions.
func Terminal(status models.AppointmentStatus) bool {
	return status == models.StatusCompleted || status == models.StatusCancelled
}

// Bucket maps a status onto its display bucket. Scheduled, Confirmed
// and Pending Payment all render as upcoming work.
func Bucket(status models.AppointmentStatus) DisplayBucket {
	switch status {
	case models.StatusCompleted:
		return BucketCompleted
	case models.StatusCancelled:
		return BucketCancelled
	case models.StatusPending:
		return BucketPending
	default:
		return BucketUpcoming
	}
}

// sweepable statuses are the booked-not-yet-due ones; anything else is
// left alone by the sweep.
func sweepable(status models.AppointmentStatus) bool {
	return status == models.StatusScheduled || status == models.StatusConfirmed
}

// SweepStatus returns the status an appointment should carry at the
// instant now. A Scheduled or Confirmed appointment whose scheduled
// instant lies strictly before now demotes to Pending; every other
// combination is returned unchanged. The function is pure and
// idempotent: re-applying it with a later now is a no-op once the
// status is Pending.
func SweepStatus(a *models.Appointment, now time.Time, loc *time.Location) (models.AppointmentStatus, bool) {
	if !sweepable(a.Status) {
		return a.Status, false
	}
	at, err := a.At(loc)
	if err != nil {
		// Unparseable date/time never demotes; the record stays as-is.
		return a.Status, false
	}
	if at.Before(now) {
		return models.StatusPending, true
	}
	return a.Status, false
}

// CanComplete reports whether markCompleted is legal from status.
func CanComplete(status models.AppointmentStatus) error {
	if Terminal(status) {
		return ErrInvalidTransition
	}
	return nil
}

// CanCancel reports whether markCancelled is legal from status.
func CanCancel(status models.AppointmentStatus) error {
	if Terminal(status) {
		return ErrInvalidTransition
	}
	return nil
}

// CanReschedule reports whether a reschedule is legal from status.
// Rescheduling any non-terminal appointment resets it to Scheduled.
func CanReschedule(status models.AppointmentStatus) error {
	if Terminal(status) {
		return ErrInvalidTransition
	}
	return nil
}
