package service

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the service layer. Handlers map these onto
// HTTP statuses; upstream store and gateway failures are passed through
// unchanged so the caller decides whether to offer a retry.
var (
	// ErrNotFound covers a referenced appointment, report or message
	// that no longer exists.
	ErrNotFound = errors.New("resource not found")
	// ErrDoctorNotFound is raised when the chosen doctor disappeared
	// between selection and submission.
	ErrDoctorNotFound = errors.New("doctor not found")
	// ErrSlotTaken is raised only when slot uniqueness is enforced.
	ErrSlotTaken = errors.New("doctor already booked for this slot")
	// ErrEmptyMessage is raised when a chat post carries neither text
	// nor an attachment.
	ErrEmptyMessage = errors.New("message requires text or an attachment")
)

// ValidationError names the missing or malformed form field. It is
// raised at the operation boundary and never reaches the persistence
// layer.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// IsValidation reports whether err is a field validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
