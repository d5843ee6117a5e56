package repository

import (
	"time"

	"gorm.io/gorm"

	"medibook-server/internal/models"
)

// ChatRepository is the append-only store behind the chat channel.
type ChatRepository interface {
	Append(message *models.ChatMessage) error
	// ListByAppointment returns the full backlog ordered by creation
	// timestamp ascending.
	ListByAppointment(appointmentID string) ([]models.ChatMessage, error)
	// LastTimestamp returns the newest message timestamp for the
	// appointment, or the zero time when the channel is empty.
	LastTimestamp(appointmentID string) (time.Time, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository returns a gorm-backed ChatRepository.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Append(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

func (r *chatRepository) ListByAppointment(appointmentID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.Where("appointment_id = ?", appointmentID).
		Order("created_at asc").
		Find(&messages).Error
	return messages, err
}

func (r *chatRepository) LastTimestamp(appointmentID string) (time.Time, error) {
	var message models.ChatMessage
	err := r.db.Where("appointment_id = ?", appointmentID).
		Order("created_at desc").
		First(&message).Error
	if err == gorm.ErrRecordNotFound {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return message.CreatedAt, nil
}
