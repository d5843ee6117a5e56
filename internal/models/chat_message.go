package models

import (
	"time"
)

// ChatMessage is one entry in an appointment's chat channel. Messages
// are append-only: they are never updated or deleted, and CreatedAt is
// assigned by the chat service strictly increasing per appointment.
// The column keeps microsecond precision; the default datetime(3) would
// truncate same-millisecond posts onto the same stored value and lose
// their order.
type ChatMessage struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AppointmentID  string    `gorm:"size:36;index:idx_chat_appt_time,priority:1" json:"appointmentId"`
	SenderID       string    `gorm:"size:36;index" json:"senderId"`
	SenderRole     string    `gorm:"size:40" json:"senderRole"` // free-text role label, not a closed enum
	Text           string    `gorm:"type:text" json:"text,omitempty"`
	AttachmentURL  string    `gorm:"size:500" json:"attachmentUrl,omitempty"`
	AttachmentType string    `gorm:"size:100" json:"attachmentType,omitempty"`
	CreatedAt      time.Time `gorm:"type:datetime(6);index:idx_chat_appt_time,priority:2" json:"createdAt"`
}

// TimestampResolution is the finest time step the CreatedAt column can
// store. The chat service must never separate two messages by less
// than this.
const TimestampResolution = time.Microsecond

// HasContent reports whether the message carries text or an attachment.
func (m *ChatMessage) HasContent() bool {
	return m.Text != "" || m.AttachmentURL != ""
}
