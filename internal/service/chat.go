package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"medibook-server/internal/models"
	"medibook-server/internal/repository"
	"medibook-server/internal/storage"
)

// ChatAttachment is an uploaded file accompanying a chat message. The
// blob is stored before the message is appended; if the upload fails
// the post is aborted and no message is recorded.
type ChatAttachment struct {
	FileName    string
	ContentType string
	Reader      io.Reader
}

// ChatService is the per-appointment append-only message channel shared
// by the booking patient and the assigned doctor.
type ChatService interface {
	// PostMessage appends one message. Requires text or an attachment.
	// Each call produces exactly one entry with a server-assigned,
	// strictly increasing per-appointment timestamp.
	PostMessage(ctx context.Context, appointmentID, senderID, senderRole, text string, attachment *ChatAttachment) (*models.ChatMessage, error)
	// History returns the backlog ordered by timestamp ascending.
	History(appointmentID string) ([]models.ChatMessage, error)
	// Subscribe delivers the backlog once, then each new message in
	// order, until ctx is cancelled. The returned channel is closed on
	// cancellation and no callbacks occur afterwards.
	Subscribe(ctx context.Context, appointmentID string) (<-chan models.ChatMessage, error)
}

type chatService struct {
	repo   repository.ChatRepository
	blobs  storage.BlobStore
	rdb    redis.UniversalClient
	logger *logrus.Logger
	now    func() time.Time

	mu sync.Mutex
	// appts serializes posts per appointment and remembers the last
	// assigned timestamp so same-tick posts still order strictly.
	appts map[string]*apptClock
}

type apptClock struct {
	mu   sync.Mutex
	last time.Time
}

// NewChatService wires the chat channel over its store, the blob store
// and the redis pub/sub used for live delivery.
func NewChatService(repo repository.ChatRepository, blobs storage.BlobStore, rdb redis.UniversalClient, logger *logrus.Logger) ChatService {
	return &chatService{
		repo:   repo,
		blobs:  blobs,
		rdb:    rdb,
		logger: logger,
		now:    time.Now,
		appts:  make(map[string]*apptClock),
	}
}

func chatChannel(appointmentID string) string {
	return "chat:" + appointmentID
}

func (s *chatService) clock(appointmentID string) *apptClock {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.appts[appointmentID]
	if !ok {
		c = &apptClock{}
		s.appts[appointmentID] = c
	}
	return c
}

func (s *chatService) PostMessage(ctx context.Context, appointmentID, senderID, senderRole, text string, attachment *ChatAttachment) (*models.ChatMessage, error) {
	if text == "" && attachment == nil {
		return nil, ErrEmptyMessage
	}

	message := &models.ChatMessage{
		ID:            uuid.New().String(),
		AppointmentID: appointmentID,
		SenderID:      senderID,
		SenderRole:    senderRole,
		Text:          text,
	}

	if attachment != nil {
		url, _, err := s.blobs.Save("chat", appointmentID, attachment.FileName, attachment.Reader)
		if err != nil {
			// Upload failure aborts the post: no message without its
			// declared attachment.
			return nil, err
		}
		message.AttachmentURL = url
		message.AttachmentType = attachment.ContentType
	}

	clock := s.clock(appointmentID)
	clock.mu.Lock()
	defer clock.mu.Unlock()

	if clock.last.IsZero() {
		last, err := s.repo.LastTimestamp(appointmentID)
		if err != nil {
			return nil, err
		}
		clock.last = last
	}

	// Round down to the column resolution so the stamp survives storage
	// unchanged, then bump past the previous message when the clock has
	// not advanced by a full step.
	stamp := s.now().Truncate(models.TimestampResolution)
	if !stamp.After(clock.last) {
		stamp = clock.last.Add(models.TimestampResolution)
	}
	message.CreatedAt = stamp

	if err := s.repo.Append(message); err != nil {
		return nil, err
	}
	clock.last = stamp

	payload, err := json.Marshal(message)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Publish(ctx, chatChannel(appointmentID), payload).Err(); err != nil {
		// The message is durable; live subscribers catch it on their
		// next backlog replay.
		s.logger.WithError(err).WithField("appointmentId", appointmentID).
			Warn("failed to publish chat message")
	}

	return message, nil
}

func (s *chatService) History(appointmentID string) ([]models.ChatMessage, error) {
	return s.repo.ListByAppointment(appointmentID)
}

func (s *chatService) Subscribe(ctx context.Context, appointmentID string) (<-chan models.ChatMessage, error) {
	pubsub := s.rdb.Subscribe(ctx, chatChannel(appointmentID))
	// Force the subscription onto the wire before reading the backlog,
	// so nothing appended after the backlog query can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	backlog, err := s.repo.ListByAppointment(appointmentID)
	if err != nil {
		pubsub.Close()
		return nil, err
	}

	out := make(chan models.ChatMessage, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		seen := make(map[string]struct{}, len(backlog))
		for _, message := range backlog {
			seen[message.ID] = struct{}{}
			select {
			case out <- message:
			case <-ctx.Done():
				return
			}
		}

		live := pubsub.Channel()
		for {
			select {
			case msg, ok := <-live:
				if !ok {
					return
				}
				var message models.ChatMessage
				if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
					s.logger.WithError(err).Warn("malformed chat payload dropped")
					continue
				}
				// Drop the overlap between backlog and live delivery.
				if _, dup := seen[message.ID]; dup {
					continue
				}
				select {
				case out <- message:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
