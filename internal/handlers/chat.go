package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"medibook-server/internal/middleware"
	"medibook-server/internal/models"
	"medibook-server/internal/service"
	"medibook-server/internal/utils"
)

// ChatHandler exposes the per-appointment chat channel: REST history
// and post, plus a websocket subscription for live delivery.
type ChatHandler struct {
	Chat         service.ChatService
	Appointments service.AppointmentService
	Logger       *logrus.Logger
	upgrader     websocket.Upgrader
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chat service.ChatService, appointments service.AppointmentService, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		Chat:         chat,
		Appointments: appointments,
		Logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin access is governed by the CORS middleware;
			// the token check below gates the upgrade itself.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// authorize loads the appointment and verifies the caller is one of the
// two chat parties (or an admin).
func (h *ChatHandler) authorize(c *gin.Context) (*models.Appointment, string, models.Role, bool) {
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
		utils.Forbidden(c, "You are not a participant of this appointment's chat")
		return nil, "", "", false
	}
	return appointment, userID, role, true
}

// GetHistory returns the full message backlog, oldest first.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	appointment, _, _, ok := h.authorize(c)
	if !ok {
		return
	}

	messages, err := h.Chat.History(appointment.ID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch messages: "+err.Error())
		return
	}
	utils.Success(c, "Messages fetched successfully", messages)
}

// PostMessage appends a message. Accepts multipart form data with an
// optional file part, or a plain JSON body with only text.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	appointment, userID, role, ok := h.authorize(c)
	if !ok {
		return
	}

	var (
		text       string
		attachment *service.ChatAttachment
	)

	if c.ContentType() == "application/json" {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.BadRequest(c, "Invalid request payload: "+err.Error())
			return
		}
		text = body.Text
	} else {
		text = c.PostForm("text")
		if file, header, err := c.Request.FormFile("file"); err == nil {
			defer file.Close()
			attachment = &service.ChatAttachment{
				FileName:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Reader:      file,
			}
		}
	}

	message, err := h.Chat.PostMessage(c.Request.Context(), appointment.ID, userID, string(role), text, attachment)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			utils.BadRequest(c, "Message requires text or an attachment")
		} else {
			utils.InternalServerError(c, "Failed to send message: "+err.Error())
		}
		return
	}

	utils.Created(c, "Message sent successfully", message)
}

// Subscribe upgrades to a websocket and streams the backlog followed by
// live messages until the client disconnects.
func (h *ChatHandler) Subscribe(c *gin.Context) {
	appointment, _, _, ok := h.authorize(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.Logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	messages, err := h.Chat.Subscribe(ctx, appointment.ID)
	if err != nil {
		h.Logger.WithError(err).WithField("appointmentId", appointment.ID).
			Error("chat subscription failed")
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"),
			time.Now().Add(time.Second))
		return
	}

	// Reader goroutine: its only job is to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case message, open := <-messages:
			if !open {
				return
			}
			if err := conn.WriteJSON(message); err != nil {
				return
			}
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}
