// Package notify fans appointment events out to the email and calendar
// consumers over kafka. Delivery is fire-and-forget: no data from the
// consumers feeds back into the core data model, and a broker outage
// never fails a booking.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"medibook-server/internal/config"
	"medibook-server/internal/models"
)

// AppointmentEvent is the wire shape consumed downstream.
type AppointmentEvent struct {
	Kind            string `json:"kind"` // confirmed, cancelled, reminder
	AppointmentID   string `json:"appointmentId"`
	PatientEmail    string `json:"patientEmail"`
	DoctorID        string `json:"doctorId"`
	DoctorName      string `json:"doctorName"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	Type            string `json:"consultationType"`
}

// KafkaPublisher writes appointment events to a single topic, keyed by
// appointment id so one appointment's events stay in partition order.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

// NewKafkaPublisher builds the producer.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *logrus.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Broker),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) publish(event AppointmentEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Error("failed to marshal appointment event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.AppointmentID),
		Value: payload,
	})
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"kind":          event.Kind,
			"appointmentId": event.AppointmentID,
		}).Warn("failed to produce appointment event")
		return
	}
	p.logger.WithFields(logrus.Fields{
		"kind":          event.Kind,
		"appointmentId": event.AppointmentID,
	}).Info("appointment event produced")
}

func eventFrom(kind string, a *models.Appointment) AppointmentEvent {
	return AppointmentEvent{
		Kind:            kind,
		AppointmentID:   a.ID,
		PatientEmail:    a.Email,
		DoctorID:        a.DoctorID,
		DoctorName:      a.DoctorName,
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
		Type:            string(a.ConsultationType),
	}
}

// AppointmentConfirmed implements service.EventPublisher.
func (p *KafkaPublisher) AppointmentConfirmed(a *models.Appointment) {
	p.publish(eventFrom("confirmed", a))
}

// AppointmentCancelled implements service.EventPublisher.
func (p *KafkaPublisher) AppointmentCancelled(a *models.Appointment) {
	p.publish(eventFrom("cancelled", a))
}

// AppointmentReminder implements service.EventPublisher.
func (p *KafkaPublisher) AppointmentReminder(a *models.Appointment) {
	p.publish(eventFrom("reminder", a))
}
