// Package jobs runs the server-side periodic work: the stale-appointment
// sweep and daily reminders. The sweep also runs at read time, so these
// jobs only tighten the staleness window for appointments nobody views.
package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"medibook-server/internal/models"
	"medibook-server/internal/repository"
	"medibook-server/internal/service"
)

// Scheduler owns the cron instance.
type Scheduler struct {
	cron         *cron.Cron
	appointments service.AppointmentService
	repo         repository.AppointmentRepository
	events       service.EventPublisher
	logger       *logrus.Logger
}

// NewScheduler wires the periodic jobs.
func NewScheduler(
	appointments service.AppointmentService,
	repo repository.AppointmentRepository,
	events service.EventPublisher,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		appointments: appointments,
		repo:         repo,
		events:       events,
		logger:       logger,
	}
}

// Start registers and starts the jobs. It returns immediately.
func (s *Scheduler) Start() error {
	// Sweep stale bookings every ten minutes.
	if _, err := s.cron.AddFunc("*/10 * * * *", s.runSweep); err != nil {
		return err
	}
	// Daily reminders at 07:00 server time.
	if _, err := s.cron.AddFunc("0 7 * * *", s.runReminders); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runSweep() {
	if _, err := s.appointments.SweepStale(time.Now()); err != nil {
		s.logger.WithError(err).Error("scheduled sweep failed")
	}
}

func (s *Scheduler) runReminders() {
	if s.events == nil {
		return
	}
	today := time.Now().Format(models.DateLayout)
	due, err := s.repo.ListDueOn(today)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch today's appointments for reminders")
		return
	}
	for i := range due {
		s.events.AppointmentReminder(&due[i])
	}
	s.logger.WithField("count", len(due)).Info("daily reminders produced")
}
