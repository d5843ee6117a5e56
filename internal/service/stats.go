package service

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"medibook-server/internal/models"
	"medibook-server/internal/repository"
)

// StatsSummary is the admin dashboard breakdown.
type StatsSummary struct {
	ByStatus         map[models.AppointmentStatus]int64 `json:"byStatus"`
	BySpecialization []repository.SpecializationCount   `json:"bySpecialization"`
	Total            int64                              `json:"total"`
	Doctors          int64                              `json:"doctors"`
	Patients         int64                              `json:"patients"`
}

// StatsService aggregates appointment counts and renders the export
// spreadsheet.
type StatsService interface {
	Summary() (*StatsSummary, error)
	// ExportXLSX writes the current appointment book as a spreadsheet.
	ExportXLSX(w io.Writer) error
}

type statsService struct {
	appointments repository.AppointmentRepository
	users        repository.UserRepository
}

// NewStatsService wires the admin statistics aggregator.
func NewStatsService(appointments repository.AppointmentRepository, users repository.UserRepository) StatsService {
	return &statsService{appointments: appointments, users: users}
}

func (s *statsService) Summary() (*StatsSummary, error) {
	byStatus, err := s.appointments.StatusCounts()
	if err != nil {
		return nil, err
	}
	bySpec, err := s.appointments.SpecializationCounts()
	if err != nil {
		return nil, err
	}
	doctors, err := s.users.CountByRole(models.RoleDoctor)
	if err != nil {
		return nil, err
	}
	patients, err := s.users.CountByRole(models.RolePatient)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range byStatus {
		total += n
	}
	return &StatsSummary{
		ByStatus:         byStatus,
		BySpecialization: bySpec,
		Total:            total,
		Doctors:          doctors,
		Patients:         patients,
	}, nil
}

func (s *statsService) ExportXLSX(w io.Writer) error {
	all, err := s.appointments.ListByStatuses([]models.AppointmentStatus{
		models.StatusPendingPayment,
		models.StatusScheduled,
		models.StatusConfirmed,
		models.StatusPending,
		models.StatusCompleted,
		models.StatusCancelled,
	})
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Appointments"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Patient Code", "Doctor", "Specialization", "Date", "Time", "Type", "Status", "Payment ID", "Created"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, a := range all {
		values := []interface{}{
			a.ID,
			a.PatientCode,
			a.DoctorName,
			a.Specialization,
			a.AppointmentDate,
			a.AppointmentTime,
			string(a.ConsultationType),
			string(a.Status),
			a.PaymentID,
			a.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("build cell reference: %w", err)
			}
			f.SetCellValue(sheet, cell, v)
		}
	}

	return f.Write(w)
}
