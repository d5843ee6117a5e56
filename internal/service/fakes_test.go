package service

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"medibook-server/internal/models"
	"medibook-server/internal/repository"
)

// fakeAppointmentRepo is an in-memory AppointmentRepository.
type fakeAppointmentRepo struct {
	mu    sync.Mutex
	rows  map[string]*models.Appointment
	seq   int
	calls struct {
		creates int
	}
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{rows: make(map[string]*models.Appointment)}
}

func (f *fakeAppointmentRepo) Create(a *models.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.creates++
	if a.ID == "" {
		f.seq++
		a.ID = time.Now().Format("20060102150405") + "-" + string(rune('a'+f.seq))
	}
	a.CreatedAt = time.Now()
	cp := *a
	f.rows[a.ID] = &cp
	return nil
}

func (f *fakeAppointmentRepo) GetByID(id string) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeAppointmentRepo) list(match func(*models.Appointment) bool) []models.Appointment {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Appointment
	for _, row := range f.rows {
		if match(row) {
			out = append(out, *row)
		}
	}
	return out
}

func (f *fakeAppointmentRepo) ListByPatient(patientID string) ([]models.Appointment, error) {
	return f.list(func(a *models.Appointment) bool { return a.PatientID == patientID }), nil
}

func (f *fakeAppointmentRepo) ListByDoctor(doctorID string) ([]models.Appointment, error) {
	return f.list(func(a *models.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (f *fakeAppointmentRepo) ListByStatuses(statuses []models.AppointmentStatus) ([]models.Appointment, error) {
	return f.list(func(a *models.Appointment) bool {
		for _, s := range statuses {
			if a.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (f *fakeAppointmentRepo) UpdateStatus(id string, status models.AppointmentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[id]; ok {
		row.Status = status
	}
	return nil
}

func (f *fakeAppointmentRepo) DemoteIfDue(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil
	}
	if row.Status == models.StatusScheduled || row.Status == models.StatusConfirmed {
		row.Status = models.StatusPending
	}
	return nil
}

func (f *fakeAppointmentRepo) ConfirmPayment(id, paymentID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[id]; ok {
		row.Status = models.StatusConfirmed
		row.PaymentID = paymentID
		row.PaymentAt = &at
	}
	return nil
}

func (f *fakeAppointmentRepo) Reschedule(id, date, timeOfDay string, consultationType models.ConsultationType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[id]; ok {
		row.AppointmentDate = date
		row.AppointmentTime = timeOfDay
		row.ConsultationType = consultationType
		row.Status = models.StatusScheduled
	}
	return nil
}

func (f *fakeAppointmentRepo) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

// CreateIfSlotFree mirrors the store's transactional guard: the slot
// check and the insert happen under one lock.
func (f *fakeAppointmentRepo) CreateIfSlotFree(a *models.Appointment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.DoctorID == a.DoctorID &&
			row.AppointmentDate == a.AppointmentDate &&
			row.AppointmentTime == a.AppointmentTime &&
			row.Status != models.StatusCompleted &&
			row.Status != models.StatusCancelled {
			return false, nil
		}
	}
	f.calls.creates++
	if a.ID == "" {
		f.seq++
		a.ID = time.Now().Format("20060102150405") + "-" + string(rune('a'+f.seq))
	}
	a.CreatedAt = time.Now()
	cp := *a
	f.rows[a.ID] = &cp
	return true, nil
}

func (f *fakeAppointmentRepo) SpecializationCounts() ([]repository.SpecializationCount, error) {
	counts := map[string]int64{}
	for _, a := range f.list(func(*models.Appointment) bool { return true }) {
		counts[a.Specialization]++
	}
	var out []repository.SpecializationCount
	for spec, n := range counts {
		out = append(out, repository.SpecializationCount{Specialization: spec, Total: n})
	}
	return out, nil
}

func (f *fakeAppointmentRepo) StatusCounts() (map[models.AppointmentStatus]int64, error) {
	counts := map[models.AppointmentStatus]int64{}
	for _, a := range f.list(func(*models.Appointment) bool { return true }) {
		counts[a.Status]++
	}
	return counts, nil
}

func (f *fakeAppointmentRepo) ListDueOn(date string) ([]models.Appointment, error) {
	return f.list(func(a *models.Appointment) bool {
		return a.AppointmentDate == date &&
			(a.Status == models.StatusScheduled || a.Status == models.StatusConfirmed)
	}), nil
}

// fakeUserRepo resolves a fixed set of users.
type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	m := make(map[string]*models.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (f *fakeUserRepo) GetByID(id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetDoctor(id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok || u.Role != models.RoleDoctor {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) CountByRole(role models.Role) (int64, error) {
	var n int64
	for _, u := range f.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// recordingEvents captures published events.
type recordingEvents struct {
	mu        sync.Mutex
	confirmed []string
	cancelled []string
	reminders []string
}

func (r *recordingEvents) AppointmentConfirmed(a *models.Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirmed = append(r.confirmed, a.ID)
}

func (r *recordingEvents) AppointmentCancelled(a *models.Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, a.ID)
}

func (r *recordingEvents) AppointmentReminder(a *models.Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reminders = append(r.reminders, a.ID)
}
