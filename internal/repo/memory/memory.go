package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/staffbot/internal/domain"
	"github.com/hamed0406/staffbot/internal/repo"
)

var _ repo.StateStore = (*Store)(nil)

// Store keeps shifts and reports for the lifetime of the process.
type Store struct {
	mu      sync.RWMutex
	shifts  map[string]*domain.ShiftRecord
	reports []domain.Report
}

func New() *Store {
	return &Store{
		shifts:  make(map[string]*domain.ShiftRecord),
		reports: make([]domain.Report, 0, 128),
	}
}

// StartShift overwrites status and start time; a previous end time stays.
func (m *Store) StartShift(phone string, at time.Time) domain.ShiftRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.shifts[phone]
	if rec == nil {
		rec = &domain.ShiftRecord{Phone: phone}
		m.shifts[phone] = rec
	}
	start := at
	rec.Status = domain.ShiftOn
	rec.StartAt = &start
	return copyRecord(rec)
}

// StopShift keeps the start time if there was one.
func (m *Store) StopShift(phone string, at time.Time) domain.ShiftRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.shifts[phone]
	if rec == nil {
		rec = &domain.ShiftRecord{Phone: phone}
		m.shifts[phone] = rec
	}
	end := at
	rec.Status = domain.ShiftOff
	rec.EndAt = &end
	return copyRecord(rec)
}

func (m *Store) Shift(phone string) (domain.ShiftRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec := m.shifts[phone]
	if rec == nil {
		return domain.ShiftRecord{}, false
	}
	return copyRecord(rec), true
}

func (m *Store) AppendReport(phone, text string, at time.Time) domain.Report {
	r := domain.Report{ID: uuid.NewString(), Phone: phone, Text: text, At: at}
	m.mu.Lock()
	m.reports = append(m.reports, r)
	m.mu.Unlock()
	return r
}

func (m *Store) CountOnShift() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, rec := range m.shifts {
		if rec.Status == domain.ShiftOn {
			n++
		}
	}
	return n
}

func (m *Store) ReportCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reports)
}

func copyRecord(rec *domain.ShiftRecord) domain.ShiftRecord {
	out := *rec
	if rec.StartAt != nil {
		v := *rec.StartAt
		out.StartAt = &v
	}
	if rec.EndAt != nil {
		v := *rec.EndAt
		out.EndAt = &v
	}
	return out
}
