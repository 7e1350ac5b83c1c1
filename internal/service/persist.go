package service

import (
	"hallpass-service/internal/models"
)

// PassPersister writes pass records through to durable storage.
// The in-memory store only commits a change after the write succeeds.
type PassPersister interface {
	CreatePass(pass *models.Pass) error
	SavePass(pass *models.Pass) error
	SavePasses(passes []models.Pass) error
}

// RoomPersister writes room records through to durable storage.
type RoomPersister interface {
	CreateRoom(room *models.Room) error
	SaveRoom(room *models.Room) error
	DeleteRoom(id uint) error
}

// AuditWriter stores audit rows
type AuditWriter interface {
	CreateAuditLog(entry *models.AuditLog) error
}

// Roster resolves student ids to names. A missing student is (nil, nil).
type Roster interface {
	GetStudent(id string) (*models.Student, error)
}

// NopPersister keeps everything in memory only (STORAGE_BACKEND=memory).
type NopPersister struct{}

func (NopPersister) CreatePass(*models.Pass) error { return nil }
func (NopPersister) SavePass(*models.Pass) error { return nil }
func (NopPersister) SavePasses([]models.Pass) error { return nil }
func (NopPersister) CreateRoom(*models.Room) error { return nil }
func (NopPersister) SaveRoom(*models.Room) error { return nil }
func (NopPersister) DeleteRoom(uint) error { return nil }
func (NopPersister) CreateAuditLog(*models.AuditLog) error { return nil }

// OpenRoster accepts any non-empty student id and uses it as the name.
// Used with the memory backend where no roster table exists.
type OpenRoster struct{}

func (OpenRoster) GetStudent(id string) (*models.Student, error) {
	if id == "" {
		return nil, nil
	}
	return &models.Student{ID: id, Name: id}, nil
}

// StaticSchedule serves period windows from configuration and has no
// per-student assignments beyond what was given to it.
type StaticSchedule struct {
	Windows     []models.PeriodWindow
	Assignments map[string][]models.StudentPeriod
}

func (s *StaticSchedule) ListPeriodWindows() ([]models.PeriodWindow, error) {
	return s.Windows, nil
}

func (s *StaticSchedule) ListStudentPeriods(studentID string) ([]models.StudentPeriod, error) {
	return s.Assignments[studentID], nil
}

// FallbackSchedule serves windows from the primary source and falls back to
// configured windows when the primary has none.
type FallbackSchedule struct {
	Primary  ScheduleSource
	Fallback []models.PeriodWindow
}

func (s *FallbackSchedule) ListPeriodWindows() ([]models.PeriodWindow, error) {
	windows, err := s.Primary.ListPeriodWindows()
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return s.Fallback, nil
	}
	return windows, nil
}

func (s *FallbackSchedule) ListStudentPeriods(studentID string) ([]models.StudentPeriod, error) {
	return s.Primary.ListStudentPeriods(studentID)
}
