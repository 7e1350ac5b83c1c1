package repository

import (
	"hallpass-service/internal/models"

	"gorm.io/gorm"
)

// ScheduleRepository reads the bell schedule and student assignments.
// The tables are maintained by the schedule editor.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepo(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) ListPeriodWindows() ([]models.PeriodWindow, error) {
	var windows []models.PeriodWindow
	err := r.db.Order("sequence ASC, id ASC").Find(&windows).Error
	return windows, err
}

func (r *ScheduleRepository) ListStudentPeriods(studentID string) ([]models.StudentPeriod, error) {
	var periods []models.StudentPeriod
	err := r.db.Where("student_id = ?", studentID).Find(&periods).Error
	return periods, err
}
