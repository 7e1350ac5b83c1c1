package repository

import (
	"hallpass-service/internal/models"

	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog creates a new audit log entry
func (r *AuditRepository) CreateAuditLog(entry *models.AuditLog) error {
	return r.db.Create(entry).Error
}

// GetStudentAuditLogs lists the most recent entries for one student
func (r *AuditRepository) GetStudentAuditLogs(studentID string, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := r.db.Where("student_id = ?", studentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
