package repository

import (
	"errors"

	"hallpass-service/internal/models"

	"gorm.io/gorm"
)

type StudentRepository struct {
	db *gorm.DB
}

func NewStudentRepo(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// GetStudent retrieves a student by id. A missing student is (nil, nil).
func (r *StudentRepository) GetStudent(id string) (*models.Student, error) {
	var student models.Student
	err := r.db.Where("id = ?", id).First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &student, nil
}
