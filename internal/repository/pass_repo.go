package repository

import (
	"time"

	"hallpass-service/internal/models"

	"gorm.io/gorm"
)

type PassRepository struct {
	db *gorm.DB
}

func NewPassRepo(db *gorm.DB) *PassRepository {
	return &PassRepository{db: db}
}

// CreatePass inserts a pass with its store-assigned id
func (r *PassRepository) CreatePass(pass *models.Pass) error {
	return r.db.Create(pass).Error
}

// SavePass writes every column of an existing pass
func (r *PassRepository) SavePass(pass *models.Pass) error {
	return r.db.Save(pass).Error
}

// SavePasses writes a batch in one transaction
func (r *PassRepository) SavePasses(passes []models.Pass) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range passes {
			if err := tx.Save(&passes[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetWorkingSet loads every pass created since the given time plus any
// pass still open from an earlier day.
func (r *PassRepository) GetWorkingSet(since time.Time) ([]models.Pass, error) {
	var passes []models.Pass
	err := r.db.
		Where("created_at >= ? OR status IN ?", since, []string{"pending_start", "active", "pending_return"}).
		Order("id ASC").
		Find(&passes).Error
	return passes, err
}

// GetMaxID returns the highest pass id ever issued, 0 when the table is empty
func (r *PassRepository) GetMaxID() (uint, error) {
	var maxID uint
	err := r.db.Model(&models.Pass{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error
	return maxID, err
}
