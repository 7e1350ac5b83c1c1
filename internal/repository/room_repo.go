package repository

import (
	"hallpass-service/internal/models"

	"gorm.io/gorm"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// GetAllRooms retrieves every room, active or not
func (r *RoomRepository) GetAllRooms() ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.Order("name ASC").Find(&rooms).Error
	return rooms, err
}

// CreateRoom creates a new room
func (r *RoomRepository) CreateRoom(room *models.Room) error {
	return r.db.Create(room).Error
}

// SaveRoom updates an existing room
func (r *RoomRepository) SaveRoom(room *models.Room) error {
	return r.db.Save(room).Error
}

// DeleteRoom removes a room. Passes keep the room name they were created with.
func (r *RoomRepository) DeleteRoom(id uint) error {
	return r.db.Delete(&models.Room{}, id).Error
}

// GetMaxReferencedID returns the highest room id that passes or schedule
// assignments still point at, including ids of deleted rooms
func (r *RoomRepository) GetMaxReferencedID() (uint, error) {
	var maxID uint
	err := r.db.Raw(maxReferencedRoomIDQuery).Scan(&maxID).Error
	return maxID, err
}

const maxReferencedRoomIDQuery = "SELECT GREATEST(" +
	"COALESCE((SELECT MAX(room_id) FROM passes), 0), " +
	"COALESCE((SELECT MAX(room_id) FROM student_periods), 0))"
