package models

import "time"

// RoomType distinguishes destinations from intermediate stations
type RoomType string

const (
	RoomTypeRoom    RoomType = "room"
	RoomTypeStation RoomType = "station"
)

func (t RoomType) Valid() bool {
	return t == RoomTypeRoom || t == RoomTypeStation
}

// Room represents the rooms table
// Passes reference rooms by ID so a rename never detaches history.
type Room struct {
	ID        uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"room"`
	Type      RoomType  `gorm:"type:varchar(20);default:'room'" json:"type"`
	IsActive  bool      `gorm:"default:true" json:"active"`
	Capacity  int       `gorm:"default:0;comment:Slot budget, 0 uses the per-type default" json:"capacity"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName specifies the table name for Room model
func (Room) TableName() string {
	return "rooms"
}

// RoomOccupancy is the derived slot view of a room. Never stored.
type RoomOccupancy struct {
	RoomID    uint     `json:"room_id"`
	Room      string   `json:"room"`
	Type      RoomType `json:"type"`
	Active    bool     `json:"active"`
	Free      int      `json:"free"`
	Taken     int      `json:"taken"`
	Pending   int      `json:"pending"`
	IsCurrent bool     `json:"is_current"`
}

// RoomStats is the per-room summary shown in the room actions menu
type RoomStats struct {
	Room       string `json:"room"`
	Active     int    `json:"active"`
	CountToday int    `json:"count_today"`
}
