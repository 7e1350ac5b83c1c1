package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PassStatus is the lifecycle state of a pass.
// Values are only converted to strings at the JSON and SQL boundaries.
type PassStatus uint8

const (
	StatusUnknown PassStatus = iota
	StatusPendingStart
	StatusActive
	StatusPendingReturn
	StatusCompleted
	StatusRejected
)

var statusNames = map[PassStatus]string{
	StatusPendingStart:  "pending_start",
	StatusActive:        "active",
	StatusPendingReturn: "pending_return",
	StatusCompleted:     "completed",
	StatusRejected:      "rejected",
}

// PassEvent is an input to the pass state machine
type PassEvent uint8

const (
	EventApprove PassEvent = iota + 1
	EventReject
	EventRequestReturn
	EventStationIn
	EventStationOut
	EventComplete
)

var eventNames = map[PassEvent]string{
	EventApprove:       "approve",
	EventReject:        "reject",
	EventRequestReturn: "request_return",
	EventStationIn:     "station_in",
	EventStationOut:    "station_out",
	EventComplete:      "complete",
}

func (e PassEvent) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", uint8(e))
}

// passTransitions is the complete transition table. A (status, event) pair
// missing from the table is an illegal transition.
var passTransitions = map[PassStatus]map[PassEvent]PassStatus{
	StatusPendingStart: {
		EventApprove: StatusActive,
		EventReject:  StatusRejected,
	},
	StatusActive: {
		EventRequestReturn: StatusPendingReturn,
		EventStationIn:     StatusActive,
		EventStationOut:    StatusActive,
		EventComplete:      StatusCompleted,
	},
	StatusPendingReturn: {
		EventComplete: StatusCompleted,
	},
}

// Next returns the status reached by applying event, or false when the
// transition is not allowed from s.
func (s PassStatus) Next(event PassEvent) (PassStatus, bool) {
	next, ok := passTransitions[s][event]
	return next, ok
}

// IsOpen reports whether the status counts towards the one-open-pass rule.
func (s PassStatus) IsOpen() bool {
	return s == StatusPendingStart || s == StatusActive || s == StatusPendingReturn
}

func (s PassStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

func (s PassStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParsePassStatus converts a stored or wire name into a PassStatus.
func ParsePassStatus(name string) (PassStatus, error) {
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	// Rows written by older deployments used "returned" for completed passes.
	if name == "returned" {
		return StatusCompleted, nil
	}
	return StatusUnknown, fmt.Errorf("unknown pass status %q", name)
}

func (s PassStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PassStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParsePassStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer so the status is stored as its name
func (s PassStatus) Value() (driver.Value, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("cannot store pass status %d", uint8(s))
	}
	return s.String(), nil
}

// Scan implements sql.Scanner
func (s *PassStatus) Scan(src interface{}) error {
	var name string
	switch v := src.(type) {
	case string:
		name = v
	case []byte:
		name = string(v)
	default:
		return fmt.Errorf("cannot scan %T into PassStatus", src)
	}
	parsed, err := ParsePassStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Pass represents the passes table
// One student's single excursion out of a room.
type Pass struct {
	ID          uint       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	StudentID   string     `gorm:"size:50;not null;index" json:"student_id"`
	StudentName string     `gorm:"size:255" json:"student_name"`
	RoomID      uint       `gorm:"not null;index" json:"room_id"`
	RoomName    string     `gorm:"size:100" json:"room_name"` // Name at creation, shown if the room is later deleted
	StationID   *uint      `json:"station_id"`
	Status      PassStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Period      *string    `gorm:"size:20" json:"period"`
	IsOverride  bool       `gorm:"default:false" json:"is_override"`
	Note        string     `gorm:"type:text" json:"note"`
	Archived    bool       `gorm:"default:false" json:"archived"`

	CreatedAt      time.Time  `gorm:"autoCreateTime:false" json:"created_at"`
	CheckoutTime   *time.Time `json:"checkout_time"`
	StationInTime  *time.Time `json:"station_in_time"`
	StationOutTime *time.Time `json:"station_out_time"`
	RoomInTime     *time.Time `json:"room_in_time"`
	CompletedTime  *time.Time `json:"completed_time"`

	// Durations computed at completion
	TotalSeconds   int `gorm:"default:0" json:"total_seconds"`
	StationSeconds int `gorm:"default:0" json:"station_seconds"`
	HallwaySeconds int `gorm:"default:0" json:"hallway_seconds"`
}

// TableName specifies the table name for Pass model
func (Pass) TableName() string {
	return "passes"
}

// LatestTimestamp returns the most recent timestamp recorded on the pass.
func (p *Pass) LatestTimestamp() time.Time {
	latest := p.CreatedAt
	for _, ts := range []*time.Time{p.CheckoutTime, p.StationInTime, p.StationOutTime, p.RoomInTime, p.CompletedTime} {
		if ts != nil && ts.After(latest) {
			latest = *ts
		}
	}
	return latest
}
