package models

// PeriodWindow represents the period_windows table
// A named bell-schedule window, times are "HH:MM" in the school's timezone.
type PeriodWindow struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	Label    string `gorm:"size:20;not null;uniqueIndex" json:"period"`
	Sequence int    `gorm:"not null;default:0" json:"sequence"`
	Start    string `gorm:"size:5;not null" json:"start"`
	End      string `gorm:"size:5;not null" json:"end"`
}

// TableName specifies the table name for PeriodWindow model
func (PeriodWindow) TableName() string {
	return "period_windows"
}

// StudentPeriod represents the student_periods table
// Assignments point at rooms by id so a rename keeps them.
type StudentPeriod struct {
	StudentID string `gorm:"primaryKey;size:50" json:"student_id"`
	Period    string `gorm:"primaryKey;size:20" json:"period"`
	RoomID    uint   `gorm:"not null;index" json:"room_id"`
}

// TableName specifies the table name for StudentPeriod model
func (StudentPeriod) TableName() string {
	return "student_periods"
}

// PeriodMatch is one row of the period debug view
type PeriodMatch struct {
	Period string `json:"period"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Now    string `json:"now"`
	Match  bool   `json:"match"`
}
