package models

// Student represents the students table (roster)
type Student struct {
	ID   string `gorm:"primaryKey;size:50" json:"student_id"`
	Name string `gorm:"size:255;not null" json:"name"`
}

// TableName specifies the table name for Student model
func (Student) TableName() string {
	return "students"
}
