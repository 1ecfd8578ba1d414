package models

import "time"

const (
	EnrolmentActive    = "active"
	EnrolmentSuspended = "suspended"
)

type Enrolment struct {
	ID        int64  `gorm:"primaryKey"`
	CourseID  int64  `gorm:"not null;uniqueIndex:idx_enrolments_course_user,priority:1"`
	UserID    int64  `gorm:"not null;uniqueIndex:idx_enrolments_course_user,priority:2"`
	RoleID    int64  `gorm:"not null"`
	Status    string `gorm:"size:20;not null;default:active"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Enrolment) TableName() string {
	return "enrolments"
}
