package models

import "time"

type Group struct {
	ID        int64  `gorm:"primaryKey"`
	CourseID  int64  `gorm:"not null;uniqueIndex:idx_groups_course_name,priority:1"`
	Name      string `gorm:"size:254;not null;uniqueIndex:idx_groups_course_name,priority:2"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Group) TableName() string {
	return "groups"
}

type GroupMember struct {
	ID        int64 `gorm:"primaryKey"`
	GroupID   int64 `gorm:"not null;uniqueIndex:idx_group_members_group_user,priority:1"`
	UserID    int64 `gorm:"not null;uniqueIndex:idx_group_members_group_user,priority:2"`
	CreatedAt time.Time
}

func (GroupMember) TableName() string {
	return "group_members"
}
