package models

import "time"

type User struct {
	ID        int64  `gorm:"primaryKey"`
	Username  string `gorm:"size:100;not null;uniqueIndex"`
	IDNumber  string `gorm:"column:idnumber;size:255;not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}

type Role struct {
	ID        int64  `gorm:"primaryKey"`
	Shortname string `gorm:"size:100;not null;uniqueIndex"`
}

func (Role) TableName() string {
	return "roles"
}
