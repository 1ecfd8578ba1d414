package models

import "time"

type RefreshJob struct {
	ID            string `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	CourseID      int64  `gorm:"not null;index"`
	SourcePath    string `gorm:"type:text;not null"`
	DelimiterName string `gorm:"size:20;not null;default:comma"`
	EncodingName  string `gorm:"size:40;not null;default:UTF-8"`
	RoleID        int64  `gorm:"not null;default:0"`
	MissingAction string `gorm:"size:20;not null;default:none"`
	AutoCreate    bool   `gorm:"not null;default:false"`
	AutoWithdraw  bool   `gorm:"not null;default:false"`

	Status      string `gorm:"type:text;not null"`
	Attempts    int    `gorm:"not null;default:0"`
	MaxAttempts int    `gorm:"not null;default:5"`

	EnrolledCount      int64   `gorm:"not null;default:0"`
	SuspendedCount     int64   `gorm:"not null;default:0"`
	WithdrawnCount     int64   `gorm:"not null;default:0"`
	GroupsCreated      int64   `gorm:"not null;default:0"`
	MembershipsAdded   int64   `gorm:"not null;default:0"`
	MembershipsRemoved int64   `gorm:"not null;default:0"`
	SkippedRows        int64   `gorm:"not null;default:0"`
	Diagnostics        []byte  `gorm:"type:jsonb"`
	ErrorMessage       *string `gorm:"type:text"`

	HeartbeatAt    *time.Time
	LeaseExpiresAt *time.Time
	StartedAt      *time.Time
	FinishedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (RefreshJob) TableName() string {
	return "refresh_jobs"
}
