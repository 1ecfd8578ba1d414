package repository

import (
	"context"
	"fmt"

	domain "github.com/classops/enrolsync/internal/domain/roster"
	"github.com/classops/enrolsync/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

// EnrollmentRepository is the enrollment store scoped to one course.
// Suspended users still count as enrolled and still appear in role
// listings, carrying their suspension state.
type EnrollmentRepository struct {
	db       *gorm.DB
	courseID int64
}

func NewEnrollmentRepository(db *gorm.DB, courseID int64) *EnrollmentRepository {
	return &EnrollmentRepository{db: db, courseID: courseID}
}

func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, uid domain.UserID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrolment{}).
		Where("course_id = ? AND user_id = ?", r.courseID, int64(uid)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check enrolment: %w", err)
	}
	return count > 0, nil
}

func (r *EnrollmentRepository) Enroll(ctx context.Context, uid domain.UserID, roleID int64) error {
	enrolment := models.Enrolment{
		CourseID: r.courseID,
		UserID:   int64(uid),
		RoleID:   roleID,
		Status:   models.EnrolmentActive,
	}
	if err := r.db.WithContext(ctx).Create(&enrolment).Error; err != nil {
		return fmt.Errorf("create enrolment: %w", err)
	}
	return nil
}

func (r *EnrollmentRepository) ListEnrolledWithRole(ctx context.Context, roleShortname string) ([]domain.Enrollee, error) {
	var rows []struct {
		UserID int64
		Status string
	}
	err := r.db.WithContext(ctx).Model(&models.Enrolment{}).
		Select("enrolments.user_id, enrolments.status").
		Joins("JOIN roles ON roles.id = enrolments.role_id").
		Where("enrolments.course_id = ? AND roles.shortname = ?", r.courseID, roleShortname).
		Order("enrolments.user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list %s enrolments: %w", roleShortname, err)
	}

	out := make([]domain.Enrollee, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Enrollee{
			UserID:    domain.UserID(row.UserID),
			Suspended: row.Status == models.EnrolmentSuspended,
		})
	}
	return out, nil
}

func (r *EnrollmentRepository) Suspend(ctx context.Context, uid domain.UserID) error {
	err := r.db.WithContext(ctx).Model(&models.Enrolment{}).
		Where("course_id = ? AND user_id = ?", r.courseID, int64(uid)).
		Update("status", models.EnrolmentSuspended).Error
	if err != nil {
		return fmt.Errorf("suspend enrolment: %w", err)
	}
	return nil
}

func (r *EnrollmentRepository) Unenroll(ctx context.Context, uid domain.UserID) error {
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND user_id = ?", r.courseID, int64(uid)).
		Delete(&models.Enrolment{}).Error
	if err != nil {
		return fmt.Errorf("delete enrolment: %w", err)
	}
	return nil
}
