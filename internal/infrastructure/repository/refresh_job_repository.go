package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/classops/enrolsync/internal/domain/roster"
	"github.com/classops/enrolsync/internal/infrastructure/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RefreshJobRepository struct {
	db *gorm.DB
}

func NewRefreshJobRepository(db *gorm.DB) *RefreshJobRepository {
	return &RefreshJobRepository{db: db}
}

func (r *RefreshJobRepository) Enqueue(ctx context.Context, courseID int64, opts domain.RefreshOptions) (string, error) {
	job := models.RefreshJob{
		CourseID:      courseID,
		SourcePath:    opts.SourcePath,
		DelimiterName: opts.Delimiter,
		EncodingName:  opts.Encoding,
		RoleID:        opts.Enrollment.RoleID,
		MissingAction: string(opts.Enrollment.MissingAction),
		AutoCreate:    opts.Groups.AutoCreate,
		AutoWithdraw:  opts.Groups.AutoWithdraw,
		Status:        "queued",
	}

	if err := r.db.WithContext(ctx).Create(&job).Error; err != nil {
		return "", fmt.Errorf("create refresh job: %w", err)
	}

	return job.ID, nil
}

func (r *RefreshJobRepository) GetByID(ctx context.Context, jobID string) (*domain.RefreshJob, error) {
	var row models.RefreshJob

	err := r.db.WithContext(ctx).First(&row, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("get refresh job: %w", err)
	}

	return toDomainJob(&row)
}

// ClaimNext leases the oldest runnable job. A job is runnable when it is
// queued, or running with an expired lease, and no other job for the same
// course holds a live lease. SKIP LOCKED keeps concurrent workers from
// fighting over the same row.
func (r *RefreshJobRepository) ClaimNext(ctx context.Context, leaseDuration time.Duration) (*domain.RefreshJob, error) {
	var claimed *domain.RefreshJob

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.RefreshJob

		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(status = ? OR (status = ? AND lease_expires_at < NOW()))", "queued", "running").
			Where(`NOT EXISTS (
				SELECT 1 FROM refresh_jobs live
				WHERE live.course_id = refresh_jobs.course_id
				  AND live.id <> refresh_jobs.id
				  AND live.status = 'running'
				  AND live.lease_expires_at >= NOW()
			)`).
			Order("created_at").
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("select claimable job: %w", err)
		}

		// SKIP LOCKED hides a competing claim's row while this
		// transaction's snapshot still shows it queued, so the NOT EXISTS
		// guard alone cannot serialize same-course claims. Take the course
		// lock and re-check for a live lease before marking the job running.
		err = tx.Exec(
			"SELECT pg_advisory_xact_lock(hashtext('refresh_course:' || ?::text))",
			row.CourseID).Error
		if err != nil {
			return fmt.Errorf("lock course %d: %w", row.CourseID, err)
		}

		var live int64
		err = tx.Model(&models.RefreshJob{}).
			Where("course_id = ? AND id <> ? AND status = ? AND lease_expires_at >= NOW()",
				row.CourseID, row.ID, "running").
			Count(&live).Error
		if err != nil {
			return fmt.Errorf("recheck course %d lease: %w", row.CourseID, err)
		}
		if live > 0 {
			return nil
		}

		now := time.Now()
		expires := now.Add(leaseDuration)
		updates := map[string]any{
			"status":           "running",
			"attempts":         gorm.Expr("attempts + 1"),
			"heartbeat_at":     now,
			"lease_expires_at": expires,
			"started_at":       now,
			"updated_at":       now,
		}
		if err := tx.Model(&models.RefreshJob{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("mark job running: %w", err)
		}

		row.Status = "running"
		row.Attempts++
		job, err := toDomainJob(&row)
		if err != nil {
			return err
		}
		claimed = job
		return nil
	})
	if err != nil {
		return nil, err
	}

	return claimed, nil
}

func (r *RefreshJobRepository) Heartbeat(ctx context.Context, jobID string, leaseDuration time.Duration) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&models.RefreshJob{}).
		Where("id = ? AND status = ?", jobID, "running").
		Updates(map[string]any{
			"heartbeat_at":     now,
			"lease_expires_at": now.Add(leaseDuration),
			"updated_at":       now,
		}).Error
	if err != nil {
		return fmt.Errorf("heartbeat refresh job: %w", err)
	}
	return nil
}

func (r *RefreshJobRepository) Complete(ctx context.Context, jobID string, result domain.RunResult) error {
	diagnostics, err := json.Marshal(result.Diagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}

	now := time.Now()
	err = r.db.WithContext(ctx).Model(&models.RefreshJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":              "succeeded",
			"enrolled_count":      result.Enrolled,
			"suspended_count":     result.Suspended,
			"withdrawn_count":     result.Withdrawn,
			"groups_created":      result.GroupsCreated,
			"memberships_added":   result.MembershipsAdded,
			"memberships_removed": result.MembershipsRemoved,
			"skipped_rows":        result.SkippedRows,
			"diagnostics":         diagnostics,
			"error_message":       nil,
			"finished_at":         now,
			"updated_at":          now,
		}).Error
	if err != nil {
		return fmt.Errorf("complete refresh job: %w", err)
	}
	return nil
}

func (r *RefreshJobRepository) Requeue(ctx context.Context, jobID string, reason string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&models.RefreshJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":           "queued",
			"error_message":    reason,
			"lease_expires_at": nil,
			"heartbeat_at":     nil,
			"updated_at":       now,
		}).Error
	if err != nil {
		return fmt.Errorf("requeue refresh job: %w", err)
	}
	return nil
}

func (r *RefreshJobRepository) Fail(ctx context.Context, jobID string, reason string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&models.RefreshJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":        "failed",
			"error_message": reason,
			"finished_at":   now,
			"updated_at":    now,
		}).Error
	if err != nil {
		return fmt.Errorf("fail refresh job: %w", err)
	}
	return nil
}

func toDomainJob(row *models.RefreshJob) (*domain.RefreshJob, error) {
	job := &domain.RefreshJob{
		ID:       row.ID,
		CourseID: row.CourseID,
		Options: domain.RefreshOptions{
			SourcePath: row.SourcePath,
			Delimiter:  row.DelimiterName,
			Encoding:   row.EncodingName,
			Enrollment: domain.EnrollmentPolicy{
				RoleID:        row.RoleID,
				MissingAction: domain.MissingAction(row.MissingAction),
			},
			Groups: domain.GroupPolicy{
				AutoCreate:   row.AutoCreate,
				AutoWithdraw: row.AutoWithdraw,
			},
		},
		Status:      row.Status,
		Attempts:    row.Attempts,
		MaxAttempts: row.MaxAttempts,
	}
	if row.ErrorMessage != nil {
		job.Error = *row.ErrorMessage
	}

	if row.Status == "succeeded" {
		result := domain.RunResult{
			Enrolled:           row.EnrolledCount,
			Suspended:          row.SuspendedCount,
			Withdrawn:          row.WithdrawnCount,
			GroupsCreated:      row.GroupsCreated,
			MembershipsAdded:   row.MembershipsAdded,
			MembershipsRemoved: row.MembershipsRemoved,
			SkippedRows:        row.SkippedRows,
		}
		if len(row.Diagnostics) > 0 {
			if err := json.Unmarshal(row.Diagnostics, &result.Diagnostics); err != nil {
				return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
			}
		}
		job.Result = &result
	}

	return job, nil
}
