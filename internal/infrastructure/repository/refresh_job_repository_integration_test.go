package repository_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	domain "github.com/classops/enrolsync/internal/domain/roster"
	"github.com/classops/enrolsync/internal/infrastructure/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	return db
}

func createRefreshJobsTable(t *testing.T, db *gorm.DB) {
	t.Helper()

	createSQL := `
    CREATE EXTENSION IF NOT EXISTS "uuid-ossp";
    CREATE TABLE IF NOT EXISTS refresh_jobs (
      id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
      course_id BIGINT NOT NULL,
      source_path TEXT NOT NULL,
      delimiter_name VARCHAR(20) NOT NULL DEFAULT 'comma',
      encoding_name VARCHAR(40) NOT NULL DEFAULT 'UTF-8',
      role_id BIGINT NOT NULL DEFAULT 0,
      missing_action VARCHAR(20) NOT NULL DEFAULT 'none',
      auto_create BOOLEAN NOT NULL DEFAULT FALSE,
      auto_withdraw BOOLEAN NOT NULL DEFAULT FALSE,
      status TEXT NOT NULL,
      attempts INT NOT NULL DEFAULT 0,
      max_attempts INT NOT NULL DEFAULT 5,
      enrolled_count BIGINT NOT NULL DEFAULT 0,
      suspended_count BIGINT NOT NULL DEFAULT 0,
      withdrawn_count BIGINT NOT NULL DEFAULT 0,
      groups_created BIGINT NOT NULL DEFAULT 0,
      memberships_added BIGINT NOT NULL DEFAULT 0,
      memberships_removed BIGINT NOT NULL DEFAULT 0,
      skipped_rows BIGINT NOT NULL DEFAULT 0,
      diagnostics JSONB,
      error_message TEXT,
      heartbeat_at TIMESTAMPTZ,
      lease_expires_at TIMESTAMPTZ,
      started_at TIMESTAMPTZ,
      finished_at TIMESTAMPTZ,
      created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
      updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
      CHECK (status IN ('queued','running','succeeded','failed'))
    );
    `
	if err := db.Exec(createSQL).Error; err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	if err := db.Exec("DELETE FROM refresh_jobs").Error; err != nil {
		t.Fatalf("failed to cleanup refresh_jobs: %v", err)
	}
}

func testOptions() domain.RefreshOptions {
	return domain.RefreshOptions{
		SourcePath: "roster.csv",
		Delimiter:  "comma",
		Encoding:   "UTF-8",
		Enrollment: domain.EnrollmentPolicy{RoleID: 5, MissingAction: domain.MissingSuspend},
		Groups:     domain.GroupPolicy{AutoCreate: true},
	}
}

func TestRefreshJobRepositoryLifecycleIntegration(t *testing.T) {
	db := openTestDB(t)
	createRefreshJobsTable(t, db)

	repo := repository.NewRefreshJobRepository(db)

	jobID, err := repo.Enqueue(context.Background(), 42, testOptions())
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	claimed, err := repo.ClaimNext(context.Background(), 30*time.Second)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claimed == nil {
		t.Fatal("expected claimed job")
	}
	if claimed.ID != jobID {
		t.Fatalf("unexpected job id: %s", claimed.ID)
	}
	if claimed.CourseID != 42 || claimed.Options.Enrollment.RoleID != 5 {
		t.Fatalf("unexpected claimed job: %+v", claimed)
	}
	if claimed.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", claimed.Attempts)
	}

	if err := repo.Heartbeat(context.Background(), claimed.ID, 30*time.Second); err != nil {
		t.Fatalf("heartbeat failed: %v", err)
	}

	result := domain.RunResult{
		Enrolled:         2,
		Suspended:        1,
		MembershipsAdded: 3,
		Diagnostics: []domain.Diagnostic{{
			UserID: 7,
			Stage:  domain.StageGroup,
			Reason: "add member: boom",
		}},
	}
	if err := repo.Complete(context.Background(), claimed.ID, result); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	job, err := repo.GetByID(context.Background(), jobID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if job.Status != "succeeded" {
		t.Fatalf("unexpected status: %s", job.Status)
	}
	if job.Result == nil || job.Result.Enrolled != 2 || job.Result.MembershipsAdded != 3 {
		t.Fatalf("unexpected result: %+v", job.Result)
	}
	if len(job.Result.Diagnostics) != 1 || job.Result.Diagnostics[0].UserID != 7 {
		t.Fatalf("unexpected diagnostics: %+v", job.Result.Diagnostics)
	}
}

func TestRefreshJobRepositoryClaimSerializesPerCourseIntegration(t *testing.T) {
	db := openTestDB(t)
	createRefreshJobsTable(t, db)

	repo := repository.NewRefreshJobRepository(db)

	firstID, err := repo.Enqueue(context.Background(), 42, testOptions())
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if _, err := repo.Enqueue(context.Background(), 42, testOptions()); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	otherCourseID, err := repo.Enqueue(context.Background(), 99, testOptions())
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	claimed, err := repo.ClaimNext(context.Background(), 30*time.Second)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claimed == nil || claimed.ID != firstID {
		t.Fatalf("expected first job for course 42, got %+v", claimed)
	}

	// The second job for course 42 must wait behind the live lease; the
	// job for course 99 is still claimable.
	second, err := repo.ClaimNext(context.Background(), 30*time.Second)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if second == nil {
		t.Fatal("expected job for the other course")
	}
	if second.CourseID != 99 || second.ID != otherCourseID {
		t.Fatalf("expected course 99 job, got %+v", second)
	}

	third, err := repo.ClaimNext(context.Background(), 30*time.Second)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if third != nil {
		t.Fatalf("no job should be claimable, got %+v", third)
	}

	// Completing the first run frees the course.
	if err := repo.Complete(context.Background(), claimed.ID, domain.RunResult{}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	fourth, err := repo.ClaimNext(context.Background(), 30*time.Second)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if fourth == nil || fourth.CourseID != 42 {
		t.Fatalf("expected queued course 42 job, got %+v", fourth)
	}
}

func TestRefreshJobRepositoryConcurrentClaimsOneCourseIntegration(t *testing.T) {
	db := openTestDB(t)
	createRefreshJobsTable(t, db)

	repo := repository.NewRefreshJobRepository(db)

	if _, err := repo.Enqueue(context.Background(), 42, testOptions()); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if _, err := repo.Enqueue(context.Background(), 42, testOptions()); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	claims := make([]*domain.RefreshJob, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claims[i], errs[i] = repo.ClaimNext(context.Background(), 30*time.Second)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
	}
	claimed := 0
	for _, job := range claims {
		if job != nil {
			claimed++
		}
	}
	if claimed != 1 {
		t.Fatalf("expected exactly one concurrent claim for the course, got %d", claimed)
	}
}

func TestRefreshJobRepositoryRequeueAndFailIntegration(t *testing.T) {
	db := openTestDB(t)
	createRefreshJobsTable(t, db)

	repo := repository.NewRefreshJobRepository(db)

	jobID, err := repo.Enqueue(context.Background(), 42, testOptions())
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if _, err := repo.ClaimNext(context.Background(), 30*time.Second); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	if err := repo.Requeue(context.Background(), jobID, "nfs timeout"); err != nil {
		t.Fatalf("requeue failed: %v", err)
	}
	job, err := repo.GetByID(context.Background(), jobID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if job.Status != "queued" || job.Error != "nfs timeout" {
		t.Fatalf("unexpected job after requeue: %+v", job)
	}

	if err := repo.Fail(context.Background(), jobID, "csv header must have exactly two columns"); err != nil {
		t.Fatalf("fail failed: %v", err)
	}
	job, err = repo.GetByID(context.Background(), jobID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if job.Status != "failed" {
		t.Fatalf("unexpected status: %s", job.Status)
	}
}
