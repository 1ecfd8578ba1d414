package roster

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	domain "github.com/classops/enrolsync/internal/domain/roster"
)

// RefreshSource opens a roster file and hands back its content decoded to
// UTF-8 per the declared charset.
type RefreshSource interface {
	Open(ctx context.Context, sourcePath, encoding string) (io.ReadCloser, error)
}

// StoreProvider builds the course-scoped collaborators for one run.
type StoreProvider interface {
	EnrollmentStore(courseID int64) domain.EnrollmentStore
	GroupStore(courseID int64) domain.GroupStore
}

type refreshWorkerJobRepo interface {
	ClaimNext(ctx context.Context, leaseDuration time.Duration) (*domain.RefreshJob, error)
	Heartbeat(ctx context.Context, jobID string, leaseDuration time.Duration) error
	Complete(ctx context.Context, jobID string, result domain.RunResult) error
	Requeue(ctx context.Context, jobID string, reason string) error
	Fail(ctx context.Context, jobID string, reason string) error
}

type RefreshWorkerConfig struct {
	Workers           int
	PollInterval      time.Duration
	LeaseDuration     time.Duration
	HeartbeatInterval time.Duration
}

// RefreshWorker claims queued refresh jobs and runs them to completion.
// The job repository leases at most one job per course at a time, so runs
// for the same course never overlap.
type RefreshWorker struct {
	repo      refreshWorkerJobRepo
	source    RefreshSource
	directory domain.Directory
	stores    StoreProvider
	cfg       RefreshWorkerConfig

	once sync.Once
}

func NewRefreshWorker(repo refreshWorkerJobRepo, source RefreshSource, directory domain.Directory, stores StoreProvider, cfg RefreshWorkerConfig) *RefreshWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.LeaseDuration <= 0 {
		cfg.LeaseDuration = 60 * time.Second
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = cfg.LeaseDuration / 2
	}

	return &RefreshWorker{
		repo:      repo,
		source:    source,
		directory: directory,
		stores:    stores,
		cfg:       cfg,
	}
}

func (w *RefreshWorker) Start(ctx context.Context) {
	w.once.Do(func() {
		for i := 0; i < w.cfg.Workers; i++ {
			go w.workerLoop(ctx)
		}
	})
}

func (w *RefreshWorker) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.repo.ClaimNext(ctx, w.cfg.LeaseDuration)
		if err != nil {
			log.Printf("claim next refresh job failed: %v", err)
			if !sleepWithContext(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}

		if job == nil {
			if !sleepWithContext(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}

		if err := w.ProcessJob(ctx, *job); err != nil {
			log.Printf("process refresh job %s failed: %v", job.ID, err)
		}
	}
}

func (w *RefreshWorker) ProcessJob(ctx context.Context, job domain.RefreshJob) error {
	runCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go w.heartbeatLoop(runCtx, job.ID)

	result, err := w.runJob(runCtx, job)
	if err != nil {
		return w.onProcessingError(ctx, job, err)
	}

	if err := w.repo.Complete(ctx, job.ID, result); err != nil {
		return w.onProcessingError(ctx, job, fmt.Errorf("complete job: %w", err))
	}

	return nil
}

func (w *RefreshWorker) runJob(ctx context.Context, job domain.RefreshJob) (domain.RunResult, error) {
	reader, err := w.source.Open(ctx, job.Options.SourcePath, job.Options.Encoding)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("open refresh source: %w", err)
	}
	defer reader.Close()

	rows := csv.NewReader(reader)
	rows.Comma = DelimiterRunes[job.Options.Delimiter]
	if rows.Comma == 0 {
		rows.Comma = ','
	}
	rows.FieldsPerRecord = -1
	rows.LazyQuotes = true
	rows.TrimLeadingSpace = true

	header, err := rows.Read()
	if errors.Is(err, io.EOF) {
		return domain.RunResult{}, domain.ErrEmptyFile
	}
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("%w: %v", domain.ErrInputUnreadable, err)
	}

	reconciler := NewReconciler(
		w.directory,
		w.stores.EnrollmentStore(job.CourseID),
		w.stores.GroupStore(job.CourseID),
	)

	return reconciler.Execute(ctx, ReconcileInput{
		Header:     header,
		Rows:       rows,
		Enrollment: job.Options.Enrollment,
		Groups:     job.Options.Groups,
	})
}

func (w *RefreshWorker) heartbeatLoop(ctx context.Context, jobID string) {
	ticker := time.NewTicker(w.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.repo.Heartbeat(ctx, jobID, w.cfg.LeaseDuration); err != nil && ctx.Err() == nil {
				log.Printf("heartbeat refresh job %s failed: %v", jobID, err)
			}
		}
	}
}

func (w *RefreshWorker) onProcessingError(ctx context.Context, job domain.RefreshJob, err error) error {
	reason := truncateReason(err.Error())

	if isPermanent(err) || job.Attempts >= job.MaxAttempts {
		if failErr := w.repo.Fail(ctx, job.ID, reason); failErr != nil {
			return fmt.Errorf("%v; fail update failed: %w", err, failErr)
		}
		return err
	}

	if requeueErr := w.repo.Requeue(ctx, job.ID, reason); requeueErr != nil {
		return fmt.Errorf("%v; requeue failed: %w", err, requeueErr)
	}
	return err
}

// isPermanent reports whether retrying the job could ever change the
// outcome. Schema and roster-content errors are decided by the file alone.
func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrEmptyFile) ||
		errors.Is(err, domain.ErrWrongColumnCount) ||
		errors.Is(err, domain.ErrUnrecognizedColumn) ||
		errors.Is(err, domain.ErrDuplicateColumn) ||
		errors.Is(err, domain.ErrMissingGroupColumn) ||
		errors.Is(err, domain.ErrInputUnreadable) ||
		errors.Is(err, domain.ErrEmptyRoster)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}
