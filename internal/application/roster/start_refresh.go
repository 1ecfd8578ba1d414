package roster

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	domain "github.com/classops/enrolsync/internal/domain/roster"
)

// DelimiterRunes maps the configurable delimiter names to field separators.
var DelimiterRunes = map[string]rune{
	"comma":     ',',
	"semicolon": ';',
	"tab":       '\t',
}

// EncodingNames are the charsets a roster file may declare. The file
// source implements decoding for exactly this set.
var EncodingNames = map[string]bool{
	"utf-8":        true,
	"iso-8859-1":   true,
	"windows-1252": true,
	"windows-874":  true,
	"tis-620":      true,
	"utf-16le":     true,
	"utf-16be":     true,
}

type StartRosterRefreshInput struct {
	CourseID      int64
	SourcePath    string
	Delimiter     string
	Encoding      string
	RoleID        int64
	MissingAction string
	AutoCreate    bool
	AutoWithdraw  bool
}

type StartRosterRefreshOutput struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type StartRosterRefresh interface {
	Execute(ctx context.Context, in StartRosterRefreshInput) (StartRosterRefreshOutput, error)
}

type refreshJobEnqueuer interface {
	Enqueue(ctx context.Context, courseID int64, opts domain.RefreshOptions) (string, error)
}

type startRosterRefresh struct {
	refreshJobRepo refreshJobEnqueuer
}

func NewStartRosterRefresh(refreshJobRepo refreshJobEnqueuer) StartRosterRefresh {
	return &startRosterRefresh{refreshJobRepo: refreshJobRepo}
}

func (uc *startRosterRefresh) Execute(ctx context.Context, in StartRosterRefreshInput) (StartRosterRefreshOutput, error) {
	opts, err := buildOptions(in)
	if err != nil {
		return StartRosterRefreshOutput{}, err
	}
	if in.CourseID <= 0 {
		return StartRosterRefreshOutput{}, ErrInvalidRefreshOption
	}

	jobID, err := uc.refreshJobRepo.Enqueue(ctx, in.CourseID, opts)
	if err != nil {
		return StartRosterRefreshOutput{}, fmt.Errorf("%w: %v", ErrEnqueueRefreshJob, err)
	}

	return StartRosterRefreshOutput{
		JobID:  jobID,
		Status: "queued",
	}, nil
}

func buildOptions(in StartRosterRefreshInput) (domain.RefreshOptions, error) {
	sourcePath := strings.TrimSpace(in.SourcePath)
	ext := strings.ToLower(filepath.Ext(sourcePath))
	if sourcePath == "" || (ext != ".csv" && ext != ".txt") {
		return domain.RefreshOptions{}, ErrInvalidRefreshSource
	}

	delimiter := in.Delimiter
	if delimiter == "" {
		delimiter = "comma"
	}
	if _, ok := DelimiterRunes[delimiter]; !ok {
		return domain.RefreshOptions{}, fmt.Errorf("%w: delimiter %q", ErrInvalidRefreshOption, in.Delimiter)
	}

	encoding := in.Encoding
	if encoding == "" {
		encoding = "UTF-8"
	}
	if !EncodingNames[strings.ToLower(encoding)] {
		return domain.RefreshOptions{}, fmt.Errorf("%w: encoding %q", ErrInvalidRefreshOption, in.Encoding)
	}

	action := domain.MissingAction(in.MissingAction)
	if in.MissingAction == "" {
		action = domain.MissingNone
	}
	if !action.Valid() {
		return domain.RefreshOptions{}, fmt.Errorf("%w: missing action %q", ErrInvalidRefreshOption, in.MissingAction)
	}
	if in.RoleID < 0 {
		return domain.RefreshOptions{}, fmt.Errorf("%w: role id %d", ErrInvalidRefreshOption, in.RoleID)
	}

	return domain.RefreshOptions{
		SourcePath: sourcePath,
		Delimiter:  delimiter,
		Encoding:   encoding,
		Enrollment: domain.EnrollmentPolicy{
			RoleID:        in.RoleID,
			MissingAction: action,
		},
		Groups: domain.GroupPolicy{
			AutoCreate:   in.AutoCreate,
			AutoWithdraw: in.AutoWithdraw,
		},
	}, nil
}
