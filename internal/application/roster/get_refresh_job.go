package roster

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	domain "github.com/classops/enrolsync/internal/domain/roster"
)

var jobIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

type GetRefreshJobInput struct {
	ID string
}

type RefreshDiagnosticOutput struct {
	UserID int64  `json:"user_id"`
	Key    string `json:"key,omitempty"`
	Group  string `json:"group,omitempty"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

type RefreshResultOutput struct {
	Enrolled           int64                     `json:"enrolled"`
	Suspended          int64                     `json:"suspended"`
	Withdrawn          int64                     `json:"withdrawn"`
	GroupsCreated      int64                     `json:"groups_created"`
	MembershipsAdded   int64                     `json:"memberships_added"`
	MembershipsRemoved int64                     `json:"memberships_removed"`
	SkippedRows        int64                     `json:"skipped_rows"`
	Diagnostics        []RefreshDiagnosticOutput `json:"diagnostics,omitempty"`
}

type GetRefreshJobOutput struct {
	ID       string               `json:"id"`
	CourseID int64                `json:"course_id"`
	Status   string               `json:"status"`
	Error    string               `json:"error,omitempty"`
	Result   *RefreshResultOutput `json:"result,omitempty"`
}

type GetRefreshJob interface {
	Execute(ctx context.Context, in GetRefreshJobInput) (GetRefreshJobOutput, error)
}

type refreshJobGetter interface {
	GetByID(ctx context.Context, jobID string) (*domain.RefreshJob, error)
}

type getRefreshJob struct {
	repo refreshJobGetter
}

func NewGetRefreshJob(repo refreshJobGetter) GetRefreshJob {
	return &getRefreshJob{repo: repo}
}

func (uc *getRefreshJob) Execute(ctx context.Context, in GetRefreshJobInput) (GetRefreshJobOutput, error) {
	if !jobIDPattern.MatchString(in.ID) {
		return GetRefreshJobOutput{}, ErrInvalidJobID
	}

	job, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return GetRefreshJobOutput{}, ErrJobNotFound
		}
		return GetRefreshJobOutput{}, fmt.Errorf("%w: %v", ErrGetRefreshJob, err)
	}

	out := GetRefreshJobOutput{
		ID:       job.ID,
		CourseID: job.CourseID,
		Status:   job.Status,
		Error:    job.Error,
	}
	if job.Result != nil {
		out.Result = resultOutput(job.Result)
	}

	return out, nil
}

func resultOutput(result *domain.RunResult) *RefreshResultOutput {
	diagnostics := make([]RefreshDiagnosticOutput, 0, len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		diagnostics = append(diagnostics, RefreshDiagnosticOutput{
			UserID: int64(d.UserID),
			Key:    d.Key,
			Group:  d.Group,
			Stage:  string(d.Stage),
			Reason: d.Reason,
		})
	}

	return &RefreshResultOutput{
		Enrolled:           result.Enrolled,
		Suspended:          result.Suspended,
		Withdrawn:          result.Withdrawn,
		GroupsCreated:      result.GroupsCreated,
		MembershipsAdded:   result.MembershipsAdded,
		MembershipsRemoved: result.MembershipsRemoved,
		SkippedRows:        result.SkippedRows,
		Diagnostics:        diagnostics,
	}
}
