package roster

import (
	"context"
	"sort"

	domain "github.com/classops/enrolsync/internal/domain/roster"
)

const maxStoredDiagnostics = 100

// DefaultTrackedRole is the role whose holders are subject to the
// missing-identity policy.
const DefaultTrackedRole = "student"

// ReconcileInput carries one run's parsed-input source and policies.
type ReconcileInput struct {
	Header     []string
	Rows       RowReader
	Enrollment domain.EnrollmentPolicy
	Groups     domain.GroupPolicy
}

// Reconciler applies one full roster snapshot to a course. The enrollment
// and group stores are scoped to that course by their constructors.
type Reconciler struct {
	directory   domain.Directory
	enrollment  domain.EnrollmentStore
	groups      domain.GroupStore
	trackedRole string
}

func NewReconciler(directory domain.Directory, enrollment domain.EnrollmentStore, groups domain.GroupStore) *Reconciler {
	return &Reconciler{
		directory:   directory,
		enrollment:  enrollment,
		groups:      groups,
		trackedRole: DefaultTrackedRole,
	}
}

// Execute validates the header, builds the roster and runs the enrollment
// phase before the group phase. Fatal errors abort before any mutation;
// per-user mutation failures become diagnostics on the result and do not
// stop the run.
func (r *Reconciler) Execute(ctx context.Context, in ReconcileInput) (domain.RunResult, error) {
	result := domain.RunResult{}

	mapping, variant, err := domain.ValidateColumns(in.Header)
	if err != nil {
		return result, err
	}

	parsed, skipped, err := ParseRoster(ctx, mapping, variant, in.Rows, r.directory)
	if err != nil {
		return result, err
	}
	result.SkippedRows = skipped

	if err := r.reconcileEnrollments(ctx, parsed, in.Enrollment, &result); err != nil {
		return result, err
	}
	if err := r.reconcileGroups(ctx, parsed, in.Groups, &result); err != nil {
		return result, err
	}

	return result, nil
}

func addDiagnostic(result *domain.RunResult, d domain.Diagnostic) {
	if len(result.Diagnostics) < maxStoredDiagnostics {
		result.Diagnostics = append(result.Diagnostics, d)
	}
}

// sortedUserIDs fixes the per-user processing order so repeated runs and
// their diagnostics come out the same way.
func sortedUserIDs(r domain.Roster) []domain.UserID {
	ids := make([]domain.UserID, 0, len(r))
	for uid := range r {
		ids = append(ids, uid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
