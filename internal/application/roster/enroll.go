package roster

import (
	"context"
	"fmt"
	"sort"

	domain "github.com/classops/enrolsync/internal/domain/roster"
)

// reconcileEnrollments enrolls roster users missing from the course, then
// applies the missing-identity policy to tracked-role holders absent from
// the roster. Enrollment failures on one user never stop the others.
func (r *Reconciler) reconcileEnrollments(ctx context.Context, parsed domain.Roster, policy domain.EnrollmentPolicy, result *domain.RunResult) error {
	if policy.RoleID > 0 {
		for _, uid := range sortedUserIDs(parsed) {
			if err := ctx.Err(); err != nil {
				return err
			}

			enrolled, err := r.enrollment.IsEnrolled(ctx, uid)
			if err != nil {
				return fmt.Errorf("check enrollment for user %d: %w", uid, err)
			}
			if enrolled {
				continue
			}

			if err := r.enrollment.Enroll(ctx, uid, policy.RoleID); err != nil {
				addDiagnostic(result, domain.Diagnostic{
					UserID: uid,
					Key:    parsed[uid].Key,
					Stage:  domain.StageEnroll,
					Reason: fmt.Sprintf("enroll: %v", err),
				})
				continue
			}
			result.Enrolled++
		}
	}

	if policy.MissingAction == domain.MissingNone || policy.MissingAction == "" {
		return nil
	}

	enrolled, err := r.enrollment.ListEnrolledWithRole(ctx, r.trackedRole)
	if err != nil {
		return fmt.Errorf("list %s enrollments: %w", r.trackedRole, err)
	}
	sort.Slice(enrolled, func(i, j int) bool { return enrolled[i].UserID < enrolled[j].UserID })

	for _, holder := range enrolled {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, listed := parsed[holder.UserID]; listed {
			continue
		}

		if policy.MissingAction == domain.MissingSuspend {
			if holder.Suspended {
				continue
			}
			if err := r.enrollment.Suspend(ctx, holder.UserID); err != nil {
				addDiagnostic(result, domain.Diagnostic{
					UserID: holder.UserID,
					Stage:  domain.StageEnroll,
					Reason: fmt.Sprintf("suspend: %v", err),
				})
				continue
			}
			result.Suspended++
			continue
		}

		if err := r.enrollment.Unenroll(ctx, holder.UserID); err != nil {
			addDiagnostic(result, domain.Diagnostic{
				UserID: holder.UserID,
				Stage:  domain.StageEnroll,
				Reason: fmt.Sprintf("unenroll: %v", err),
			})
			continue
		}
		result.Withdrawn++
	}

	return nil
}
