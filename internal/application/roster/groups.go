package roster

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/classops/enrolsync/internal/domain/roster"
)

// reconcileGroups ensures membership for every (user, requested group)
// pair and, when auto-withdraw is on, removes memberships the roster does
// not list. Users left unenrolled by the enrollment phase are skipped.
// The auto-withdraw pass queries current memberships after the adds so a
// membership added in this run is never removed by it.
func (r *Reconciler) reconcileGroups(ctx context.Context, parsed domain.Roster, policy domain.GroupPolicy, result *domain.RunResult) error {
	for _, uid := range sortedUserIDs(parsed) {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry := parsed[uid]

		enrolled, err := r.enrollment.IsEnrolled(ctx, uid)
		if err != nil {
			return fmt.Errorf("check enrollment for user %d: %w", uid, err)
		}
		if !enrolled {
			continue
		}

		for _, name := range entry.Groups {
			if err := r.ensureMembership(ctx, entry, name, policy, result); err != nil {
				return err
			}
		}

		if !policy.AutoWithdraw {
			continue
		}

		current, err := r.groups.CurrentGroups(ctx, uid)
		if err != nil {
			return fmt.Errorf("current groups for user %d: %w", uid, err)
		}
		for _, membership := range current {
			if entry.HasGroup(membership.Name) {
				continue
			}
			if err := r.groups.RemoveMember(ctx, membership.GroupID, uid); err != nil {
				addDiagnostic(result, domain.Diagnostic{
					UserID: uid,
					Key:    entry.Key,
					Group:  membership.Name,
					Stage:  domain.StageGroup,
					Reason: fmt.Sprintf("remove member: %v", err),
				})
				continue
			}
			result.MembershipsRemoved++
		}
	}

	return nil
}

func (r *Reconciler) ensureMembership(ctx context.Context, entry *domain.Entry, name string, policy domain.GroupPolicy, result *domain.RunResult) error {
	gid, err := r.groups.GroupExists(ctx, name)
	if errors.Is(err, domain.ErrGroupNotFound) {
		if !policy.AutoCreate {
			return nil
		}
		gid, err = r.groups.CreateGroup(ctx, name)
		if err != nil {
			addDiagnostic(result, domain.Diagnostic{
				UserID: entry.UserID,
				Key:    entry.Key,
				Group:  name,
				Stage:  domain.StageGroup,
				Reason: fmt.Sprintf("create group: %v", err),
			})
			return nil
		}
		result.GroupsCreated++
	} else if err != nil {
		return fmt.Errorf("look up group %q: %w", name, err)
	}

	member, err := r.groups.IsMember(ctx, gid, entry.UserID)
	if err != nil {
		return fmt.Errorf("check membership of group %q: %w", name, err)
	}
	if member {
		return nil
	}

	if err := r.groups.AddMember(ctx, gid, entry.UserID); err != nil {
		addDiagnostic(result, domain.Diagnostic{
			UserID: entry.UserID,
			Key:    entry.Key,
			Group:  name,
			Stage:  domain.StageGroup,
			Reason: fmt.Sprintf("add member: %v", err),
		})
		return nil
	}
	result.MembershipsAdded++
	return nil
}
