package repository

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/classops/enrolsync/internal/domain/roster"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GroupRepository is the group store scoped to one course.
type GroupRepository struct {
	pool     *pgxpool.Pool
	courseID int64
}

func NewGroupRepository(pool *pgxpool.Pool, courseID int64) *GroupRepository {
	return &GroupRepository{pool: pool, courseID: courseID}
}

func (r *GroupRepository) GroupExists(ctx context.Context, name string) (domain.GroupID, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		"SELECT id FROM groups WHERE course_id = $1 AND name = $2",
		r.courseID, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrGroupNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("look up group %q: %w", name, err)
	}
	return domain.GroupID(id), nil
}

func (r *GroupRepository) CreateGroup(ctx context.Context, name string) (domain.GroupID, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO groups (course_id, name, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW())
RETURNING id
`, r.courseID, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create group %q: %w", name, err)
	}
	return domain.GroupID(id), nil
}

func (r *GroupRepository) IsMember(ctx context.Context, gid domain.GroupID, uid domain.UserID) (bool, error) {
	var member bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)",
		int64(gid), int64(uid)).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return member, nil
}

func (r *GroupRepository) AddMember(ctx context.Context, gid domain.GroupID, uid domain.UserID) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO group_members (group_id, user_id, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (group_id, user_id) DO NOTHING
`, int64(gid), int64(uid))
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (r *GroupRepository) RemoveMember(ctx context.Context, gid domain.GroupID, uid domain.UserID) error {
	_, err := r.pool.Exec(ctx,
		"DELETE FROM group_members WHERE group_id = $1 AND user_id = $2",
		int64(gid), int64(uid))
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (r *GroupRepository) CurrentGroups(ctx context.Context, uid domain.UserID) ([]domain.Membership, error) {
	rows, err := r.pool.Query(ctx, `
SELECT g.id, g.name
FROM groups g
JOIN group_members gm ON gm.group_id = g.id
WHERE gm.user_id = $1 AND g.course_id = $2
ORDER BY g.name
`, int64(uid), r.courseID)
	if err != nil {
		return nil, fmt.Errorf("current groups: %w", err)
	}
	defer rows.Close()

	var memberships []domain.Membership
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, domain.Membership{
			GroupID: domain.GroupID(id),
			Name:    name,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read memberships: %w", err)
	}

	return memberships, nil
}
