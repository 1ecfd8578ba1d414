package roster

import "context"

// Directory resolves identity keys against the host's user records.
// A miss is reported as ErrUnknownIdentity; any other error is systemic.
type Directory interface {
	ResolveIdentity(ctx context.Context, variant KeyVariant, value string) (UserID, error)
}

// Enrollee is one enrolled holder of a role.
type Enrollee struct {
	UserID    UserID
	Suspended bool
}

// EnrollmentStore is the host's enrollment state for one course.
// ListEnrolledWithRole reports every holder of the role, suspended ones
// included, so a withdraw run still unenrolls users a previous suspend
// run parked.
type EnrollmentStore interface {
	IsEnrolled(ctx context.Context, uid UserID) (bool, error)
	Enroll(ctx context.Context, uid UserID, roleID int64) error
	ListEnrolledWithRole(ctx context.Context, roleShortname string) ([]Enrollee, error)
	Suspend(ctx context.Context, uid UserID) error
	Unenroll(ctx context.Context, uid UserID) error
}

// Membership is one of a user's current group memberships.
type Membership struct {
	GroupID GroupID
	Name    string
}

// GroupStore is the host's group state for one course.
// GroupExists reports ErrGroupNotFound on a miss; CreateGroup returns the
// new group's id.
type GroupStore interface {
	GroupExists(ctx context.Context, name string) (GroupID, error)
	CreateGroup(ctx context.Context, name string) (GroupID, error)
	IsMember(ctx context.Context, gid GroupID, uid UserID) (bool, error)
	AddMember(ctx context.Context, gid GroupID, uid UserID) error
	RemoveMember(ctx context.Context, gid GroupID, uid UserID) error
	CurrentGroups(ctx context.Context, uid UserID) ([]Membership, error)
}

// RefreshJobRepository is the queue of pending reconciliations.
type RefreshJobRepository interface {
	Enqueue(ctx context.Context, courseID int64, opts RefreshOptions) (string, error)
}
