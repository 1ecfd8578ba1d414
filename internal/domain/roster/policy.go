package roster

// MissingAction is applied to tracked-role holders absent from the roster.
type MissingAction string

const (
	MissingNone     MissingAction = "none"
	MissingSuspend  MissingAction = "suspend"
	MissingWithdraw MissingAction = "withdraw"
)

// Valid reports whether a is one of the recognized actions.
func (a MissingAction) Valid() bool {
	switch a {
	case MissingNone, MissingSuspend, MissingWithdraw:
		return true
	}
	return false
}

// EnrollmentPolicy controls the enrollment phase of a run.
// RoleID 0 means new users are not enrolled.
type EnrollmentPolicy struct {
	RoleID        int64
	MissingAction MissingAction
}

// GroupPolicy controls the group phase of a run.
type GroupPolicy struct {
	AutoCreate   bool
	AutoWithdraw bool
}
