package roster

// Stage names the phase of a run a diagnostic was raised in.
type Stage string

const (
	StageEnroll Stage = "enroll"
	StageGroup  Stage = "group"
)

// Diagnostic records one non-fatal per-item failure. The run keeps going;
// the diagnostic is reported on the RunResult.
type Diagnostic struct {
	UserID UserID
	Key    string
	Group  string
	Stage  Stage
	Reason string
}

// RunResult reports what one reconciliation run changed.
type RunResult struct {
	Enrolled           int64
	Suspended          int64
	Withdrawn          int64
	GroupsCreated      int64
	MembershipsAdded   int64
	MembershipsRemoved int64
	SkippedRows        int64
	Diagnostics        []Diagnostic
}
