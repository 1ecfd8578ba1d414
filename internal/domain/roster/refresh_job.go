package roster

// RefreshOptions is everything a queued run needs besides the course.
type RefreshOptions struct {
	SourcePath string
	Delimiter  string
	Encoding   string
	Enrollment EnrollmentPolicy
	Groups     GroupPolicy
}

// RefreshJob is one queued or running reconciliation for a course.
type RefreshJob struct {
	ID          string
	CourseID    int64
	Options     RefreshOptions
	Status      string
	Attempts    int
	MaxAttempts int
	Error       string
	Result      *RunResult
}
