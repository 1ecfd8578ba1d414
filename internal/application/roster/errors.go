package roster

import "errors"

var (
	ErrInvalidRefreshSource = errors.New("invalid refresh source")
	ErrInvalidRefreshOption = errors.New("invalid refresh option")
	ErrEnqueueRefreshJob    = errors.New("failed to enqueue refresh job")
	ErrInvalidJobID         = errors.New("invalid refresh job id")
	ErrJobNotFound          = errors.New("refresh job not found")
	ErrGetRefreshJob        = errors.New("failed to get refresh job")
)
