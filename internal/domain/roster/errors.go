package roster

import "errors"

var (
	ErrEmptyFile          = errors.New("csv file has no header row")
	ErrWrongColumnCount   = errors.New("csv header must have exactly two columns")
	ErrUnrecognizedColumn = errors.New("unrecognized column name")
	ErrDuplicateColumn    = errors.New("duplicate column name")
	ErrMissingGroupColumn = errors.New("csv header has no group column")

	ErrInputUnreadable = errors.New("csv content is unreadable")
	ErrEmptyRoster     = errors.New("no csv row matched a known user")

	ErrUnknownIdentity = errors.New("identity key matches no known user")
	ErrGroupNotFound   = errors.New("group not found")
	ErrJobNotFound     = errors.New("refresh job not found")
)
