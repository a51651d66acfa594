package queue

import "errors"

var (
	// ErrJobNotFound is returned when a job id does not exist.
	ErrJobNotFound = errors.New("job not found")
	// ErrFolderNotFound is returned when a folder id does not exist.
	ErrFolderNotFound = errors.New("folder not found")
	// ErrDuplicateFolder is returned when registering a path that is already monitored.
	ErrDuplicateFolder = errors.New("folder already registered")
	// ErrInvalidTransition is returned when a job is not in the status a transition requires.
	ErrInvalidTransition = errors.New("invalid job status transition")
)
