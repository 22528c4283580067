package pseudocap

import "errors"

var (
	// ErrFileCount is returned when a build names fewer than 1 or more than 6 signed files.
	ErrFileCount = errors.New("pseudocap: between 1 and 6 signed files are required")

	// ErrNoMatch is returned when a signed file pattern matches nothing.
	ErrNoMatch = errors.New("pseudocap: no file matches pattern")

	// ErrAmbiguousMatch is returned when a signed file pattern matches more than one file.
	ErrAmbiguousMatch = errors.New("pseudocap: pattern matches multiple files")

	// ErrStubNotFound is returned when no bootstrap stub could be located.
	ErrStubNotFound = errors.New("pseudocap: cap stub not found")
)
