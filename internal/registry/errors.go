package registry

import "errors"

// Sentinel errors returned by registry operations. Wrapped with the
// offending name or path; match with errors.Is.
var (
	// ErrNotFound means no loaded file matches the given name.
	ErrNotFound = errors.New("file not loaded")

	// ErrDuplicateName means an explicitly suggested table name is taken.
	ErrDuplicateName = errors.New("table name already in use")

	// ErrUnsupportedFormat means the file extension maps to no known format.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoSupportedFiles means a directory contains no loadable files.
	ErrNoSupportedFiles = errors.New("no supported files in directory")

	// ErrMixedFormats means a directory mixes file formats; a directory
	// loads as one table and needs a single format.
	ErrMixedFormats = errors.New("directory contains mixed file formats")
)
