package memstore

import "errors"

var (
	// ErrDuplicateSlug is returned by Save when another record already
	// matches one of the uniqueness guards.
	ErrDuplicateSlug = errors.New("memstore: duplicate slug")

	// ErrNilRecord is returned by Save for a nil record.
	ErrNilRecord = errors.New("memstore: nil record")
)
