package autoslug

import "errors"

var (
	// Configuration errors. They point at a field declaration that has to be
	// fixed by the developer and are never worth retrying.
	ErrInvalidOption      = errors.New("autoslug: invalid field option")
	ErrNoStore            = errors.New("autoslug: uniqueness requires a store")
	ErrInvalidScope       = errors.New("autoslug: invalid scope constraint")
	ErrUnknownAttribute   = errors.New("autoslug: scope constraint references an unknown attribute")
	ErrSelfReference      = errors.New("autoslug: scope constraint references the slug attribute itself")
	ErrDateNesting        = errors.New("autoslug: date scope constraints accept only one level of nesting")
	ErrGranularity        = errors.New("autoslug: unsupported date granularity")
	ErrUnresolvableLookup = errors.New("autoslug: nested scope constraint does not resolve to a record")

	// ErrEmptyDependency is returned when a scoping attribute is empty and
	// not allowed to be.
	ErrEmptyDependency = errors.New("autoslug: scoping attribute is empty")

	// ErrPopulate is returned when the populate expression fails on a record.
	ErrPopulate = errors.New("autoslug: failed to evaluate populate source")

	// ErrStore wraps failures reported by the Store.
	ErrStore = errors.New("autoslug: store query failed")
)
