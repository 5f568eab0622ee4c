package autoslug

import "context"

// Query asks whether any record of Model, other than the one identified by
// Exclude, satisfies all Lookups. The slug itself is the last lookup.
type Query struct {
	// Exclude is the primary key of the record being saved, nil when it
	// has not been persisted yet.
	Exclude any
	// Model is the record's model or its slug space.
	Model string
	// Origin is the model of the record being saved. In a shared slug
	// space Exclude only applies to records of Origin.
	Origin  string
	Lookups []Lookup
}

// Store answers existence queries against persisted records.
type Store interface {
	Exists(ctx context.Context, q Query) (bool, error)
}

// StoreFunc adapts a function to the Store interface.
type StoreFunc func(ctx context.Context, q Query) (bool, error)

func (f StoreFunc) Exists(ctx context.Context, q Query) (bool, error) {
	return f(ctx, q)
}
