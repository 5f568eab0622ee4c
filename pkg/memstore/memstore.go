// Package memstore keeps records in memory and answers autoslug existence
// queries by matching lookups against them.
//
// It is meant for tests, command line dry runs and single-process tools.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/autoslug"
)

// Option configures a Store.
type Option func(*Store)

// WithLocation converts date values to loc before date part lookups are
// matched. Use the same location as the field.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		s.loc = loc
	}
}

// ShareSpace makes records of the given models visible to queries against
// space, mirroring autoslug.SlugSpace.
func ShareSpace(space string, models ...string) Option {
	return func(s *Store) {
		for _, m := range models {
			s.spaces[m] = space
		}
	}
}

// Store is an in-memory record store.
// Records are kept in insertion order per model.
type Store struct {
	records map[string][]*autoslug.MapRecord
	spaces  map[string]string
	loc     *time.Location
	mu      sync.RWMutex
}

var _ autoslug.Store = (*Store)(nil)

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		records: make(map[string][]*autoslug.MapRecord),
		spaces:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exists reports whether a record other than q.Exclude matches all lookups.
func (s *Store) Exists(_ context.Context, q autoslug.Query) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.exists(q), nil
}

func (s *Store) exists(q autoslug.Query) bool {
	for model, recs := range s.records {
		if model != q.Model && s.spaces[model] != q.Model {
			continue
		}
		for _, rec := range recs {
			if q.Exclude != nil && rec.ID == q.Exclude && (q.Origin == "" || model == q.Origin) {
				continue
			}
			if s.match(rec, q.Lookups) {
				return true
			}
		}
	}
	return false
}

func (s *Store) match(rec *autoslug.MapRecord, lookups []autoslug.Lookup) bool {
	for _, l := range lookups {
		if !l.Match(rec, s.loc) {
			return false
		}
	}
	return true
}

// Save inserts or replaces rec. A record without ID gets a random UUID.
// Each guard is checked first and Save fails with ErrDuplicateSlug if
// another record already satisfies it, the way a unique index would.
// The store keeps a copy, so later changes to rec are not visible until
// it is saved again.
func (s *Store) Save(_ context.Context, rec *autoslug.MapRecord, guards ...autoslug.Query) error {
	if rec == nil {
		return ErrNilRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == nil {
		rec.ID = uuid.New()
	}
	for _, g := range guards {
		g.Exclude, g.Origin = rec.ID, rec.Model()
		if s.exists(g) {
			return ErrDuplicateSlug
		}
	}

	model := rec.Model()
	snapshot := rec.Clone()
	recs := s.records[model]
	if i := slices.IndexFunc(recs, func(r *autoslug.MapRecord) bool { return r.ID == rec.ID }); i >= 0 {
		recs[i] = snapshot
		return nil
	}
	s.records[model] = append(recs, snapshot)
	return nil
}

// Get returns a copy of the record of model with the given id.
func (s *Store) Get(model string, id any) (*autoslug.MapRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records[model] {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return nil, false
}

// All returns copies of the records of model in insertion order.
func (s *Store) All(model string) []*autoslug.MapRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*autoslug.MapRecord, 0, len(s.records[model]))
	for _, r := range s.records[model] {
		out = append(out, r.Clone())
	}
	return out
}

// Len returns the number of stored records of model.
func (s *Store) Len(model string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records[model])
}
