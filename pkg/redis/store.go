package redis

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/autoslug"
)

// releaseScript deletes a reservation only if it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPrefix namespaces reservation keys.
// Default: "autoslug"
func WithPrefix(prefix string) StoreOption {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL expires reservations after d. Zero keeps them until released.
func WithTTL(d time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = d
	}
}

// Store keeps one key per reserved slug. The key encodes the model and
// every lookup of the query, so a reservation is only visible to queries
// with the same scope values. The value is the owner's primary key.
//
// Unlike a database, Redis cannot follow relations: a reservation made
// through "category.name" keeps the name it was made with.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ autoslug.Store = (*Store)(nil)

// NewStore creates a store on client.
func NewStore(client redis.UniversalClient, opts ...StoreOption) *Store {
	s := &Store{
		client: client,
		prefix: "autoslug",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the reservation key for q.
func (s *Store) Key(q autoslug.Query) string {
	v := make(url.Values, len(q.Lookups))
	for _, l := range q.Lookups {
		if l.IsNull {
			v.Add(l.Key(), "")
			continue
		}
		v.Add(l.Key(), formatValue(l.Value))
	}
	return s.prefix + ":" + q.Model + ":" + v.Encode()
}

// Exists reports whether the slug is reserved by someone other than q.Exclude.
func (s *Store) Exists(ctx context.Context, q autoslug.Query) (bool, error) {
	owner, err := s.client.Get(ctx, s.Key(q)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Join(ErrCommand, err)
	}
	return q.Exclude == nil || owner != formatValue(q.Exclude), nil
}

// Reserve claims the slug of q for owner atomically. Reserving a slug the
// owner already holds succeeds; one held by another owner fails with
// ErrSlugReserved.
func (s *Store) Reserve(ctx context.Context, q autoslug.Query, owner any) error {
	if owner == nil {
		return ErrNoOwner
	}

	key := s.Key(q)
	id := formatValue(owner)

	ok, err := s.client.SetNX(ctx, key, id, s.ttl).Result()
	if err != nil {
		return errors.Join(ErrCommand, err)
	}
	if ok {
		return nil
	}

	holder, err := s.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// Expired in between; try once more.
		if ok, err = s.client.SetNX(ctx, key, id, s.ttl).Result(); err != nil {
			return errors.Join(ErrCommand, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrSlugReserved, key)
		}
		return nil
	case err != nil:
		return errors.Join(ErrCommand, err)
	case holder == id:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrSlugReserved, key)
	}
}

// Release drops the reservation of q if owner holds it.
func (s *Store) Release(ctx context.Context, q autoslug.Query, owner any) error {
	n, err := releaseScript.Run(ctx, s.client, []string{s.Key(q)}, formatValue(owner)).Int()
	if err != nil {
		return errors.Join(ErrCommand, err)
	}
	if n == 0 {
		return ErrNotHolder
	}
	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
