package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/autoslug"
	"github.com/dmitrymomot/autoslug/internal/schema"
	"github.com/dmitrymomot/autoslug/pkg/db"
	"github.com/dmitrymomot/autoslug/pkg/health"
	"github.com/dmitrymomot/autoslug/pkg/memstore"
	"github.com/dmitrymomot/autoslug/pkg/redis"
)

// backend is a store plus the way records are persisted to it.
type backend interface {
	Store() autoslug.Store
	Checks() health.Checks
	// Save computes the slug of rec and persists rec with it.
	Save(ctx context.Context, field *autoslug.Field, rec *autoslug.MapRecord) (string, error)
	Close(ctx context.Context) error
}

type backendOptions struct {
	catalog *schema.Catalog
	log     *slog.Logger
	migrate bool
}

func openBackend(ctx context.Context, name string, opts backendOptions) (backend, error) {
	switch name {
	case backendMemory:
		memOpts := []memstore.Option{memstore.WithLocation(opts.catalog.Location())}
		for space, models := range opts.catalog.Spaces() {
			memOpts = append(memOpts, memstore.ShareSpace(space, models...))
		}
		return &memoryBackend{store: memstore.New(memOpts...)}, nil
	case backendPostgres:
		return openPostgres(ctx, opts)
	case backendRedis:
		return openRedis(ctx)
	default:
		return nil, fmt.Errorf("unknown backend %q, expected %s, %s or %s", name, backendMemory, backendPostgres, backendRedis)
	}
}

// assign computes the slug of rec and stores it on rec. Empty slugs of
// nullable fields are stored as nil.
func assign(ctx context.Context, field *autoslug.Field, rec *autoslug.MapRecord) (string, error) {
	s, err := field.Compute(ctx, rec)
	if err != nil {
		return "", err
	}
	if s == "" && field.Nullable() {
		rec.Set(field.Attribute(), nil)
	} else {
		rec.Set(field.Attribute(), s)
	}
	return s, nil
}

type memoryBackend struct {
	store *memstore.Store
}

func (b *memoryBackend) Store() autoslug.Store { return b.store }
func (b *memoryBackend) Checks() health.Checks { return nil }
func (b *memoryBackend) Close(context.Context) error {
	return nil
}

func (b *memoryBackend) Save(ctx context.Context, field *autoslug.Field, rec *autoslug.MapRecord) (string, error) {
	s, err := assign(ctx, field, rec)
	if err != nil {
		return "", err
	}

	var guards []autoslug.Query
	if s != "" && field.Uniqueness() {
		q, err := field.Query(rec, s)
		if err != nil {
			return "", err
		}
		guards = append(guards, q)
	}
	if err := b.store.Save(ctx, rec, guards...); err != nil {
		return "", err
	}
	return s, nil
}

type postgresBackend struct {
	pool  *pgxpool.Pool
	store *db.Store
}

func openPostgres(ctx context.Context, opts backendOptions) (*postgresBackend, error) {
	cfg, err := parseEnv[db.Config]()
	if err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if opts.migrate {
		if err := db.Migrate(ctx, pool, os.DirFS(cfg.MigrationsPath), cfg.MigrationsTable, opts.log); err != nil {
			pool.Close()
			return nil, err
		}
	}

	var storeOpts []db.StoreOption
	switch {
	case cfg.TimeZone != "":
		storeOpts = append(storeOpts, db.WithTimeZone(cfg.TimeZone))
	case opts.catalog.Location() != nil:
		storeOpts = append(storeOpts, db.WithTimeZone(opts.catalog.Location().String()))
	}
	for space, models := range opts.catalog.Spaces() {
		storeOpts = append(storeOpts, db.WithSlugSpace(space, models...))
	}

	return &postgresBackend{
		pool:  pool,
		store: db.NewStore(pool, opts.catalog.Tables(), storeOpts...),
	}, nil
}

func (b *postgresBackend) Store() autoslug.Store { return b.store }
func (b *postgresBackend) Checks() health.Checks {
	return health.Checks{backendPostgres: db.Healthcheck(b.pool)}
}
func (b *postgresBackend) Close(ctx context.Context) error {
	return db.Shutdown(b.pool)(ctx)
}

// Save serializes writers of the field's slug space with an advisory lock,
// so the slug computed inside the transaction is still free at insert time.
func (b *postgresBackend) Save(ctx context.Context, field *autoslug.Field, rec *autoslug.MapRecord) (string, error) {
	var s string
	err := db.WithTx(ctx, b.pool, func(tx pgx.Tx) error {
		if err := db.LockSlugSpace(ctx, tx, field.Space(rec)); err != nil {
			return err
		}
		var err error
		if s, err = assign(ctx, field, rec); err != nil {
			return err
		}
		return b.store.WithQuerier(tx).Insert(ctx, rec)
	})
	return s, err
}

type redisBackend struct {
	client goredis.UniversalClient
	store  *redis.Store
}

func openRedis(ctx context.Context) (*redisBackend, error) {
	cfg, err := parseEnv[redis.Config]()
	if err != nil {
		return nil, err
	}

	client, err := redis.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &redisBackend{
		client: client,
		store:  redis.NewStore(client, redis.WithPrefix(cfg.Prefix), redis.WithTTL(cfg.ReservationTTL)),
	}, nil
}

func (b *redisBackend) Store() autoslug.Store { return b.store }
func (b *redisBackend) Checks() health.Checks {
	return health.Checks{backendRedis: redis.Healthcheck(b.client)}
}
func (b *redisBackend) Close(ctx context.Context) error {
	return redis.Shutdown(b.client)(ctx)
}

// Save reserves the computed slug under a fresh record id.
func (b *redisBackend) Save(ctx context.Context, field *autoslug.Field, rec *autoslug.MapRecord) (string, error) {
	if rec.ID == nil {
		rec.ID = uuid.NewString()
	}

	s, err := assign(ctx, field, rec)
	if err != nil {
		return "", err
	}
	if s == "" {
		return s, nil
	}

	q, err := field.Query(rec, s)
	if err != nil {
		return "", err
	}
	if err := b.store.Reserve(ctx, q, rec.ID); err != nil {
		return "", err
	}
	return s, nil
}

// isConflict reports whether err means another writer took the slug first.
func isConflict(err error) bool {
	return errors.Is(err, memstore.ErrDuplicateSlug) ||
		errors.Is(err, db.ErrDuplicateSlug) ||
		errors.Is(err, redis.ErrSlugReserved)
}
