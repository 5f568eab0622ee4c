// Package db stores slugged records in PostgreSQL.
//
// It wraps [github.com/jackc/pgx/v5/pgxpool] for connection pooling and
// [github.com/pressly/goose/v3] for migrations, and provides [Store], an
// autoslug.Store answering existence queries with one EXISTS statement.
//
// # Configuration
//
// [Config] is loaded from environment variables:
//
//	DATABASE_CONN_URL           - PostgreSQL connection URL (required)
//	DATABASE_MIGRATIONS_PATH    - Migrations directory (default: migrations)
//	DATABASE_MIGRATIONS_TABLE   - Migrations table name (default: schema_migrations)
//	DATABASE_TIME_ZONE          - Zone for date part lookups (default: session zone)
//	DATABASE_MAX_OPEN_CONNS     - Maximum open connections (default: 10)
//	DATABASE_MIN_CONNS          - Minimum idle connections (default: 1)
//	DATABASE_HEALTHCHECK_PERIOD - Health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - Maximum connection idle time (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - Maximum connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - Connection retry attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - Base retry interval (default: 5s)
//
// # Usage
//
//	pool, err := db.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	store := db.NewStore(pool, []db.Table{
//		{
//			Model:     "article",
//			Name:      "articles",
//			Relations: map[string]db.Relation{"category": {Column: "category_id", Model: "category"}},
//		},
//		{Model: "category", Name: "categories"},
//	})
//
//	field, err := autoslug.New("slug",
//		autoslug.PopulateFrom("title"),
//		autoslug.UniqueWith("category"),
//		autoslug.WithStore(store),
//	)
//
// # Concurrent writers
//
// Slug resolution reads before it writes. Back the slug with a unique index
// and either retry on [ErrDuplicateSlug] or serialize writers of one slug
// space with [LockSlugSpace] inside [WithTx]:
//
//	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
//		if err := db.LockSlugSpace(ctx, tx, "article"); err != nil {
//			return err
//		}
//		s, err := field.Compute(ctx, rec)
//		if err != nil {
//			return err
//		}
//		rec.Set("slug", s)
//		return store.WithQuerier(tx).Insert(ctx, rec)
//	})
//
// # Error Handling
//
// Errors are package sentinels joined with the cause through [errors.Join]:
//
//   - [ErrFailedToParseDBConfig] - Invalid connection string format
//   - [ErrFailedToOpenDBConnection] - Connection failed after all retries
//   - [ErrHealthcheckFailed] - Database ping failed
//   - [ErrApplyMigrations] - Migration execution failed
//   - [ErrUnknownTable], [ErrUnknownRelation] - Query references an unmapped model
//   - [ErrDuplicateSlug] - Insert rejected by a unique index
package db
