package db

import "errors"

var (
	ErrFailedToParseDBConfig    = errors.New("db: failed to parse database configuration")
	ErrFailedToOpenDBConnection = errors.New("db: failed to open database connection")
	ErrHealthcheckFailed        = errors.New("db: healthcheck failed")
	ErrSetDialect               = errors.New("db migrator: failed to set dialect")
	ErrApplyMigrations          = errors.New("db migrator: failed to apply migrations")

	ErrUnknownTable    = errors.New("db: no table registered for model")
	ErrUnknownRelation = errors.New("db: lookup follows an undeclared relation")
	ErrUnsavedRelation = errors.New("db: related record has no primary key")
	ErrQueryFailed     = errors.New("db: slug query failed")

	// ErrDuplicateSlug is returned by Insert when a unique index rejects the row.
	ErrDuplicateSlug = errors.New("db: slug already taken")
)
