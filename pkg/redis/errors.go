package redis

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")
	ErrFailedToParseURL   = errors.New("redis: failed to parse connection URL")
	ErrConnectionFailed   = errors.New("redis: failed to establish connection")
	ErrHealthcheckFailed  = errors.New("redis: healthcheck failed")

	ErrNoOwner   = errors.New("redis: reservation needs an owner")
	ErrCommand   = errors.New("redis: command failed")
	ErrNotHolder = errors.New("redis: reservation is held by another owner")

	// ErrSlugReserved is returned by Reserve when another owner holds the slug.
	ErrSlugReserved = errors.New("redis: slug already reserved")
)
