package schema

import "errors"

var (
	ErrInvalidFile  = errors.New("schema: invalid schema file")
	ErrInvalidModel = errors.New("schema: invalid model declaration")
	ErrUnknownModel = errors.New("schema: unknown model")
	ErrInvalidValue = errors.New("schema: invalid attribute value")
)
