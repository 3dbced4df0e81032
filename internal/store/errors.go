package store

import "github.com/macarvajall/OFAC/internal/errors"

// Sentinel errors returned by store operations.
var (
	ErrNotFound      = errors.ErrNotFound
	ErrAlreadyExists = errors.ErrAlreadyExists
)
