package types

import "errors"

// Entity operation errors.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidID         = errors.New("invalid entity ID")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidValue      = errors.New("invalid cell value")
	ErrInvalidColumnType = errors.New("invalid column type")
	ErrInvalidOperator   = errors.New("invalid filter operator")
	ErrInvalidDirection  = errors.New("invalid sort direction")
	ErrInvalidCount      = errors.New("row count must be positive")
	ErrPrimaryColumn     = errors.New("the primary column cannot be deleted")
	ErrLastTable         = errors.New("the last table of a base cannot be deleted")
	ErrLastView          = errors.New("the last view of a table cannot be deleted")
	ErrTemporaryID       = errors.New("entity is not confirmed by the store")
)

// Backend lifecycle errors.
var (
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)
