package types

import "context"

// Catalog manages bases, tables and saved views.
type Catalog interface {
	CreateBase(ctx context.Context, name string) (*Base, error)
	ListBases(ctx context.Context) ([]Base, error)
	DeleteBase(ctx context.Context, baseID string) error

	// CreateTable adds a table to a base, seeded with a primary column and a
	// default view.
	CreateTable(ctx context.Context, baseID, name string) (*Table, error)
	RenameTable(ctx context.Context, tableID, name string) (*Table, error)

	// DeleteTable returns ErrLastTable when the table is the only one left
	// in its base.
	DeleteTable(ctx context.Context, baseID, tableID string) error

	CreateView(ctx context.Context, tableID, name string) (*View, error)
	ListViews(ctx context.Context, tableID string) ([]View, error)
	GetView(ctx context.Context, viewID string) (*View, error)

	// SaveView persists the view's name, sort, filter and hidden-field state.
	SaveView(ctx context.Context, view View) error

	// DeleteView returns ErrLastView when the view is the table's only view.
	DeleteView(ctx context.Context, tableID, viewID string) error
}

// Backend is a Store and Catalog bound to a storage engine. Callers attach
// to a backend, use it, and detach when done.
type Backend interface {
	Store
	Catalog

	// Attach connects the backend to the storage described by config.
	// Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent; after Detach every
	// operation returns ErrBackendDetached.
	Detach() error
}
