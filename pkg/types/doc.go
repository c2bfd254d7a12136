// Package types defines the Store, Catalog and Backend interfaces, the entity
// types shared by the grid engine and its persistence collaborator, and the
// standard errors for gridbase.
//
// The grid engine depends only on Store. Catalog covers the management
// surface (bases, tables, views) used by the CLI and the TUI.
package types
