package types

import "errors"

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend string     `json:"backend" yaml:"backend"`
	DataDir string     `json:"data_dir" yaml:"data_dir"`
	Grid    GridConfig `json:"grid" yaml:"grid"`
}

// GridConfig holds the windowing and fetch parameters of a grid session.
// Zero values select the defaults returned by the getters.
type GridConfig struct {
	PageSize     int `json:"page_size" yaml:"page_size"`
	Overscan     int `json:"overscan" yaml:"overscan"`
	FetchWorkers int `json:"fetch_workers" yaml:"fetch_workers"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Grid defaults.
const (
	DefaultPageSize     = 100
	DefaultOverscan     = 10
	DefaultFetchWorkers = 8
)

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrPageSizeInvalid     = errors.New("page size must be positive")
	ErrOverscanInvalid     = errors.New("overscan must not be negative")
	ErrFetchWorkersInvalid = errors.New("fetch workers must be positive")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return c.Grid.Validate()
}

// Validate rejects negative grid parameters. Zero means "use the default".
func (g GridConfig) Validate() error {
	if g.PageSize < 0 {
		return ErrPageSizeInvalid
	}
	if g.Overscan < 0 {
		return ErrOverscanInvalid
	}
	if g.FetchWorkers < 0 {
		return ErrFetchWorkersInvalid
	}
	return nil
}

// GetPageSize returns the page size, defaulting to DefaultPageSize.
func (g GridConfig) GetPageSize() int {
	if g.PageSize <= 0 {
		return DefaultPageSize
	}
	return g.PageSize
}

// GetOverscan returns the overscan margin in rows, defaulting to DefaultOverscan.
func (g GridConfig) GetOverscan() int {
	if g.Overscan <= 0 {
		return DefaultOverscan
	}
	return g.Overscan
}

// GetFetchWorkers returns the worker pool size, defaulting to DefaultFetchWorkers.
func (g GridConfig) GetFetchWorkers() int {
	if g.FetchWorkers <= 0 {
		return DefaultFetchWorkers
	}
	return g.FetchWorkers
}
