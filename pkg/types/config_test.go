package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "postgres", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "valid sqlite config",
			config:  Config{Backend: "sqlite", DataDir: "/tmp/data"},
			wantErr: nil,
		},
		{
			name:    "negative page size is rejected",
			config:  Config{Backend: "sqlite", Grid: GridConfig{PageSize: -1}},
			wantErr: ErrPageSizeInvalid,
		},
		{
			name:    "negative overscan is rejected",
			config:  Config{Backend: "sqlite", Grid: GridConfig{Overscan: -5}},
			wantErr: ErrOverscanInvalid,
		},
		{
			name:    "negative worker count is rejected",
			config:  Config{Backend: "sqlite", Grid: GridConfig{FetchWorkers: -2}},
			wantErr: ErrFetchWorkersInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGridConfigDefaults(t *testing.T) {
	var g GridConfig
	assert.Equal(t, DefaultPageSize, g.GetPageSize())
	assert.Equal(t, DefaultOverscan, g.GetOverscan())
	assert.Equal(t, DefaultFetchWorkers, g.GetFetchWorkers())

	g = GridConfig{PageSize: 25, Overscan: 3, FetchWorkers: 2}
	assert.Equal(t, 25, g.GetPageSize())
	assert.Equal(t, 3, g.GetOverscan())
	assert.Equal(t, 2, g.GetFetchWorkers())
}
