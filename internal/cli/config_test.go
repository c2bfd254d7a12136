package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func TestLoadSettings(t *testing.T) {
	t.Run("defaults without config.yaml", func(t *testing.T) {
		t.Setenv(envLogLevel, "")
		s, err := loadSettings(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, types.BackendSQLite, s.Backend)
		assert.Equal(t, types.DefaultPageSize, s.Grid.PageSize)
		assert.Equal(t, defaultLogLevel, s.LogLevel)
		assert.Equal(t, defaultLogFile, s.LogFile)
	})

	t.Run("values from config.yaml", func(t *testing.T) {
		t.Setenv(envLogLevel, "")
		dir := t.TempDir()
		yaml := "backend: sqlite\ndata_dir: /srv/grid\npage_size: 25\noverscan: 3\nfetch_workers: 2\nlog_level: debug\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte(yaml), 0o644))

		s, err := loadSettings(dir)
		require.NoError(t, err)
		assert.Equal(t, "/srv/grid", s.DataDir)
		assert.Equal(t, types.GridConfig{PageSize: 25, Overscan: 3, FetchWorkers: 2}, s.Grid)
		assert.Equal(t, "debug", s.LogLevel)
	})

	t.Run("env overrides log level", func(t *testing.T) {
		t.Setenv(envLogLevel, "warn")
		s, err := loadSettings(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "warn", s.LogLevel)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte("page_size: -1\n"), 0o644))
		_, err := loadSettings(dir)
		assert.ErrorIs(t, err, types.ErrPageSizeInvalid)
	})
}

func TestWriteConfigIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileExt)
	written, err := writeConfigIfMissing(path, "data")
	require.NoError(t, err)
	assert.True(t, written)

	s, err := loadSettings(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, "data", s.DataDir)
	assert.Equal(t, types.DefaultFetchWorkers, s.Grid.FetchWorkers)

	written, err = writeConfigIfMissing(path, "other")
	require.NoError(t, err)
	assert.False(t, written, "an existing file is kept")
}

func TestSettingsLogPath(t *testing.T) {
	s := settings{DataDir: "/data", LogFile: "gridbase.log"}
	assert.Equal(t, "/data/gridbase.log", s.logPath())
	s.LogFile = "/var/log/grid.log"
	assert.Equal(t, "/var/log/grid.log", s.logPath())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitSuccess},
		{fmt.Errorf("row: %w", types.ErrNotFound), exitUserError},
		{types.ErrPrimaryColumn, exitUserError},
		{usageError("bad"), exitUserError},
		{errors.New("disk full"), exitSysError},
		{types.ErrBackendDetached, exitSysError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}

func TestParseRules(t *testing.T) {
	cols := []types.Column{
		{ColumnID: "c1", Name: "Name", Type: types.ColumnText},
		{ColumnID: "c2", Name: "Age", Type: types.ColumnNumber},
	}

	sorts := []struct {
		arg     string
		want    types.SortRule
		wantErr error
	}{
		{"Name", types.SortRule{ColumnID: "c1", Direction: types.SortAsc}, nil},
		{"age:DESC", types.SortRule{ColumnID: "c2", Direction: types.SortDesc}, nil},
		{"c2:asc", types.SortRule{ColumnID: "c2", Direction: types.SortAsc}, nil},
		{"Height:asc", types.SortRule{}, types.ErrNotFound},
		{"Name:up", types.SortRule{}, types.ErrInvalidDirection},
	}
	for _, tt := range sorts {
		got, err := parseSort(cols, tt.arg)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, tt.arg)
			continue
		}
		require.NoError(t, err, tt.arg)
		assert.Equal(t, tt.want, got, tt.arg)
	}

	filters := []struct {
		arg     string
		want    types.FilterRule
		wantErr error
	}{
		{"Name:contains:ali", types.FilterRule{ColumnID: "c1", Operator: types.OpContains, Value: "ali"}, nil},
		{"Name:is:a:b", types.FilterRule{ColumnID: "c1", Operator: types.OpIs, Value: "a:b"}, nil},
		{"Age:is-empty", types.FilterRule{ColumnID: "c2", Operator: types.OpIsEmpty}, nil},
		{"Age", types.FilterRule{}, errUsage},
		{"Age:like:3", types.FilterRule{}, types.ErrInvalidOperator},
	}
	for _, tt := range filters {
		got, err := parseFilter(cols, tt.arg)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, tt.arg)
			continue
		}
		require.NoError(t, err, tt.arg)
		assert.Equal(t, tt.want, got, tt.arg)
	}
}

func TestCellValue(t *testing.T) {
	num := types.Column{Name: "Age", Type: types.ColumnNumber}
	text := types.Column{Name: "Name", Type: types.ColumnText}

	tests := []struct {
		col     types.Column
		in      string
		want    string
		wantErr bool
	}{
		{num, "5", "5.0", false},
		{num, "-2.5", "-2.5", false},
		{num, "", "", false},
		{num, "1.2.3", "", true},
		{num, "12a", "", true},
		{text, "5", "5", false},
	}
	for _, tt := range tests {
		got, err := cellValue(tt.col, tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, types.ErrInvalidValue, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
