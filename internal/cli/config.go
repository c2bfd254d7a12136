package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend      = "backend"
	cfgKeyDataDir      = "data_dir"
	cfgKeyPageSize     = "page_size"
	cfgKeyOverscan     = "overscan"
	cfgKeyFetchWorkers = "fetch_workers"
	cfgKeyLogLevel     = "log_level"
	cfgKeyLogFile      = "log_file"

	defaultLogLevel = "info"
	defaultLogFile  = "gridbase.log"
)

// envLogLevel overrides log_level from config.yaml.
const envLogLevel = "GRIDBASE_LOG_LEVEL"

// settings is the resolved configuration of one invocation.
type settings struct {
	ConfigDir string
	Backend   string
	DataDir   string
	Grid      types.GridConfig
	LogLevel  string
	LogFile   string
}

func (s settings) config() types.Config {
	return types.Config{Backend: s.Backend, DataDir: s.DataDir, Grid: s.Grid}
}

// logPath returns the TUI log file, relative paths resolving against the
// data directory.
func (s settings) logPath() string {
	if filepath.IsAbs(s.LogFile) {
		return s.LogFile
	}
	return filepath.Join(s.DataDir, s.LogFile)
}

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	PageSize     int    `yaml:"page_size"`
	Overscan     int    `yaml:"overscan"`
	FetchWorkers int    `yaml:"fetch_workers"`
	LogLevel     string `yaml:"log_level"`
	LogFile      string `yaml:"log_file"`
}

func defaultConfigFile(dataDir string) configFile {
	return configFile{
		Backend:      types.BackendSQLite,
		DataDir:      dataDir,
		PageSize:     types.DefaultPageSize,
		Overscan:     types.DefaultOverscan,
		FetchWorkers: types.DefaultFetchWorkers,
		LogLevel:     defaultLogLevel,
		LogFile:      defaultLogFile,
	}
}

// loadSettings reads config.yaml from configDir using Viper. A missing
// config.yaml is not an error; every key has a default.
func loadSettings(configDir string) (settings, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyPageSize, types.DefaultPageSize)
	v.SetDefault(cfgKeyOverscan, types.DefaultOverscan)
	v.SetDefault(cfgKeyFetchWorkers, types.DefaultFetchWorkers)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyLogFile, defaultLogFile)
	if err := v.BindEnv(cfgKeyLogLevel, envLogLevel); err != nil {
		return settings{}, err
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := settings{
		Backend: v.GetString(cfgKeyBackend),
		DataDir: v.GetString(cfgKeyDataDir),
		Grid: types.GridConfig{
			PageSize:     v.GetInt(cfgKeyPageSize),
			Overscan:     v.GetInt(cfgKeyOverscan),
			FetchWorkers: v.GetInt(cfgKeyFetchWorkers),
		},
		LogLevel: v.GetString(cfgKeyLogLevel),
		LogFile:  v.GetString(cfgKeyLogFile),
	}
	if err := s.config().Validate(); err != nil {
		return settings{}, fmt.Errorf("config %s: %w", filepath.Join(configDir, configFileExt), err)
	}
	return s, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. It reports whether a file was written.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile(dataDir)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
