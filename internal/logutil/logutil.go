// Package logutil builds the zap loggers used by the gridbase commands.
package logutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Formats accepted by Config.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config describes one logger. An empty Filename logs to the writer passed
// to New; otherwise output goes to a rotating file.
type Config struct {
	Level      string
	Format     string
	Filename   string
	MaxSize    int // megabytes
	MaxDays    int
	MaxBackups int
}

// Level parses a level name, defaulting to info.
func Level(name string) (zapcore.Level, error) {
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return lvl, fmt.Errorf("log level %q: %w", name, err)
	}
	return lvl, nil
}

func encoder(format string) (zapcore.Encoder, error) {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	switch format {
	case "", FormatConsole:
		return zapcore.NewConsoleEncoder(ec), nil
	case FormatJSON:
		return zapcore.NewJSONEncoder(ec), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// New builds a logger writing to w.
func New(cfg Config, w io.Writer) (*zap.Logger, error) {
	lvl, err := Level(cfg.Level)
	if err != nil {
		return nil, err
	}
	enc, err := encoder(cfg.Format)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(lvl))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.PanicLevel)), nil
}

// NewFile builds a logger writing to the rotating file cfg.Filename. The
// returned closer releases the file.
func NewFile(cfg Config) (*zap.Logger, io.Closer, error) {
	if cfg.Filename == "" {
		return nil, nil, fmt.Errorf("log file name is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Filename), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log dir: %w", err)
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 64
	}
	out := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxDays,
		MaxBackups: cfg.MaxBackups,
	}
	log, err := New(cfg, out)
	if err != nil {
		out.Close()
		return nil, nil, err
	}
	return log, out, nil
}
