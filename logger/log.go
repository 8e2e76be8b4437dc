package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	LevelTrace slog.Level = slog.LevelDebug - 4
	levelNone  slog.Level = slog.LevelError + 100

	formatText    = "text"
	formatJSON    = "json"
	formatConsole = "console"
	formatECS     = "ecs"
)

/*
LogConfiguration describes how the logger is built. Zero value is valid and
results in INFO level console logger writing into stdout.
*/
type LogConfiguration struct {
	Level      string `yaml:"defaultLevel"`
	Format     string `yaml:"format"`
	OutputPath string `yaml:"outputPath"`
	// TimeFormat is Go time layout, "none" to omit time from log records.
	TimeFormat string `yaml:"timeFormat"`

	writer io.Writer
}

// LoadConfiguration decodes YAML logger configuration from r.
func LoadConfiguration(r io.Reader) (*LogConfiguration, error) {
	cfg := &LogConfiguration{}
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding logger configuration: %w", err)
	}
	return cfg, nil
}

/*
New builds logger based on configuration. Nil configuration is the same as zero
value configuration.
*/
func New(cfg *LogConfiguration) (*slog.Logger, error) {
	if cfg == nil {
		cfg = &LogConfiguration{}
	}
	h, err := cfg.handler()
	if err != nil {
		return nil, err
	}
	return slog.New(h), nil
}

func (cfg *LogConfiguration) handler() (slog.Handler, error) {
	out, err := cfg.output()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: cfg.logLevel()}

	switch strings.ToLower(cfg.Format) {
	case formatText:
		opts.ReplaceAttr = composeAttrFmt(formatLevelAttr, formatTimeAttr(cfg.TimeFormat))
		return slog.NewTextHandler(out, opts), nil
	case formatJSON:
		opts.ReplaceAttr = composeAttrFmt(formatLevelAttr, formatTimeAttr(cfg.TimeFormat), formatDataAttrAsJSON)
		return slog.NewJSONHandler(out, opts), nil
	case formatECS:
		opts.AddSource = true
		opts.ReplaceAttr = composeAttrFmt(formatLevelAttr, formatAttrECS)
		return slog.NewJSONHandler(out, opts), nil
	case formatConsole, "":
		return slog.NewJSONHandler(consoleWriter(out, cfg.TimeFormat), &slog.HandlerOptions{
			Level:       opts.Level,
			ReplaceAttr: formatAttrConsole,
		}), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

/*
logLevel converts the level name into slog level. Unknown level names are
treated as INFO. When output is discarded levelNone is returned so that the
handler doesn't even build the records.
*/
func (cfg *LogConfiguration) logLevel() slog.Level {
	if cfg.OutputPath == "discard" || cfg.OutputPath == os.DevNull {
		return levelNone
	}

	switch strings.ToUpper(cfg.Level) {
	case "":
		return slog.LevelInfo
	case "WARNING":
		return slog.LevelWarn
	case "TRACE":
		return LevelTrace
	case "NONE":
		return levelNone
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func (cfg *LogConfiguration) output() (io.Writer, error) {
	if cfg.writer != nil {
		return cfg.writer, nil
	}

	switch cfg.OutputPath {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "discard", os.DevNull:
		return io.Discard, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0700); err != nil {
			return nil, fmt.Errorf("creating directory for log file: %w", err)
		}
		f, err := os.OpenFile(filepath.Clean(cfg.OutputPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // -rw-------
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		return f, nil
	}
}

/*
consoleWriter pretty-prints JSON log lines produced by slog JSON handler.
Attribute names are expected in zerolog format, see formatAttrConsole.
*/
func consoleWriter(out io.Writer, timeFormat string) io.Writer {
	if timeFormat == "" || timeFormat == "none" {
		timeFormat = "15:04:05.0000"
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: timeFormat,
		NoColor:    out != os.Stdout && out != os.Stderr,
	}
}
