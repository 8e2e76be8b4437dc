package logger

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/alphabill-org/starregistry/logger"
)

/*
New returns logger for test t on debug level.
Log level can be changed with environment variable SR_TEST_LOG_LEVEL.
*/
func New(t testing.TB) *slog.Logger {
	return NewLvl(t, levelFromEnv(slog.LevelDebug))
}

// NewLvl returns logger for test t on level "level".
func NewLvl(t testing.TB, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(&testLogWriter{t: t}, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// t.Log adds it's own time stamp
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))
}

/*
NOP returns logger which discards everything.
Use it only for tests where logging output is not interesting at all.
*/
func NOP() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 100}))
}

/*
LoggerBuilder returns logger factory which ignores the configuration and
returns test logger. Use it where code under test builds its own logger.
*/
func LoggerBuilder(t testing.TB) func(*logger.LogConfiguration) (*slog.Logger, error) {
	return func(*logger.LogConfiguration) (*slog.Logger, error) {
		return New(t), nil
	}
}

func levelFromEnv(def slog.Level) slog.Level {
	s := os.Getenv("SR_TEST_LOG_LEVEL")
	if s == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return def
	}
	return lvl
}

type testLogWriter struct {
	t  testing.TB
	mu sync.Mutex
}

func (w *testLogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(bytes.Clone(p)), "\n"))
	return len(p), nil
}
