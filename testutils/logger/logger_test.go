package logger

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/alphabill-org/starregistry/logger"
	"github.com/stretchr/testify/require"
)

type recordingTB struct {
	testing.TB
	lines []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Log(args ...any) {
	r.lines = append(r.lines, fmt.Sprint(args...))
}

func Test_logger_for_tests(t *testing.T) {
	t.Run("writes into test log", func(t *testing.T) {
		rec := &recordingTB{TB: t}
		l := NewLvl(rec, slog.LevelInfo)
		l.Error("now thats really bad", logger.Error(fmt.Errorf("what now")))
		l.Debug("this shouldn't show up in the log")
		require.Len(t, rec.lines, 1)
		require.Equal(t, `level=ERROR msg="now thats really bad" err="what now"`, rec.lines[0])
	})

	t.Run("level from environment", func(t *testing.T) {
		t.Setenv("SR_TEST_LOG_LEVEL", "warn")
		rec := &recordingTB{TB: t}
		l := New(rec)
		l.Info("not shown")
		l.Warn("shown")
		require.Equal(t, []string{"level=WARN msg=shown"}, rec.lines)
	})

	t.Run("NOP", func(t *testing.T) {
		require.False(t, NOP().Enabled(context.Background(), slog.LevelError))
	})

	t.Run("builder ignores configuration", func(t *testing.T) {
		l, err := LoggerBuilder(t)(&logger.LogConfiguration{Format: "no such format"})
		require.NoError(t, err)
		require.NotNil(t, l)
	})
}
