// Package cli implements the picgraph command-line interface.
//
// This package provides commands for scheduling picture graphs from scene
// files, rendering the result, exploring passes interactively, and serving
// frames over HTTP. The CLI is built using cobra and logs via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - passes: Build a frame for one or more scenes and print passes
//   - render: Draw the scheduled graph as DOT, SVG, PNG or PDF
//   - explore: Step through update passes in a terminal UI
//   - bench: Time a frame over a generated scene
//   - serve: HTTP API for building frames
//   - cache: Manage the report and artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to concurrent scene builds.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// timeFormat prints wall-clock time with centiseconds, e.g. "14:32:01.45".
const timeFormat = "15:04:05.00"

// newLogger returns a timestamped logger writing to w at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
		Level:           level,
	})
}

// progress measures one command run. Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs the formatted message with the elapsed time, e.g.
// "Built 3 frame(s) (1.234s)".
func (p *progress) done(format string, args ...any) {
	p.logger.Infof("%s (%s)", fmt.Sprintf(format, args...), p.elapsed())
}

func (p *progress) elapsed() time.Duration {
	return time.Since(p.start).Round(time.Millisecond)
}

type ctxKey struct{}

// withLogger attaches l to ctx for per-scene workers.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
