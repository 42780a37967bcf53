package internal

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var (
	logLevel = new(slog.LevelVar)

	handlerOnce sync.Once
	handler     slog.Handler
)

// SetLogLevel changes the level of every logger, including the ones already created.
// Unknown names fall back to info.
func SetLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
	}
}

func getHandler() slog.Handler {
	handlerOnce.Do(func() {
		var w io.Writer
		noColor := false

		if runtime.GOOS == "windows" {
			w = colorable.NewColorableStdout()
		} else {
			w = os.Stderr
			noColor = !isatty.IsTerminal(os.Stderr.Fd())
		}

		handler = tint.NewHandler(w, &tint.Options{
			Level:   logLevel,
			NoColor: noColor,
		})
	})

	return handler
}

// Logger is a [slog.Logger] that tags every record with
// the kind and the name of the component that emitted it.
type Logger struct {
	*slog.Logger

	kind string
	name string
}

// NewLogger returns a logger for the given component.
func NewLogger(kind, name string) *Logger {
	return &Logger{
		Logger: slog.New(getHandler()),

		kind: kind,
		name: name,
	}
}

func (l *Logger) getInfo() slog.Attr {
	return slog.Group("info", slog.String("kind", l.kind), slog.String("name", l.name))
}

func (l *Logger) getArgs(args ...any) []any {
	return append([]any{l.getInfo()}, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.Logger.Debug(msg, l.getArgs(args...)...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.Logger.Info(msg, l.getArgs(args...)...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, l.getArgs(args...)...)
}

func (l *Logger) Error(msg string, err error, args ...any) {
	tmpArgs := append([]any{tint.Err(err)}, args...)
	l.Logger.Error(msg, l.getArgs(tmpArgs...)...)
}
