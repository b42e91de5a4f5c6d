package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"gopkg.in/natefinch/lumberjack.v2"

	"restaurant-system/internal/xpkg/config"
)

// Logger is a thin value wrapper over slog so it can be copied into every
// service and narrowed with Action/With without touching the parent.
type Logger struct {
	l *slog.Logger
}

// New returns a JSON logger writing to stdout.
func New(level string) (Logger, error) {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter returns a JSON logger writing to w.
func NewWithWriter(level string, w io.Writer) (Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return Logger{}, err
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return Logger{l: slog.New(h)}, nil
}

// FromConfig writes to a rotating file when a log file is configured and to
// stdout otherwise.
func FromConfig(cfg *config.Logging) (Logger, error) {
	if cfg == nil || cfg.File == "" {
		level := ""
		if cfg != nil {
			level = cfg.Level
		}
		return New(level)
	}
	return NewWithWriter(cfg.Level, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	})
}

// Nop discards everything; handy in tests.
func Nop() Logger {
	return Logger{l: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return 0, errors.Newf("unknown log level %q", level)
}

func (l Logger) Action(action string) Logger {
	return l.With("action", action)
}

func (l Logger) With(args ...any) Logger {
	return Logger{l: l.logger().With(args...)}
}

func (l Logger) WithGroup(name string) Logger {
	return Logger{l: l.logger().WithGroup(name)}
}

// Ctx folds the logtags carried by ctx into the logger.
func (l Logger) Ctx(ctx context.Context) Logger {
	tags := logtags.FromContext(ctx)
	if tags == nil {
		return l
	}
	args := make([]any, 0, 2*len(tags.Get()))
	for _, t := range tags.Get() {
		args = append(args, t.Key(), t.ValueStr())
	}
	return l.With(args...)
}

func (l Logger) Debug(msg string, args ...any) {
	l.logger().Debug(msg, args...)
}

func (l Logger) Info(msg string, args ...any) {
	l.logger().Info(msg, args...)
}

func (l Logger) Warn(msg string, args ...any) {
	l.logger().Warn(msg, args...)
}

func (l Logger) Error(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	l.logger().Error(msg, args...)
}

func (l Logger) logger() *slog.Logger {
	if l.l == nil {
		return slog.Default()
	}
	return l.l
}
