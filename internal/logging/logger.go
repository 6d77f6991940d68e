package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// #region setup
var base = newBase(os.Stderr)

func newBase(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Setup configures the process-wide logger. format is "text" or "json".
func Setup(level, format string) error {
	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("parse log level %q: %w", level, err)
		}
		base.SetLevel(lvl)
	}
	switch strings.ToLower(format) {
	case "", "text":
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

// SetOutput redirects the process-wide logger.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// #endregion setup

// #region context
// GetLogger returns the entry carried by ctx, or the base logger.
func GetLogger(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
			return e
		}
	}
	return logrus.NewEntry(base)
}

// WithFields returns a context whose logger carries fields in addition to
// any already attached.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	return context.WithValue(ctx, ctxKey{}, GetLogger(ctx).WithFields(fields))
}

// WithField is WithFields for a single key.
func WithField(ctx context.Context, key string, value any) context.Context {
	return context.WithValue(ctx, ctxKey{}, GetLogger(ctx).WithField(key, value))
}

// #endregion context

// #region shorthands
func Debugf(ctx context.Context, format string, args ...any) {
	GetLogger(ctx).Debugf(format, args...)
}

func Infof(ctx context.Context, format string, args ...any) {
	GetLogger(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...any) {
	GetLogger(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...any) {
	GetLogger(ctx).Errorf(format, args...)
}

// #endregion shorthands
