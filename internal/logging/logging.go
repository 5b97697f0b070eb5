// =============================================================================
// XLSX to SQL Migration - Logging
// =============================================================================
//
// One logrus logger per run. Entries go to stdout and, when a log file is
// configured, are appended to it as well.
//
// LEVELS:
//   - info:  stage progress and record counts
//   - warn:  created reference entities, truncated alignment, fallbacks
//   - error: fatal validation failures, with their structured fields
//   - debug: per-row detail (enabled with --verbose)
//
// =============================================================================

package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Options controls logger construction.
type Options struct {
	// Level is a logrus level name; empty means info.
	Level string

	// File is appended to in addition to stdout; empty disables it.
	File string

	// Verbose forces debug level.
	Verbose bool

	// Stdout replaces os.Stdout; used by tests.
	Stdout io.Writer
}

// New builds the run logger. The returned close function releases the log
// file and is safe to call when no file was opened.
func New(opts Options) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "log level %q", opts.Level)
		}
		level = parsed
	}
	if opts.Verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	if opts.File == "" {
		logger.SetOutput(stdout)
		return logger, func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, errors.Wrap(err, "create log directory")
	}
	file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open log file")
	}

	logger.SetOutput(io.MultiWriter(stdout, file))
	return logger, file.Close, nil
}

// LogError records err with the module, function and context it came from.
// data is attached when non-nil.
func LogError(logger logrus.FieldLogger, moduleName, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
