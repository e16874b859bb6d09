// SPDX-License-Identifier: EPL-2.0

// Package logging builds the charmbracelet/log loggers shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the named level ("debug", "info",
// "warn", "error"). An empty level means warn.
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.WarnLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", level, err)
		}
		lvl = parsed
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "audpool",
	}), nil
}

// Default is the stderr logger components fall back to when none is supplied.
func Default() *log.Logger {
	return defaultLogger
}

// Discard drops everything; used by tests and by callers that opt out.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// Component derives a logger tagged with the component name.
func Component(base *log.Logger, name string) *log.Logger {
	if base == nil {
		base = defaultLogger
	}
	return base.WithPrefix(base.GetPrefix() + "/" + name)
}

var defaultLogger = log.NewWithOptions(os.Stderr, log.Options{
	Level:  log.WarnLevel,
	Prefix: "audpool",
})
