// Package logging builds the slog handlers used by the server and the CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Sey56/Paracore-sub001/internal/logging/writers"
)

// Format selects the handler encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text", "json" and the empty string, which means text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported log format: %q", s)
}

// ValidLevel reports whether level is one of the names the handlers accept.
func ValidLevel(level string) bool {
	switch strings.ToLower(level) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// SetupHandlerText configures a text slog handler with the provided writer and log level
func SetupHandlerText(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}

	reportCaller := false
	reportTimestamp := false
	lvl := log.InfoLevel
	switch strings.ToLower(logLevel) {
	case "trace":
		reportCaller = true
		reportTimestamp = true
		lvl = log.DebugLevel
	case "debug":
		reportTimestamp = true
		lvl = log.DebugLevel
	case "warn", "warning":
		lvl = log.WarnLevel
	case "error":
		lvl = log.ErrorLevel
	}

	return log.NewWithOptions(writer, log.Options{
		ReportTimestamp: reportTimestamp,
		ReportCaller:    reportCaller,
		Level:           lvl,
	})
}

// SetupHandlerJSON configures a JSON slog handler with the provided writer and log level
func SetupHandlerJSON(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stdout
	}

	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "trace", "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     level,
		AddSource: strings.EqualFold(logLevel, "trace"),
	})
}

// Options describes where and how the process logs.
type Options struct {
	Level  string
	Format string
	Output string
}

// NewHandler resolves the output with writers.CreateWriter and builds a
// handler for it. The returned closer releases the output and must be called
// once logging is done.
func NewHandler(opts Options) (slog.Handler, io.Closer, error) {
	if !ValidLevel(opts.Level) {
		return nil, nil, fmt.Errorf("unsupported log level: %q", opts.Level)
	}
	format, err := ParseFormat(opts.Format)
	if err != nil {
		return nil, nil, err
	}
	w, err := writers.CreateWriter(opts.Output)
	if err != nil {
		return nil, nil, err
	}

	if format == FormatJSON {
		return SetupHandlerJSON(opts.Level, w), w, nil
	}
	return SetupHandlerText(opts.Level, w), w, nil
}

// SetupLogger configures the default logger based on provided log level
func SetupLogger(logLevel string) {
	handler := SetupHandlerText(logLevel, nil)
	slog.SetDefault(slog.New(handler))
}
