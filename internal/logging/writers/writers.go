// Package writers resolves log output destinations.
package writers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriterType represents the kind of destination a log output names.
type WriterType string

const (
	WriterTypeStdout WriterType = "stdout"
	WriterTypeStderr WriterType = "stderr"
	WriterTypeFile   WriterType = "file"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// CreateWriter opens the destination named by output:
//   - "stderr" or "" writes to os.Stderr
//   - "stdout" writes to os.Stdout
//   - "file:///path/to/file" or "/path/to/file" appends to a file,
//     creating parent directories as needed
//
// Closing the returned writer closes files and is a no-op for the standard
// streams.
func CreateWriter(output string) (io.WriteCloser, error) {
	switch ParseWriterType(output) {
	case WriterTypeStderr:
		return nopCloser{os.Stderr}, nil
	case WriterTypeStdout:
		return nopCloser{os.Stdout}, nil
	}

	path := strings.TrimPrefix(output, "file://")
	if !isFilePath(path) {
		return nil, fmt.Errorf("unsupported output format: %s", output)
	}
	return createFileWriter(path)
}

// isFilePath rejects URLs and bare words.
func isFilePath(path string) bool {
	if strings.Contains(path, "://") {
		return false
	}
	return strings.ContainsAny(path, `/\`) || filepath.Ext(path) != ""
}

func createFileWriter(filePath string) (*os.File, error) {
	dir := filepath.Dir(filePath)
	if dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	return file, nil
}

// ParseWriterType determines the writer type from an output string.
func ParseWriterType(output string) WriterType {
	switch strings.ToLower(output) {
	case "", "stderr":
		return WriterTypeStderr
	case "stdout":
		return WriterTypeStdout
	}
	return WriterTypeFile
}
