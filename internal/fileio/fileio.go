// Package fileio reads APO exports and writes cDSP presets.
package fileio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Size limits and buffer defaults.
const (
	DefaultMaxSize         = 10 * 1024 * 1024 // 10 MiB
	DefaultStreamThreshold = 1024 * 1024      // 1 MiB
	bytesPerMiB            = 1024 * 1024
	readBufferSize         = 64 * 1024
	writeBufferSize        = 64 * 1024
	defaultFilePerm        = 0o644
)

// Common errors.
var (
	// ErrNotExist indicates the input path does not exist.
	ErrNotExist = errors.New("file does not exist")

	// ErrNotReadable indicates the input path cannot be opened for reading.
	ErrNotReadable = errors.New("file is not readable")

	// ErrNotRegular indicates the input path is not a regular file.
	ErrNotRegular = errors.New("path is not a file")

	// ErrTooLarge indicates the input exceeds the configured limit.
	ErrTooLarge = errors.New("file is too large")

	// ErrEmpty indicates a zero-length input file.
	ErrEmpty = errors.New("file is empty")
)

// Limits bounds Read.
type Limits struct {
	// MaxSize rejects larger files. Zero means DefaultMaxSize.
	MaxSize int64

	// StreamThreshold is the size from which the file is read in chunks
	// instead of in one call. Zero means DefaultStreamThreshold.
	StreamThreshold int64
}

func (l Limits) withDefaults() Limits {
	if l.MaxSize <= 0 {
		l.MaxSize = DefaultMaxSize
	}
	if l.StreamThreshold <= 0 {
		l.StreamThreshold = DefaultStreamThreshold
	}
	return l
}

// ValidateAccess checks that path exists, is readable and is a regular file.
func ValidateAccess(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return fmt.Errorf("%w: %s", ErrNotReadable, path)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegular, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotReadable, path)
	}
	_ = f.Close()

	return nil
}

// Read returns the content of path as text. Files below the stream
// threshold are read in one call; larger files are streamed through a
// buffered reader.
func Read(path string, limits Limits) (string, error) {
	limits = limits.withDefaults()

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat input file: %w", err)
	}

	size := info.Size()
	if size > limits.MaxSize {
		return "", fmt.Errorf("%w: %dMB. Maximum size is %dMB",
			ErrTooLarge, (size+bytesPerMiB/2)/bytesPerMiB, limits.MaxSize/bytesPerMiB)
	}
	if size == 0 {
		return "", ErrEmpty
	}

	if size < limits.StreamThreshold {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}

	return readStreamed(path, size)
}

func readStreamed(path string, size int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sb strings.Builder
	sb.Grow(int(size))
	if _, err := io.Copy(&sb, bufio.NewReaderSize(f, readBufferSize)); err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	return sb.String(), nil
}

// WriteAtomic writes data to path through a temporary file in the same
// directory followed by a rename, so readers never observe a partial file.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".apo2cdsp-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	bw := bufio.NewWriterSize(tmp, writeBufferSize)
	if _, err := bw.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := bw.Flush(); err != nil {
		cleanup()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Chmod(defaultFilePerm); err != nil {
		cleanup()
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close output file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace output file: %w", err)
	}

	return nil
}

// DefaultOutputPath returns input's path with its extension removed. An
// input without an extension gets ".json" appended instead so the export
// is never overwritten.
func DefaultOutputPath(input string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		return filepath.Join(filepath.Dir(input), base+".json")
	}
	return filepath.Join(filepath.Dir(input), strings.TrimSuffix(base, ext))
}
