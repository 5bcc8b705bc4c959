package poller

import (
	"context"
	"fmt"
	"io"
	"os"
)

// sysfs attribute files are a single page; anything larger is not a sensor value.
const maxFileSize = 1 << 20 // 1MB

// Reader reads the whole content of a sensor file as text.
//
// Implementations must be safe for concurrent use: every [Handle] calls its
// Reader from its own worker goroutine.
type Reader interface {
	ReadFile(ctx context.Context, path string) (string, error)
}

// ReaderFunc adapts a plain function to the [Reader] interface.
type ReaderFunc func(ctx context.Context, path string) (string, error)

// ReadFile calls f(ctx, path).
func (f ReaderFunc) ReadFile(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// FileReader reads sensor files from the local filesystem.
//
// Reads are limited to 1MB. FileReader opens the file on every call, which is
// required for sysfs attributes: the kernel produces a fresh value per open.
type FileReader struct {
	maxSize int64
}

// NewFileReader creates a [FileReader] with the default size limit.
func NewFileReader() *FileReader {
	return &FileReader{maxSize: maxFileSize}
}

// ReadFile opens path, reads it fully and returns the content as a string.
//
// The context is only checked before opening the file; a read that has
// started is not interrupted.
func (r *FileReader) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	limit := r.maxSize
	if limit <= 0 {
		limit = maxFileSize
	}

	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", path, err)
	}

	return string(data), nil
}
