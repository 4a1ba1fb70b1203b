// Package staging writes request uploads to single-owner temporary files.
//
// Callers must pair every successful Stage with a deferred Release so the file
// disappears on all exit paths, including panics unwinding through the caller.
package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File is a staged temporary file. It is not safe to share across requests.
type File struct {
	path string
	size int64
	once sync.Once
}

// Stage copies r into a new temporary file in dir (os.TempDir when empty).
// The file name ends with suffix.
func Stage(dir string, r io.Reader, suffix string) (*File, error) {
	out, err := os.CreateTemp(dir, "face-verify-*"+sanitizeSuffix(suffix))
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}

	f := &File{path: out.Name()}
	n, copyErr := io.Copy(out, r)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		f.Release()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	f.size = n
	return f, nil
}

// Path returns the location of the staged file.
func (f *File) Path() string {
	return f.path
}

// Size returns the number of bytes written while staging.
func (f *File) Size() int64 {
	return f.size
}

// Release deletes the file. It is idempotent and never fails: deletion errors
// are logged and swallowed.
func (f *File) Release() {
	if f == nil {
		return
	}
	f.once.Do(func() {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("staging: could not delete temp file", "path", f.path, "error", err)
		}
	})
}

// sanitizeSuffix keeps only the extension of a client-provided name so it can't
// inject path separators into the temp file pattern.
func sanitizeSuffix(suffix string) string {
	return strings.ReplaceAll(filepath.Ext(filepath.Base(suffix)), "*", "")
}
