package logger

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const rotatedSuffixLayout = "20060102-150405.000"

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// RotatingWriter appends to a log file and moves it aside once it grows past
// a size limit. Rotated files are named <path>.<timestamp>, optionally gzipped.
type RotatingWriter struct {
	path      string
	limit     int64
	retention time.Duration
	gzip      bool

	mu   sync.Mutex
	out  *os.File
	size int64
}

// NewRotatingWriter opens path for appending. Rotated siblings older than
// maxAgeDays are removed up front; maxAgeDays <= 0 keeps everything.
func NewRotatingWriter(path string, maxSizeMB, maxAgeDays int, compress bool) (*RotatingWriter, error) {
	w := &RotatingWriter{
		path:      path,
		limit:     int64(maxSizeMB) << 20,
		retention: time.Duration(maxAgeDays) * 24 * time.Hour,
		gzip:      compress,
	}
	if err := w.reopen(); err != nil {
		return nil, err
	}
	w.prune(time.Now())
	return w, nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.out == nil {
		return 0, os.ErrClosed
	}
	if w.size > 0 && w.size+int64(len(p)) > w.limit {
		if err := w.rotate(time.Now()); err != nil {
			return 0, fmt.Errorf("rotate %s: %w", w.path, err)
		}
	}

	n, err := w.out.Write(p)
	w.size += int64(n)
	return n, err
}

// Close is idempotent. Writes after Close fail with os.ErrClosed.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.out == nil {
		return nil
	}
	f := w.out
	w.out = nil
	return f.Close()
}

func (w *RotatingWriter) reopen() error {
	f, err := openLogFile(w.path)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.out = f
	w.size = info.Size()
	return nil
}

// rotate must be called with mu held.
func (w *RotatingWriter) rotate(now time.Time) error {
	if err := w.out.Close(); err != nil {
		return err
	}
	w.out = nil

	aside := w.path + "." + now.Format(rotatedSuffixLayout)
	if err := os.Rename(w.path, aside); err != nil {
		return err
	}
	if w.gzip {
		// on failure the plain rotated file stays
		_ = gzipInPlace(aside)
	}
	return w.reopen()
}

func gzipInPlace(path string) (err error) {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
	}()

	zw := gzip.NewWriter(dst)
	if _, err = io.Copy(zw, src); err != nil {
		zw.Close()
		return err
	}
	if err = zw.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}

func (w *RotatingWriter) prune(now time.Time) {
	if w.retention <= 0 {
		return
	}
	matches, err := filepath.Glob(w.path + ".*")
	if err != nil {
		return
	}
	cutoff := now.Add(-w.retention)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		_ = os.Remove(m)
	}
}
