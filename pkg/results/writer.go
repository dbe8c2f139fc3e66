// Package results writes one text artifact per completed task.
package results

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	artifactPrefix  = "test_result_"
	timestampLayout = "2006-01-02_15-04-05"
	suffixAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLength    = 8
)

// Writer writes test_result_<timestamp>_<id>.txt files into a directory
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a writer for dir
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, errors.New("results directory is required")
	}
	return &Writer{dir: dir, now: time.Now}, nil
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

// Write stores the task and its result and returns the artifact path
func (w *Writer) Write(input, result string) (string, error) {
	suffix, err := gonanoid.Generate(suffixAlphabet, suffixLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate artifact id: %w", err)
	}

	name := fmt.Sprintf("%s%s_%s.txt", artifactPrefix, w.now().Format(timestampLayout), suffix)
	path := filepath.Join(w.dir, name)

	content := fmt.Sprintf("Task: %s\nResult:\n%s\n", input, result)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	return path, nil
}
