package logger

import (
	"io"
	"regexp"
	"strings"
	"sync"
)

const redactedMark = "[REDACTED]"

// defaultPatterns cover provider keys and key/value pairs that look like credentials.
// The Anthropic pattern precedes the generic sk- one so the whole key is masked.
var defaultPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]{20,}`),
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]+`),
	regexp.MustCompile(`api_key["\s:=]+[^\s",}]+`),
	regexp.MustCompile(`password["\s:=]+[^\s"]+`),
	regexp.MustCompile(`secret["\s:=]+[^\s"]+`),
}

// Redactor masks credentials in log output. It is safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a redactor with the default patterns
func NewRedactor() *Redactor {
	patterns := make([]*regexp.Regexp, len(defaultPatterns))
	copy(patterns, defaultPatterns)
	return &Redactor{patterns: patterns}
}

// AddPattern adds a custom redaction pattern
func (r *Redactor) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.patterns = append(r.patterns, re)
	r.mu.Unlock()
	return nil
}

// AddLiteral masks every occurrence of a known secret value, such as the configured API key
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	r.literals = append(r.literals, secret)
	r.mu.Unlock()
}

// Redact returns s with every known secret masked
func (r *Redactor) Redact(s string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, lit := range r.literals {
		s = strings.ReplaceAll(s, lit, redactedMark)
	}
	for _, pattern := range r.patterns {
		s = pattern.ReplaceAllString(s, redactedMark)
	}
	return s
}

// Wrap returns a writer that redacts before writing to w
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return &redactingWriter{
		writer:   w,
		redactor: r,
	}
}

type redactingWriter struct {
	writer   io.Writer
	redactor *Redactor
}

// Write reports len(p) on success so callers do not treat redaction as a short write
func (w *redactingWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(w.writer, w.redactor.Redact(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}
