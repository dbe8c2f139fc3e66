package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger owns the process log writers
type Logger struct {
	logger   zerolog.Logger
	file     io.Closer
	redactor *Redactor
}

// Config holds logger configuration
type Config struct {
	Level     string    // debug, info, warn, error
	File      string    // log file path
	Console   bool      // enable console output
	Pretty    bool      // pretty format for console
	Redaction bool      // enable sensitive data redaction
	MaxSize   int       // max size in MB before rotation, 0 disables rotation
	MaxAge    int       // max age in days
	Compress  bool      // compress rotated logs
	Output    io.Writer // console destination, defaults to stderr
}

// New builds the process logger and installs it as zerolog's global logger.
// Console output defaults to stderr so it never interleaves with task reports on stdout.
func New(cfg Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	sinks, file, err := openSinks(cfg)
	if err != nil {
		return nil, err
	}

	l := &Logger{file: file}
	if cfg.Redaction {
		l.redactor = NewRedactor()
		sinks = l.redactor.Wrap(sinks)
	}
	l.logger = zerolog.New(sinks).Level(level).With().Timestamp().Logger()

	log.Logger = l.logger
	return l, nil
}

// openSinks fans log lines out to the console and the log file.
// The returned closer is nil when no file is configured.
func openSinks(cfg Config) (io.Writer, io.Closer, error) {
	var sinks []io.Writer

	if cfg.Console {
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		if cfg.Pretty {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}
		sinks = append(sinks, out)
	}

	if cfg.File == "" {
		return joinSinks(sinks), nil, nil
	}

	var (
		f   io.WriteCloser
		err error
	)
	if cfg.MaxSize > 0 {
		f, err = NewRotatingWriter(cfg.File, cfg.MaxSize, cfg.MaxAge, cfg.Compress)
	} else {
		f, err = openLogFile(cfg.File)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return joinSinks(append(sinks, f)), f, nil
}

func joinSinks(sinks []io.Writer) io.Writer {
	switch len(sinks) {
	case 0:
		return io.Discard
	case 1:
		return sinks[0]
	}
	return io.MultiWriter(sinks...)
}

// Close closes the log file, if any
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Component returns a child logger tagged with the component name
func (l *Logger) Component(name string) zerolog.Logger {
	return l.logger.With().Str("component", name).Logger()
}

// GetZerolog returns the underlying zerolog.Logger
func (l *Logger) GetZerolog() zerolog.Logger {
	return l.logger
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Console:   false,
		Pretty:    true,
		Redaction: true,
		MaxSize:   100,
		MaxAge:    7,
		Compress:  true,
	}
}

// RedactLiteral masks every occurrence of secret in log output when redaction is enabled.
// Call it before the logger is shared with other goroutines.
func (l *Logger) RedactLiteral(secret string) {
	if l.redactor != nil {
		l.redactor.AddLiteral(secret)
	}
}
