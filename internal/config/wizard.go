package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Wizard provides an interactive configuration wizard
type Wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewWizard creates a wizard reading answers from in and writing prompts to out
func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run runs the interactive configuration wizard
func (w *Wizard) Run() (*Config, error) {
	fmt.Fprintln(w.out, "=== agentq configuration ===")
	fmt.Fprintln(w.out)

	cfg := DefaultConfig()
	validator := NewValidator()

	for {
		endpoint, err := w.prompt("Chat completions endpoint", "http://localhost:1234/v1/chat/completions")
		if err != nil {
			return nil, err
		}
		if err := validator.ValidateEndpoint(endpoint); err != nil {
			fmt.Fprintf(w.out, "Error: %v\n", err)
			continue
		}
		cfg.APIEndpoint = endpoint
		break
	}

	workdir, err := w.prompt("Working directory", "./agentq-data")
	if err != nil {
		return nil, err
	}
	cfg.WorkingDirectory = workdir

	provider, err := w.prompt("Provider (openai/anthropic)", cfg.Provider)
	if err != nil {
		return nil, err
	}
	if err := validator.ValidateProvider(provider); err != nil {
		fmt.Fprintf(w.out, "Warning: %v, using default (%s)\n", err, cfg.Provider)
	} else {
		cfg.Provider = provider
	}

	model, err := w.prompt("Model", cfg.Model)
	if err != nil {
		return nil, err
	}
	cfg.Model = model

	level, err := w.prompt("Log level (debug/info/warn/error)", cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if err := validator.ValidateLogLevel(level); err != nil {
		fmt.Fprintf(w.out, "Warning: %v, using default (info)\n", err)
	} else {
		cfg.Logging.Level = level
	}

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Configuration complete!")

	return cfg, nil
}

func (w *Wizard) prompt(label, def string) (string, error) {
	fmt.Fprintf(w.out, "%s [%s]: ", label, def)
	line, err := w.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
