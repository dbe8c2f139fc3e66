package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/harun/agentq/pkg/commandqueue"
	"github.com/rs/zerolog"
)

const (
	prompt = ">> "
	banner = "\n=== Intelligent Programming Assistant ===\n" +
		"Enter your task. Type 'help' for a list of commands. Type 'quit' to exit.\n\n"
)

// Submitter accepts tasks for the background worker
type Submitter interface {
	Submit(source, input string) (commandqueue.Item, error)
	SubmitFile(source, path string) (int, error)
}

// REPL reads tasks line by line and hands them to the worker
type REPL struct {
	submitter Submitter
	in        io.Reader
	out       io.Writer
	tasksFile string
	logger    zerolog.Logger
}

// NewREPL creates a read loop; tasksFile is loaded by "run tests"
func NewREPL(submitter Submitter, in io.Reader, out io.Writer, tasksFile string, logger zerolog.Logger) *REPL {
	return &REPL{
		submitter: submitter,
		in:        in,
		out:       out,
		tasksFile: tasksFile,
		logger:    logger.With().Str("component", "repl").Logger(),
	}
}

// Run prints the banner and reads until quit, end of input or ctx cancellation.
// It returns ctx.Err() only when cancelled.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprint(r.out, banner)

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)

	// The scanner cannot be interrupted; on cancellation it is abandoned
	// until the next line or EOF arrives.
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		fmt.Fprint(r.out, prompt)

		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(r.out)
				return nil
			}
			if r.handle(line) {
				return nil
			}
		}
	}
}

// handle processes one line and reports whether the loop should exit
func (r *REPL) handle(line string) bool {
	input := strings.TrimSpace(line)

	switch strings.ToLower(input) {
	case "":
		return false
	case "quit":
		return true
	case "help":
		r.printHelp()
		return false
	case "run tests":
		n, err := r.submitter.SubmitFile(commandqueue.SourceBatch, r.tasksFile)
		if err != nil {
			r.logger.Error().Err(err).Str("file", r.tasksFile).Msg("Failed to queue test tasks")
			fmt.Fprintf(r.out, "Failed to load tasks from %s: %v\n", r.tasksFile, err)
			return false
		}
		r.logger.Info().Int("tasks", n).Str("file", r.tasksFile).Msg("Test tasks queued")
		return false
	}

	if _, err := r.submitter.Submit(commandqueue.SourceInteractive, input); err != nil {
		r.logger.Error().Err(err).Msg("Failed to queue task")
		fmt.Fprintf(r.out, "Failed to queue task: %v\n", err)
	}
	return false
}

func (r *REPL) printHelp() {
	fmt.Fprintf(r.out, `
Available Commands:
- help: Display this help menu.
- quit: Exit the program.
- run tests: Start running predefined tests from '%s'.
- run command <cmd>: Run <cmd> in the shell. The prefix is case-sensitive.
- [any other command]: The agent will attempt to perform the task.

`, r.tasksFile)
}
