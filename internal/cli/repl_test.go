package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harun/agentq/pkg/commandqueue"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submission struct {
	source string
	input  string
}

type fakeSubmitter struct {
	mu        sync.Mutex
	submitted []submission
	files     []string
	fileErr   error
}

func (f *fakeSubmitter) Submit(source, input string) (commandqueue.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, submission{source: source, input: input})
	return commandqueue.Item{Input: input, Source: source}, nil
}

func (f *fakeSubmitter) SubmitFile(source, path string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fileErr != nil {
		return 0, f.fileErr
	}
	f.files = append(f.files, path)
	return 3, nil
}

func runREPL(t *testing.T, sub *fakeSubmitter, input string) string {
	t.Helper()
	out := &bytes.Buffer{}
	repl := NewREPL(sub, strings.NewReader(input), out, "test_tasks.txt", zerolog.Nop())
	require.NoError(t, repl.Run(context.Background()))
	return out.String()
}

func TestREPL_SubmitsTasksAsTyped(t *testing.T) {
	sub := &fakeSubmitter{}
	out := runREPL(t, sub, "What Is 2+2?\n  run command ls -la  \nquit\nnever submitted\n")

	assert.Contains(t, out, "=== Intelligent Programming Assistant ===")
	assert.Equal(t, []submission{
		{source: commandqueue.SourceInteractive, input: "What Is 2+2?"},
		{source: commandqueue.SourceInteractive, input: "run command ls -la"},
	}, sub.submitted)
}

func TestREPL_ControlWordsIgnoreCase(t *testing.T) {
	sub := &fakeSubmitter{}
	out := runREPL(t, sub, "HELP\nRun Tests\nQUIT\n")

	assert.Contains(t, out, "Available Commands:")
	assert.Contains(t, out, "'test_tasks.txt'")
	assert.Equal(t, []string{"test_tasks.txt"}, sub.files)
	assert.Empty(t, sub.submitted)
}

func TestREPL_HelpExplainsCaseSensitivePrefix(t *testing.T) {
	sub := &fakeSubmitter{}
	out := runREPL(t, sub, "help\nRun Command ls\nquit\n")

	assert.Contains(t, out, "run command <cmd>")
	assert.Contains(t, out, "case-sensitive")
	assert.Equal(t, []submission{
		{source: commandqueue.SourceInteractive, input: "Run Command ls"},
	}, sub.submitted)
}

func TestREPL_BlankLinesIgnored(t *testing.T) {
	sub := &fakeSubmitter{}
	runREPL(t, sub, "\n   \nquit\n")

	assert.Empty(t, sub.submitted)
}

func TestREPL_EOFEndsLoop(t *testing.T) {
	sub := &fakeSubmitter{}
	out := runREPL(t, sub, "run command true")

	assert.Len(t, sub.submitted, 1)
	assert.Equal(t, 2, strings.Count(out, prompt))
}

func TestREPL_RunTestsFailure(t *testing.T) {
	sub := &fakeSubmitter{fileErr: errors.New("no such file")}
	out := runREPL(t, sub, "run tests\nquit\n")

	assert.Contains(t, out, "Failed to load tasks from test_tasks.txt")
	assert.Empty(t, sub.submitted)
}

func TestREPL_ContextCancel(t *testing.T) {
	sub := &fakeSubmitter{}
	pr, pw := io.Pipe()
	defer pw.Close()

	out := &bytes.Buffer{}
	repl := NewREPL(sub, pr, out, "test_tasks.txt", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- repl.Run(ctx) }()

	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("REPL did not return after cancellation")
	}
}
