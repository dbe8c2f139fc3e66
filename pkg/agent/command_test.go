package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Command
	}{
		{"shell command", "run command echo hi", ShellCommand{Text: "echo hi"}},
		{"shell command trims", "run command    ls -la  ", ShellCommand{Text: "ls -la"}},
		{"empty shell command", "run command ", ShellCommand{Text: ""}},
		{"prefix without space", "run command", ConversationTurn{Text: "run command"}},
		{"case sensitive", "Run command echo hi", ConversationTurn{Text: "Run command echo hi"}},
		{"prefix not at start", "please run command ls", ConversationTurn{Text: "please run command ls"}},
		{"plain question", "what is 2+2?", ConversationTurn{Text: "what is 2+2?"}},
		{"empty input", "", ConversationTurn{Text: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommand(tt.input))
		})
	}
}
