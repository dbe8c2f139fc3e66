package agent

import "strings"

// ShellPrefix marks input that should run as a local shell command
const ShellPrefix = "run command "

// Command is the parsed form of a task input
type Command interface {
	isCommand()
}

// ShellCommand asks the agent to run Text in a shell
type ShellCommand struct {
	Text string
}

// ConversationTurn asks the agent to forward Text to the remote provider
type ConversationTurn struct {
	Text string
}

func (ShellCommand) isCommand()     {}
func (ConversationTurn) isCommand() {}

// ParseCommand turns raw input into a Command. The prefix match is case-sensitive.
func ParseCommand(input string) Command {
	if rest, ok := strings.CutPrefix(input, ShellPrefix); ok {
		return ShellCommand{Text: strings.TrimSpace(rest)}
	}
	return ConversationTurn{Text: input}
}
