// Package agent routes one task either to the shell or to a remote chat-completion provider.
//
// Invariants:
// - Input is parsed once into a Command: ShellCommand or ConversationTurn.
// - An agent's history always starts with its system message.
// - Reply failures become fixed outcome strings; only a successful reply is appended as an assistant message.
//
// Usage:
//
//	provider, _ := (&agent.ProviderFactory{}).NewProvider(agent.ProviderConfig{Provider: "openai", Endpoint: url})
//	replier := agent.NewReplyClient(provider, agent.ReplyConfig{Model: "local-model"})
//	a := agent.New("agent_1", agent.DefaultSystemMessage, agent.Deps{Executor: exec, Replier: replier})
//	outcome := a.Handle(ctx, "run command echo hi")
//	_ = outcome
package agent
