package llm

import "context"

// Completer is the language-model gateway as seen by the engines.
// A zero Params uses the client's configured defaults.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage, params Params) (string, error)
}

// Ensure Client implements Completer interface
var _ Completer = (*Client)(nil)

// CompleteWithSystem is a convenience for a system + user prompt pair
func CompleteWithSystem(ctx context.Context, c Completer, systemPrompt, userPrompt string, params Params) (string, error) {
	messages := []ChatMessage{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: userPrompt},
	}
	return c.Complete(ctx, messages, params)
}
