// Package llm defines the Provider interface for Large Language Model backends
// used as the last-resort terminology classifier.
//
// A provider wraps a remote or local model API (OpenAI, Anthropic, a local
// Ollama or llama.cpp server, ...) and exposes a single blocking completion
// call so the classifier never couples to a specific SDK.
//
// Implementations must be safe for concurrent use.
package llm

import "context"

// Message roles understood by every backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a completion request.
type Message struct {
	// Role is one of RoleSystem, RoleUser or RoleAssistant.
	Role string

	// Content is the text of the message.
	Content string
}

// Usage holds token accounting returned by the backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the model needs to answer.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation. The last message drives the reply.
	Messages []Message

	// SystemPrompt is an optional instruction injected before Messages.
	// Backends without a dedicated system field prepend it as a system message.
	SystemPrompt string

	// Temperature controls randomness. Zero leaves the provider default.
	Temperature float64

	// MaxTokens caps generated tokens. Zero leaves the provider default.
	MaxTokens int
}

// CompletionResponse is the model's full reply.
type CompletionResponse struct {
	// Content is the assistant text.
	Content string

	// FinishReason reports why generation stopped ("stop", "length", ...).
	FinishReason string

	// Usage contains token accounting for this request.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
type Provider interface {
	// Complete sends req to the model and waits for the full response. It must
	// return promptly once ctx is cancelled.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Model returns the model identifier requests are sent to.
	Model() string
}
