// Package ai contains the clients for the external chat-completion and
// speech-synthesis providers. All chat backends implement ChatProvider and are
// interchangeable; the rest of the application depends only on the interface.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// Turn roles for conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyCompletion is returned when a provider answers successfully but with
// no usable text. Callers treat it like any other provider failure.
var ErrEmptyCompletion = errors.New("provider returned an empty completion")

// Turn is one prior message supplied as context to the provider.
type Turn struct {
	Role    string
	Content string
}

// ChatProvider generates one in-character reply. A single attempt is made per
// call; retries are a deployment concern, not the client's.
type ChatProvider interface {
	// Complete sends the system prompt, the prior turns in conversation
	// order, and the new user text, and returns the generated reply.
	Complete(ctx context.Context, systemPrompt string, history []Turn, userText string) (string, error)

	// Name identifies the backend for logs and metrics.
	Name() string
}

// SpeechSynthesizer converts text to audio for a given voice.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, voiceName string) ([]byte, error)
}

// BuildSystemPrompt renders the persona instruction sent ahead of every turn.
// Replies are directed to stay in Chinese, in character, and short.
func BuildSystemPrompt(name, personality, intro string) string {
	return fmt.Sprintf(
		"你是%s，一个%s性格的虚拟伴侣。%s\n请用中文回复，保持角色特色，语气自然亲切，回复在80字以内。",
		name, personality, intro,
	)
}
