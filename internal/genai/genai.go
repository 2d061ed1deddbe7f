// internal/genai/genai.go
package genai

import "context"

// Message is one turn of conversation history.
type Message struct {
	Role string // "user" or "model"
	Text string
}

// Reply is what the text-generation oracle returns: a reply for the
// customer plus, optionally, a structured intent the model recognized.
type Reply struct {
	Text   string
	Intent string // empty when the model returned plain text only
}

// ReplyGenerator is the external text-generation oracle. The automatic
// pipeline must work with this collaborator entirely absent, so every
// caller treats a nil generator as "feature off". One implementation per
// provider; callers never branch on provider names.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, history []Message, message string) (*Reply, error)
}

// NewReplyGenerator picks the provider from the configured keys. Gemini
// wins when both are set; no key at all disables the feature.
func NewReplyGenerator(geminiKey, openaiKey string) ReplyGenerator {
	if geminiKey != "" {
		return NewGeminiGenerator(geminiKey)
	}
	if openaiKey != "" {
		return NewOpenAIGenerator(openaiKey)
	}
	return nil
}
