// internal/genai/openai.go
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAIGenerator implements ReplyGenerator on the OpenAI chat
// completions API.
type OpenAIGenerator struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewOpenAIGenerator(apiKey string) *OpenAIGenerator {
	return &OpenAIGenerator{
		apiKey:     apiKey,
		model:      "gpt-4o-mini",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *OpenAIGenerator) GenerateReply(ctx context.Context, history []Message, message string) (*Reply, error) {
	type chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	messages := make([]chatMessage, 0, len(history)+1)
	for _, h := range history {
		role := h.Role
		if role == "model" {
			role = "assistant"
		}
		messages = append(messages, chatMessage{Role: role, Content: h.Text})
	}
	messages = append(messages, chatMessage{Role: "user", Content: message})

	body, err := json.Marshal(map[string]interface{}{
		"model":    g.model,
		"messages": messages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEndpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call openai API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai API error: status %s", resp.Status)
	}

	var data struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse openai response: %w", err)
	}
	if len(data.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	return &Reply{Text: data.Choices[0].Message.Content}, nil
}
