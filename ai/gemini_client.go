package ai

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

const geminiChatModel = "gemini-2.5-flash"

// GeminiClient generates replies through the Gemini API.
type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	genClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: genClient}, nil
}

func (c *GeminiClient) Name() string { return "gemini" }

// Complete implements ChatProvider.
func (c *GeminiClient) Complete(ctx context.Context, systemPrompt string, history []Turn, userText string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := genai.Role(genai.RoleModel)
		if turn.Role == RoleUser {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}

	chat, err := c.client.Chats.Create(ctx, geminiChatModel, config, contents)
	if err != nil {
		return "", err
	}

	res, err := chat.SendMessage(ctx, genai.Part{Text: userText})
	if err != nil {
		return "", err
	}

	// Blocked or empty candidates come back without an error.
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(res.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrEmptyCompletion
	}

	return text, nil
}
