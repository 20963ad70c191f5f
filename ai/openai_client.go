package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Defaults for the two OpenAI-compatible backends.
const (
	PollinationsBaseURL = "https://text.pollinations.ai/openai"
	PollinationsModel   = "openai-large"
	GroqBaseURL         = "https://api.groq.com/openai/v1"
	GroqModel           = "llama-3.3-70b-versatile"
)

// OpenAIClient talks to any chat-completions endpoint that speaks the OpenAI
// wire format. Pollinations and Groq both do.
type OpenAIClient struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewPollinationsClient returns a client for the free Pollinations backend.
// Pollinations does not validate the API key; a placeholder is sent.
func NewPollinationsClient(baseURL string) *OpenAIClient {
	if baseURL == "" {
		baseURL = PollinationsBaseURL
	}
	return newOpenAIClient("pollinations", baseURL, "free", PollinationsModel)
}

// NewGroqClient returns a client for the Groq chat-completions API.
func NewGroqClient(apiKey string) *OpenAIClient {
	return newOpenAIClient("groq", GroqBaseURL, apiKey, GroqModel)
}

func newOpenAIClient(name, baseURL, apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *OpenAIClient) Name() string { return c.name }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete implements ChatProvider.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt string, history []Turn, userText string) (string, error) {
	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	for _, turn := range history {
		role := RoleAssistant
		if turn.Role == RoleUser {
			role = RoleUser
		}
		messages = append(messages, chatMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, chatMessage{Role: RoleUser, Content: userText})

	requestBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   256,
		Temperature: 0.85,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status code %d: %s", resp.StatusCode, string(body))
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}

	if completion.Error != nil {
		return "", errors.New("API error: " + completion.Error.Message)
	}

	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}

	return text, nil
}
