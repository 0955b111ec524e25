package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultAPIURL = "https://open.bigmodel.cn/api/paas/v4/chat/completions"
	DefaultModel  = "glm-4.6"
)

// TextGenerator turns a prompt into raw model text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatClient talks to an OpenAI compatible chat-completions endpoint.
type ChatClient struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

func NewChatClient(apiKey, apiURL, model string, timeout time.Duration) (*ChatClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is not set")
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &ChatClient{
		apiKey:      apiKey,
		apiURL:      apiURL,
		model:       model,
		maxTokens:   1024,
		temperature: 0.8,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

// WithTemperature returns a copy of c sampling at t.
func (c *ChatClient) WithTemperature(t float64) *ChatClient {
	cp := *c
	cp.temperature = t
	return &cp
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends prompt as a single user message and returns the first
// choice, trimmed. An empty choice list yields "" without error.
func (c *ChatClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ChatRequest{
		Model:       c.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("api error: %s", out.Error.Message)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("api status %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
