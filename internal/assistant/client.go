// Package assistant talks to an OpenAI-compatible chat-completions endpoint
// to produce model replies. It is a collaborator of the chat store, never a
// dependency of it.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chat-terminal/internal/models"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:18181"
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Model returns the model identifier recorded on assistant messages.
func (c *Client) Model() string {
	return c.model
}

type completionRequest struct {
	Model       string          `json:"model"`
	Messages    []promptMessage `json:"messages"`
	Stream      bool            `json:"stream"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type promptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      promptMessage `json:"message,omitempty"`
		Delta        promptMessage `json:"delta,omitempty"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
}

// promptFromHistory maps stored messages onto completion roles.
func promptFromHistory(history []models.Message) []promptMessage {
	prompt := make([]promptMessage, 0, len(history))
	for _, msg := range history {
		role := "user"
		switch msg.Kind {
		case models.KindAssistant:
			role = "assistant"
		case models.KindSystem:
			role = "system"
		}
		prompt = append(prompt, promptMessage{Role: role, Content: msg.Text})
	}
	return prompt
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	return resp, nil
}
