package assistant

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"chat-terminal/internal/models"
)

// Complete streams a reply to the given conversation history. Tokens arrive
// on the returned string channel; both channels close when the stream ends.
func (c *Client) Complete(ctx context.Context, history []models.Message, temperature float64, maxTokens int) (<-chan string, <-chan error, error) {
	req := completionRequest{
		Model:       c.model,
		Messages:    promptFromHistory(history),
		Stream:      true,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	resp, err := c.doRequest(ctx, "POST", "/v1/chat/completions", req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to make chat completion request: %w", err)
	}

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, nil, fmt.Errorf("chat completion API returned status %d: %s", resp.StatusCode, string(body))
	}

	streamChan := make(chan string, 10)
	errChan := make(chan error, 1)

	go func() {
		defer resp.Body.Close()
		defer close(streamChan)
		defer close(errChan)

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					errChan <- fmt.Errorf("error reading stream: %w", err)
				}
				return
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			if line == "data:[DONE]" || line == "data: [DONE]" {
				return
			}

			if !strings.HasPrefix(line, "data:") {
				continue
			}

			jsonData := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			var streamResp completionResponse
			if err := json.Unmarshal([]byte(jsonData), &streamResp); err != nil {
				errChan <- fmt.Errorf("failed to decode stream response: %w", err)
				return
			}

			if len(streamResp.Choices) > 0 {
				delta := streamResp.Choices[0].Delta.Content
				if delta != "" {
					select {
					case streamChan <- delta:
					case <-ctx.Done():
						return
					}
				}

				if streamResp.Choices[0].FinishReason != "" {
					return
				}
			}
		}
	}()

	return streamChan, errChan, nil
}
