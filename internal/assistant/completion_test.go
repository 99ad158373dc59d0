package assistant

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chat-terminal/internal/models"
)

func TestPromptFromHistory(t *testing.T) {
	history := []models.Message{
		*models.NewSystemMessage("be brief"),
		*models.NewHumanMessage("alice", "hi", nil),
		*models.NewAssistantMessage("x", "hello"),
	}

	prompt := promptFromHistory(history)
	if len(prompt) != 3 {
		t.Fatalf("expected 3 prompt messages, got %d", len(prompt))
	}

	wantRoles := []string{"system", "user", "assistant"}
	for i, want := range wantRoles {
		if prompt[i].Role != want {
			t.Errorf("prompt[%d].Role = %q, want %q", i, prompt[i].Role, want)
		}
	}
	if prompt[1].Content != "hi" {
		t.Errorf("prompt[1].Content = %q", prompt[1].Content)
	}
}

func TestCompleteStreamsTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, token := range []string{"hel", "lo"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", token)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	streamChan, errChan, err := client.Complete(context.Background(), []models.Message{
		*models.NewHumanMessage("alice", "say hello", nil),
	}, 0.7, 64)
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}

	var b strings.Builder
	for token := range streamChan {
		b.WriteString(token)
	}
	if err := <-errChan; err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if b.String() != "hello" {
		t.Errorf("streamed %q, want %q", b.String(), "hello")
	}
}

func TestCompleteSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	_, _, err := client.Complete(context.Background(), nil, 0.7, 64)
	if err == nil {
		t.Fatal("expected an error from a 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error %q does not mention the status", err)
	}
}
