package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates who authored a message.
type Kind string

const (
	KindHuman     Kind = "human"
	KindAssistant Kind = "assistant"
	KindSystem    Kind = "system"
)

// Message is a single turn in a chat. Model is set only on assistant
// messages, User and Images only on human messages; Validate enforces this.
// Seq is assigned by the store when the message is appended.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Seq       uint64    `json:"seq"`
	Kind      Kind      `json:"kind"`
	Model     string    `json:"model,omitempty"`
	User      string    `json:"user,omitempty"`
	Text      string    `json:"text"`
	Images    []string  `json:"images,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewHumanMessage builds a message authored by the named user, optionally
// carrying attachment references.
func NewHumanMessage(user, text string, images []string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Kind:      KindHuman,
		User:      user,
		Text:      text,
		Images:    images,
		CreatedAt: time.Now(),
	}
}

// NewAssistantMessage builds a message produced by the named model.
func NewAssistantMessage(model, text string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Kind:      KindAssistant,
		Model:     model,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

func NewSystemMessage(text string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Kind:      KindSystem,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// Validate checks that the message carries only the fields allowed for its
// kind.
func (m *Message) Validate() error {
	switch m.Kind {
	case KindHuman:
		if m.Model != "" {
			return fmt.Errorf("human message must not carry a model")
		}
	case KindAssistant:
		if m.User != "" || len(m.Images) > 0 {
			return fmt.Errorf("assistant message must not carry a user or images")
		}
		if m.Model == "" {
			return fmt.Errorf("assistant message requires a model")
		}
	case KindSystem:
		if m.Model != "" || m.User != "" || len(m.Images) > 0 {
			return fmt.Errorf("system message must not carry a model, user or images")
		}
	default:
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}
	return nil
}
