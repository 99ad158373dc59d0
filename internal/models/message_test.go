package models

import (
	"testing"
)

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		message *Message
		wantErr bool
	}{
		{
			name:    "human message",
			message: NewHumanMessage("alice", "hi", []string{"cat.png"}),
			wantErr: false,
		},
		{
			name:    "assistant message",
			message: NewAssistantMessage("x", "hello"),
			wantErr: false,
		},
		{
			name:    "system message",
			message: NewSystemMessage("be helpful"),
			wantErr: false,
		},
		{
			name: "human message with model",
			message: func() *Message {
				m := NewHumanMessage("alice", "hi", nil)
				m.Model = "x"
				return m
			}(),
			wantErr: true,
		},
		{
			name: "assistant message with user",
			message: func() *Message {
				m := NewAssistantMessage("x", "hello")
				m.User = "alice"
				return m
			}(),
			wantErr: true,
		},
		{
			name: "assistant message without model",
			message: func() *Message {
				m := NewAssistantMessage("x", "hello")
				m.Model = ""
				return m
			}(),
			wantErr: true,
		},
		{
			name: "system message with images",
			message: func() *Message {
				m := NewSystemMessage("be helpful")
				m.Images = []string{"cat.png"}
				return m
			}(),
			wantErr: true,
		},
		{
			name:    "unknown kind",
			message: &Message{ID: "m1", Kind: Kind("robot")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.message.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConstructorsAssignUniqueIDs(t *testing.T) {
	a := NewHumanMessage("alice", "hi", nil)
	b := NewHumanMessage("alice", "hi", nil)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
}
