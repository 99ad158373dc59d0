package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat is a conversation owning an ordered list of messages.
//
// NextSeq is the per-chat monotonic sequence assigned to the next appended
// message. MessageIDs mirrors the committed message rows in append order and
// is only ever updated in the same store transaction as the row itself.
type Chat struct {
	ID         string    `json:"id"`
	Summary    string    `json:"summary"`
	IsPublic   bool      `json:"is_public"`
	CreatedAt  time.Time `json:"created_at"`
	MessageIDs []string  `json:"message_ids"`
	NextSeq    uint64    `json:"next_seq"`
}

func NewChat(summary string, isPublic bool) *Chat {
	return &Chat{
		ID:         uuid.New().String(),
		Summary:    summary,
		IsPublic:   isPublic,
		CreatedAt:  time.Now(),
		MessageIDs: []string{},
	}
}
