package store

import (
	"context"

	"chat-terminal/internal/models"
)

// ChatStore is the durable home of chats and their messages.
type ChatStore interface {
	// CreateChat writes a new empty chat and returns it.
	CreateChat(ctx context.Context, summary string, isPublic bool) (*models.Chat, error)

	// AppendMessage assigns the draft an id and the chat's next sequence
	// number, then commits the message row and the chat's message-id list
	// in a single transaction. ErrNotFound if the chat does not exist.
	AppendMessage(ctx context.Context, chatID string, draft *models.Message) (*models.Message, error)

	// GetChat retrieves a chat by id. ErrNotFound if absent.
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)

	// ListChats retrieves all chats, most recently created first.
	ListChats(ctx context.Context) ([]models.Chat, error)

	// GetMessages retrieves a chat's messages in the order recorded on the
	// chat, not in storage iteration order. An absent chat yields an empty
	// slice.
	GetMessages(ctx context.Context, chatID string) ([]models.Message, error)

	// UpdateChatSummary rewrites only the chat's summary.
	UpdateChatSummary(ctx context.Context, chatID, summary string) error

	// SetChatVisibility rewrites only the chat's public flag.
	SetChatVisibility(ctx context.Context, chatID string, isPublic bool) error

	// DeleteChat removes the chat and every message it owns in one
	// transaction. Deleting an absent chat is a no-op.
	DeleteChat(ctx context.Context, chatID string) error

	// Close closes the database.
	Close() error
}
