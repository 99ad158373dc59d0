package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-terminal/internal/models"
)

// Key layout (schema version 2):
//
//	schema:version          decimal schema version
//	chat:<id>               chat row, json
//	msg:<chatID>:<seq>      message row, json; seq is zero-padded so byte
//	                        order of keys equals append order
const (
	chatKeyPrefix = "chat:"
	msgKeyPrefix  = "msg:"
)

// retries for transactions that lose a serializability conflict before the
// failure is surfaced to the caller
const maxTxnRetries = 3

type BadgerStore struct {
	db *badger.DB
}

// Open opens (creating on first use) the chat database at dbPath and brings
// its schema up to the current version before returning. The directory lock
// held by badger guarantees a single live handle per store; open once at
// startup and pass the handle around.
func Open(dbPath string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) CreateChat(ctx context.Context, summary string, isPublic bool) (*models.Chat, error) {
	chat := models.NewChat(summary, isPublic)

	err := s.update("create chat", func(txn *badger.Txn) error {
		return putJSON(txn, chatKey(chat.ID), chat)
	})
	if err != nil {
		return nil, err
	}

	return chat, nil
}

// AppendMessage commits the message row and the owning chat's message-id
// list together; a failure leaves neither visible.
func (s *BadgerStore) AppendMessage(ctx context.Context, chatID string, draft *models.Message) (*models.Message, error) {
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	msg := *draft
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.ChatID = chatID

	err := s.update("append message", func(txn *badger.Txn) error {
		chat, err := getChat(txn, chatID)
		if err != nil {
			return err
		}

		msg.Seq = chat.NextSeq
		if err := putJSON(txn, msgKey(chatID, msg.Seq), &msg); err != nil {
			return err
		}

		chat.MessageIDs = append(chat.MessageIDs, msg.ID)
		chat.NextSeq++
		return putJSON(txn, chatKey(chatID), chat)
	})
	if err != nil {
		return nil, err
	}

	return &msg, nil
}

func (s *BadgerStore) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	var chat *models.Chat

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		chat, err = getChat(txn, chatID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to retrieve chat: %w", err)
	}

	return chat, nil
}

func (s *BadgerStore) ListChats(ctx context.Context) ([]models.Chat, error) {
	var chats []models.Chat
	prefix := []byte(chatKeyPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var chat models.Chat
				if err := json.Unmarshal(val, &chat); err != nil {
					return err
				}
				chats = append(chats, chat)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	// Sort by creation date descending
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].CreatedAt.After(chats[j].CreatedAt)
	})

	return chats, nil
}

// GetMessages returns the chat's messages in the order recorded on the chat
// row. Message keys already iterate in sequence order, but the recorded list
// stays authoritative so a divergent iteration order can never leak out.
func (s *BadgerStore) GetMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	byID := make(map[string]models.Message)
	var order []string
	prefix := []byte(msgPrefix(chatID))

	err := s.db.View(func(txn *badger.Txn) error {
		chat, err := getChat(txn, chatID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}
		order = chat.MessageIDs

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var msg models.Message
				if err := json.Unmarshal(val, &msg); err != nil {
					return err
				}
				byID[msg.ID] = msg
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve messages: %w", err)
	}

	messages := make([]models.Message, 0, len(order))
	for _, id := range order {
		if msg, ok := byID[id]; ok {
			messages = append(messages, msg)
		}
	}

	return messages, nil
}

func (s *BadgerStore) UpdateChatSummary(ctx context.Context, chatID, summary string) error {
	return s.update("update chat summary", func(txn *badger.Txn) error {
		chat, err := getChat(txn, chatID)
		if err != nil {
			return err
		}
		chat.Summary = summary
		return putJSON(txn, chatKey(chatID), chat)
	})
}

func (s *BadgerStore) SetChatVisibility(ctx context.Context, chatID string, isPublic bool) error {
	return s.update("set chat visibility", func(txn *badger.Txn) error {
		chat, err := getChat(txn, chatID)
		if err != nil {
			return err
		}
		chat.IsPublic = isPublic
		return putJSON(txn, chatKey(chatID), chat)
	})
}

// DeleteChat removes the chat row and every message row under the chat's
// prefix in one transaction. Deleting an absent chat is a no-op.
func (s *BadgerStore) DeleteChat(ctx context.Context, chatID string) error {
	return s.update("delete chat", func(txn *badger.Txn) error {
		if err := txn.Delete(chatKey(chatID)); err != nil && err != badger.ErrKeyNotFound {
			return fmt.Errorf("failed to delete chat row: %w", err)
		}

		prefix := []byte(msgPrefix(chatID))
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)

		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("failed to delete message row: %w", err)
			}
		}
		return nil
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying serializability
// conflicts (two rapid appends against the same chat row) a few times.
// Anything other than ErrNotFound comes back as a WriteError.
func (s *BadgerStore) update(op string, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return &WriteError{Op: op, Err: err}
}

func chatKey(chatID string) []byte {
	return []byte(chatKeyPrefix + chatID)
}

func msgPrefix(chatID string) string {
	return fmt.Sprintf("%s%s:", msgKeyPrefix, chatID)
}

func msgKey(chatID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%012d", msgPrefix(chatID), seq))
}

func getChat(txn *badger.Txn, chatID string) (*models.Chat, error) {
	item, err := txn.Get(chatKey(chatID))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var chat models.Chat
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &chat)
	})
	if err != nil {
		return nil, err
	}

	return &chat, nil
}

func putJSON(txn *badger.Txn, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}
	return txn.Set(key, data)
}
