package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"chat-terminal/internal/models"
)

// schemaVersion is the layout this build reads and writes. Version history:
//
//	1: chat rows under "metadata:chat:<id>", message rows under
//	   "chat:<chatID>:msg:<msgID>" with no sequence; chats carried no
//	   visibility flag and no message-id list.
//	2: current layout (see badger.go). Messages are rekeyed by sequence in
//	   timestamp order, chats gain MessageIDs, NextSeq and IsPublic
//	   (defaulting to private).
const schemaVersion = 2

var versionKey = []byte("schema:version")

const (
	legacyChatKeyPrefix = "metadata:chat:"
	legacyMsgInfix      = ":msg:"
)

// migrations[n] upgrades the layout from version n to n+1 inside a single
// transaction.
var migrations = map[int]func(txn *badger.Txn) error{
	1: migrateV1ChatLayout,
}

// migrate brings the database up to schemaVersion. It runs zero steps on an
// up-to-date store and each pending step exactly once; a failed step rolls
// back and surfaces as a MigrationError.
func migrate(db *badger.DB) error {
	version, err := readVersion(db)
	if err != nil {
		return &MigrationError{From: 0, To: schemaVersion, Err: err}
	}

	if version == 0 {
		// No version stamp: either a fresh database or one written before
		// versioning existed, which used the legacy chat key prefix.
		legacy, err := hasLegacyData(db)
		if err != nil {
			return &MigrationError{From: 0, To: schemaVersion, Err: err}
		}
		if !legacy {
			if err := writeVersion(db, schemaVersion); err != nil {
				return &MigrationError{From: 0, To: schemaVersion, Err: err}
			}
			return nil
		}
		version = 1
	}

	if version > schemaVersion {
		return &MigrationError{
			From: version,
			To:   schemaVersion,
			Err:  fmt.Errorf("database was written by a newer build"),
		}
	}

	for ; version < schemaVersion; version++ {
		step := migrations[version]
		target := version + 1
		err := db.Update(func(txn *badger.Txn) error {
			if err := step(txn); err != nil {
				return err
			}
			return setVersion(txn, target)
		})
		if err != nil {
			return &MigrationError{From: version, To: target, Err: err}
		}
	}

	return nil
}

func readVersion(db *badger.DB) (int, error) {
	version := 0
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(versionKey)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			v, err := strconv.Atoi(string(val))
			if err != nil {
				return fmt.Errorf("corrupt version stamp %q: %w", val, err)
			}
			version = v
			return nil
		})
	})
	return version, err
}

func writeVersion(db *badger.DB, version int) error {
	return db.Update(func(txn *badger.Txn) error {
		return setVersion(txn, version)
	})
}

func setVersion(txn *badger.Txn, version int) error {
	return txn.Set(versionKey, []byte(strconv.Itoa(version)))
}

func hasLegacyData(db *badger.DB) (bool, error) {
	found := false
	prefix := []byte(legacyChatKeyPrefix)
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		it.Seek(prefix)
		found = it.ValidForPrefix(prefix)
		return nil
	})
	return found, err
}

// migrateV1ChatLayout rewrites every chat and message from the version 1
// layout. Messages are ordered by timestamp (id as tiebreak) and assigned
// sequence numbers; each chat's MessageIDs and NextSeq are backfilled from
// that order and IsPublic defaults to false. Legacy message rows whose chat
// no longer exists are dropped rather than carried over as orphans.
func migrateV1ChatLayout(txn *badger.Txn) error {
	chats, err := collectLegacyChats(txn)
	if err != nil {
		return err
	}
	msgsByChat, orphanKeys, err := collectLegacyMessages(txn, chats)
	if err != nil {
		return err
	}

	for id, chat := range chats {
		msgs := msgsByChat[id]
		sort.Slice(msgs, func(i, j int) bool {
			if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
				return msgs[i].ID < msgs[j].ID
			}
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		})

		chat.MessageIDs = make([]string, 0, len(msgs))
		for seq, msg := range msgs {
			msg.Seq = uint64(seq)
			if err := putJSON(txn, msgKey(id, msg.Seq), msg); err != nil {
				return err
			}
			chat.MessageIDs = append(chat.MessageIDs, msg.ID)
		}
		chat.NextSeq = uint64(len(msgs))

		if err := putJSON(txn, chatKey(id), chat); err != nil {
			return err
		}
		if err := txn.Delete([]byte(legacyChatKeyPrefix + id)); err != nil {
			return err
		}
	}

	for _, key := range orphanKeys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}

	return nil
}

func collectLegacyChats(txn *badger.Txn) (map[string]*models.Chat, error) {
	chats := make(map[string]*models.Chat)
	prefix := []byte(legacyChatKeyPrefix)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			var chat models.Chat
			if err := json.Unmarshal(val, &chat); err != nil {
				return fmt.Errorf("corrupt legacy chat row: %w", err)
			}
			chats[chat.ID] = &chat
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return chats, nil
}

// collectLegacyMessages gathers version 1 message rows grouped by chat,
// deleting each legacy key as it goes. Rows referencing an unknown chat are
// returned as orphan keys for removal.
func collectLegacyMessages(txn *badger.Txn, chats map[string]*models.Chat) (map[string][]*models.Message, [][]byte, error) {
	msgsByChat := make(map[string][]*models.Message)
	var legacyKeys, orphanKeys [][]byte
	prefix := []byte(chatKeyPrefix)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().KeyCopy(nil)
		if !strings.Contains(string(key), legacyMsgInfix) {
			continue
		}

		var msg models.Message
		err := it.Item().Value(func(val []byte) error {
			if err := json.Unmarshal(val, &msg); err != nil {
				return fmt.Errorf("corrupt legacy message row %q: %w", key, err)
			}
			return nil
		})
		if err != nil {
			it.Close()
			return nil, nil, err
		}

		if _, ok := chats[msg.ChatID]; ok {
			msgsByChat[msg.ChatID] = append(msgsByChat[msg.ChatID], &msg)
			legacyKeys = append(legacyKeys, key)
		} else {
			orphanKeys = append(orphanKeys, key)
		}
	}
	it.Close()

	for _, key := range legacyKeys {
		if err := txn.Delete(key); err != nil {
			return nil, nil, err
		}
	}
	return msgsByChat, orphanKeys, nil
}
