package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"chat-terminal/internal/models"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()

	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateChatDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, "demo", false)
	if err != nil {
		t.Fatalf("CreateChat() failed: %v", err)
	}

	if chat.ID == "" {
		t.Error("expected a generated chat id")
	}
	if chat.IsPublic {
		t.Error("new chat should default to private")
	}
	if len(chat.MessageIDs) != 0 {
		t.Errorf("new chat should have no messages, got %d", len(chat.MessageIDs))
	}
	if chat.CreatedAt.IsZero() {
		t.Error("expected a creation timestamp")
	}

	got, err := s.GetChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetChat() failed: %v", err)
	}
	if got.ID != chat.ID || got.Summary != "demo" {
		t.Errorf("GetChat() = %+v, want id %s, summary %q", got, chat.ID, "demo")
	}
}

func TestAppendMessageOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, "demo", false)
	if err != nil {
		t.Fatalf("CreateChat() failed: %v", err)
	}

	m1, err := s.AppendMessage(ctx, chat.ID, models.NewHumanMessage("alice", "hi", nil))
	if err != nil {
		t.Fatalf("AppendMessage(m1) failed: %v", err)
	}
	m2, err := s.AppendMessage(ctx, chat.ID, models.NewAssistantMessage("x", "hello"))
	if err != nil {
		t.Fatalf("AppendMessage(m2) failed: %v", err)
	}

	messages, err := s.GetMessages(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetMessages() failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].ID != m1.ID || messages[1].ID != m2.ID {
		t.Errorf("messages out of order: got [%s %s], want [%s %s]",
			messages[0].ID, messages[1].ID, m1.ID, m2.ID)
	}
	if messages[0].Kind != models.KindHuman || messages[1].Kind != models.KindAssistant {
		t.Errorf("unexpected kinds: %s, %s", messages[0].Kind, messages[1].Kind)
	}
	if messages[1].Model != "x" {
		t.Errorf("assistant message model = %q, want %q", messages[1].Model, "x")
	}

	got, err := s.GetChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetChat() failed: %v", err)
	}
	if len(got.MessageIDs) != 2 || got.MessageIDs[0] != m1.ID || got.MessageIDs[1] != m2.ID {
		t.Errorf("MessageIDs = %v, want [%s %s]", got.MessageIDs, m1.ID, m2.ID)
	}
	if got.NextSeq != 2 {
		t.Errorf("NextSeq = %d, want 2", got.NextSeq)
	}
}

func TestAppendManyKeepsOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, "long", false)
	if err != nil {
		t.Fatalf("CreateChat() failed: %v", err)
	}

	var want []string
	for i := 0; i < 50; i++ {
		msg, err := s.AppendMessage(ctx, chat.ID, models.NewHumanMessage("alice", "msg", nil))
		if err != nil {
			t.Fatalf("AppendMessage(%d) failed: %v", i, err)
		}
		want = append(want, msg.ID)
	}

	messages, err := s.GetMessages(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetMessages() failed: %v", err)
	}
	if len(messages) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(messages))
	}
	for i, msg := range messages {
		if msg.ID != want[i] {
			t.Fatalf("message %d out of order: got %s, want %s", i, msg.ID, want[i])
		}
		if msg.Seq != uint64(i) {
			t.Fatalf("message %d has seq %d", i, msg.Seq)
		}
	}
}

func TestAppendToMissingChat(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateChat(ctx, "existing", false); err != nil {
		t.Fatalf("CreateChat() failed: %v", err)
	}
	before, err := s.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats() failed: %v", err)
	}

	_, err = s.AppendMessage(ctx, "nonexistent-id", models.NewHumanMessage("alice", "hi", nil))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("AppendMessage to missing chat = %v, want ErrNotFound", err)
	}

	// No orphan message row and no state change
	messages, err := s.GetMessages(ctx, "nonexistent-id")
	if err != nil {
		t.Fatalf("GetMessages() failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("failed append left %d orphan messages", len(messages))
	}
	after, err := s.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats() failed: %v", err)
	}
	if len(after) != len(before) {
		t.Errorf("chat count changed from %d to %d", len(before), len(after))
	}
}

func TestDeleteChatCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, "doomed", false)
	if err != nil {
		t.Fatalf("CreateChat() failed: %v", err)
	}
	other, err := s.CreateChat(ctx, "survivor", false)
	if err != nil {
		t.Fatalf("CreateChat() failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.AppendMessage(ctx, chat.ID, models.NewHumanMessage("alice", "bye", nil)); err != nil {
			t.Fatalf("AppendMessage() failed: %v", err)
		}
	}
	kept, err := s.AppendMessage(ctx, other.ID, models.NewHumanMessage("bob", "still here", nil))
	if err != nil {
		t.Fatalf("AppendMessage() failed: %v", err)
	}

	if err := s.DeleteChat(ctx, chat.ID); err != nil {
		t.Fatalf("DeleteChat() failed: %v", err)
	}

	if _, err := s.GetChat(ctx, chat.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetChat after delete = %v, want ErrNotFound", err)
	}
	messages, err := s.GetMessages(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetMessages() failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("delete left %d messages behind", len(messages))
	}

	// The other chat's message is untouched
	messages, err = s.GetMessages(ctx, other.ID)
	if err != nil {
		t.Fatalf("GetMessages() failed: %v", err)
	}
	if len(messages) != 1 || messages[0].ID != kept.ID {
		t.Errorf("unrelated chat lost its messages: %v", messages)
	}
}

func TestDeleteMissingChatIsNoOp(t *testing.T) {
	s := newTestStore(t)

	if err := s.DeleteChat(context.Background(), "nonexistent-id"); err != nil {
		t.Errorf("DeleteChat of absent chat = %v, want nil", err)
	}
}

func TestPartialUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, "before", false)
	if err != nil {
		t.Fatalf("CreateChat() failed: %v", err)
	}
	if _, err := s.AppendMessage(ctx, chat.ID, models.NewHumanMessage("alice", "hi", nil)); err != nil {
		t.Fatalf("AppendMessage() failed: %v", err)
	}

	if err := s.UpdateChatSummary(ctx, chat.ID, "after"); err != nil {
		t.Fatalf("UpdateChatSummary() failed: %v", err)
	}
	got, err := s.GetChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetChat() failed: %v", err)
	}
	if got.Summary != "after" {
		t.Errorf("Summary = %q, want %q", got.Summary, "after")
	}
	if got.IsPublic {
		t.Error("summary update changed visibility")
	}
	if len(got.MessageIDs) != 1 {
		t.Errorf("summary update changed MessageIDs: %v", got.MessageIDs)
	}

	if err := s.SetChatVisibility(ctx, chat.ID, true); err != nil {
		t.Fatalf("SetChatVisibility() failed: %v", err)
	}
	got, err = s.GetChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetChat() failed: %v", err)
	}
	if !got.IsPublic {
		t.Error("visibility update did not stick")
	}
	if got.Summary != "after" {
		t.Errorf("visibility update changed summary to %q", got.Summary)
	}

	if err := s.UpdateChatSummary(ctx, "nonexistent-id", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateChatSummary on missing chat = %v, want ErrNotFound", err)
	}
	if err := s.SetChatVisibility(ctx, "nonexistent-id", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetChatVisibility on missing chat = %v, want ErrNotFound", err)
	}
}

func TestListChatsOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		chat, err := s.CreateChat(ctx, "chat", false)
		if err != nil {
			t.Fatalf("CreateChat() failed: %v", err)
		}
		ids = append(ids, chat.ID)
		time.Sleep(2 * time.Millisecond)
	}

	chats, err := s.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats() failed: %v", err)
	}
	if len(chats) != 3 {
		t.Fatalf("expected 3 chats, got %d", len(chats))
	}
	// Most recently created first
	for i, chat := range chats {
		if chat.ID != ids[len(ids)-1-i] {
			t.Errorf("position %d: got %s, want %s", i, chat.ID, ids[len(ids)-1-i])
		}
	}
}

func TestReopenSeesSameData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	chat, err := s.CreateChat(ctx, "durable", true)
	if err != nil {
		t.Fatalf("CreateChat() failed: %v", err)
	}
	msg, err := s.AppendMessage(ctx, chat.ID, models.NewHumanMessage("alice", "hi", nil))
	if err != nil {
		t.Fatalf("AppendMessage() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	got, err := s.GetChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetChat() after reopen failed: %v", err)
	}
	if got.Summary != "durable" || !got.IsPublic {
		t.Errorf("reopened chat = %+v", got)
	}
	messages, err := s.GetMessages(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetMessages() after reopen failed: %v", err)
	}
	if len(messages) != 1 || messages[0].ID != msg.ID || messages[0].Text != "hi" {
		t.Errorf("reopened messages = %v", messages)
	}
}

func TestAppendRejectsInvalidVariant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, "demo", false)
	if err != nil {
		t.Fatalf("CreateChat() failed: %v", err)
	}

	bad := models.NewHumanMessage("alice", "hi", nil)
	bad.Model = "x"
	if _, err := s.AppendMessage(ctx, chat.ID, bad); err == nil {
		t.Error("expected append of invalid variant to fail")
	}

	messages, err := s.GetMessages(ctx, chat.ID)
	if err != nil {
		t.Fatalf("GetMessages() failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("rejected message was stored anyway: %v", messages)
	}
}
