package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"chat-terminal/internal/assistant"
	"chat-terminal/internal/config"
	"chat-terminal/internal/logging"
	"chat-terminal/internal/store"
	"chat-terminal/internal/ui"
)

type appState int

const (
	stateChatList appState = iota
	stateChatCreate
	stateChatView
)

type model struct {
	state  appState
	store  store.ChatStore
	client *assistant.Client
	cfg    *config.Config

	// UI models
	chatListModel   ui.ChatListModel
	chatCreateModel ui.ChatCreateModel
	chatViewModel   ui.ChatViewModel

	// Screen size
	width  int
	height int

	// Error state
	err error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ui.ApplyTheme(cfg.Theme)

	if os.Getenv("CHAT_DEBUG") != "" {
		if err := logging.InitLogger(); err != nil {
			log.Printf("Failed to init debug log: %v", err)
		}
		defer logging.Close()
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		log.Fatalf("Failed to resolve database path: %v", err)
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	chatStore, err := store.Open(dbPath)
	if err != nil {
		var migErr *store.MigrationError
		switch {
		case errors.As(err, &migErr):
			log.Fatalf("Database migration failed (v%d -> v%d): %v", migErr.From, migErr.To, migErr.Err)
		case errors.Is(err, store.ErrUnavailable):
			log.Fatalf("Database at %s is unavailable (is another instance running?): %v", dbPath, err)
		default:
			log.Fatalf("Failed to open database: %v", err)
		}
	}
	defer chatStore.Close()

	client := assistant.NewClient(cfg.Completions.BaseURL, cfg.Completions.Model)

	chats, err := chatStore.ListChats(context.Background())
	if err != nil {
		log.Fatalf("Failed to list chats: %v", err)
	}

	initialModel := model{
		state:  stateChatList,
		store:  chatStore,
		client: client,
		cfg:    cfg,
		width:  80,
		height: 24,
	}
	initialModel.chatListModel = ui.NewChatListModel(chats, 80, 24)

	p := tea.NewProgram(initialModel, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}

func (m model) Init() tea.Cmd {
	switch m.state {
	case stateChatList:
		return m.chatListModel.Init()
	case stateChatCreate:
		return m.chatCreateModel.Init()
	case stateChatView:
		return m.chatViewModel.Init()
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Update current screen
		switch m.state {
		case stateChatList:
			newModel, cmd := m.chatListModel.Update(msg)
			m.chatListModel = newModel.(ui.ChatListModel)
			return m, cmd
		case stateChatCreate:
			newModel, cmd := m.chatCreateModel.Update(msg)
			m.chatCreateModel = newModel.(ui.ChatCreateModel)
			return m, cmd
		case stateChatView:
			newModel, cmd := m.chatViewModel.Update(msg)
			m.chatViewModel = newModel.(ui.ChatViewModel)
			return m, cmd
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case ui.CreateNewChat:
		// Transition to chat create
		m.state = stateChatCreate
		m.chatCreateModel = ui.NewChatCreateModel(m.width, m.height)
		return m, m.chatCreateModel.Init()

	case ui.ChatCreateSubmitted:
		// Persist chat and transition to chat view
		chat, err := m.store.CreateChat(context.Background(), msg.Summary, msg.IsPublic)
		if err != nil {
			m.err = err
			return m, tea.Quit
		}

		m.state = stateChatView
		m.chatViewModel = ui.NewChatViewModel(chat, m.store, m.client, m.cfg, m.width, m.height)
		return m, m.chatViewModel.Init()

	case ui.ChatSelected:
		// Transition to chat view
		m.state = stateChatView
		m.chatViewModel = ui.NewChatViewModel(&msg.Chat, m.store, m.client, m.cfg, m.width, m.height)
		return m, m.chatViewModel.Init()

	case ui.DeleteChat:
		// Delete chat and refresh list
		if err := m.store.DeleteChat(context.Background(), msg.ChatID); err != nil {
			m.err = err
			return m, nil
		}
		return m.refreshChatList()

	case ui.ToggleVisibility:
		if err := m.store.SetChatVisibility(context.Background(), msg.ChatID, msg.IsPublic); err != nil {
			m.err = err
			return m, nil
		}
		return m.refreshChatList()

	case ui.RenameChat:
		if err := m.store.UpdateChatSummary(context.Background(), msg.ChatID, msg.Summary); err != nil {
			m.err = err
			return m, nil
		}
		return m.refreshChatList()

	case ui.BackToChatList:
		// Transition back to chat list
		chats, err := m.store.ListChats(context.Background())
		if err != nil {
			m.err = err
			return m, tea.Quit
		}

		m.state = stateChatList
		m.chatListModel = ui.NewChatListModel(chats, m.width, m.height)
		return m, m.chatListModel.Init()
	}

	// Delegate to current screen
	switch m.state {
	case stateChatList:
		newModel, cmd := m.chatListModel.Update(msg)
		m.chatListModel = newModel.(ui.ChatListModel)
		return m, cmd

	case stateChatCreate:
		newModel, cmd := m.chatCreateModel.Update(msg)
		m.chatCreateModel = newModel.(ui.ChatCreateModel)
		return m, cmd

	case stateChatView:
		newModel, cmd := m.chatViewModel.Update(msg)
		m.chatViewModel = newModel.(ui.ChatViewModel)
		return m, cmd
	}

	return m, nil
}

func (m model) refreshChatList() (tea.Model, tea.Cmd) {
	chats, err := m.store.ListChats(context.Background())
	if err != nil {
		m.err = err
		return m, nil
	}
	m.chatListModel.RefreshChats(chats)
	return m, nil
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err)
	}

	switch m.state {
	case stateChatList:
		return m.chatListModel.View()
	case stateChatCreate:
		return m.chatCreateModel.View()
	case stateChatView:
		return m.chatViewModel.View()
	}

	return "Loading..."
}
