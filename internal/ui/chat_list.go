package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chat-terminal/internal/models"
)

type ChatListModel struct {
	list     list.Model
	chats    []models.Chat
	renaming bool
	renameID string
	rename   textinput.Model
	width    int
	height   int
	err      error
}

type chatItem struct {
	chat models.Chat
}

func (i chatItem) Title() string {
	title := i.chat.Summary
	if title == "" {
		title = "(no summary)"
	}
	if i.chat.IsPublic {
		title += " " + VisibilityBadgeStyle.Render("[public]")
	}
	return title
}

func (i chatItem) Description() string {
	return fmt.Sprintf("Created: %s | Messages: %d",
		i.chat.CreatedAt.Format("2006-01-02 15:04"), len(i.chat.MessageIDs))
}

func (i chatItem) FilterValue() string { return i.chat.Summary }

type ChatSelected struct {
	Chat models.Chat
}

type CreateNewChat struct{}

type DeleteChat struct {
	ChatID string
}

type ToggleVisibility struct {
	ChatID   string
	IsPublic bool
}

type RenameChat struct {
	ChatID  string
	Summary string
}

func NewChatListModel(chats []models.Chat, width, height int) ChatListModel {
	items := make([]list.Item, len(chats))
	for i, c := range chats {
		items[i] = chatItem{chat: c}
	}

	l := list.New(items, CreateThemedDelegate(), width, height-4)
	l.Title = "Conversations"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	// Disable all built-in key bindings except arrows and filter
	l.KeyMap.CursorUp = key.NewBinding(key.WithKeys("up"))
	l.KeyMap.CursorDown = key.NewBinding(key.WithKeys("down"))
	l.KeyMap.NextPage = key.NewBinding()
	l.KeyMap.PrevPage = key.NewBinding()
	l.KeyMap.GoToStart = key.NewBinding()
	l.KeyMap.GoToEnd = key.NewBinding()
	l.KeyMap.Filter = key.NewBinding(key.WithKeys("/"))
	l.KeyMap.ClearFilter = key.NewBinding(key.WithKeys("esc"))
	l.KeyMap.CancelWhileFiltering = key.NewBinding(key.WithKeys("esc"))
	l.KeyMap.AcceptWhileFiltering = key.NewBinding(key.WithKeys("enter"))
	l.KeyMap.ShowFullHelp = key.NewBinding()
	l.KeyMap.CloseFullHelp = key.NewBinding()
	l.KeyMap.Quit = key.NewBinding()
	l.KeyMap.ForceQuit = key.NewBinding()

	rename := textinput.New()
	rename.Placeholder = "New summary"
	rename.CharLimit = 200
	rename.Width = 50

	return ChatListModel{
		list:   l,
		chats:  chats,
		rename: rename,
		width:  width,
		height: height,
	}
}

func (m ChatListModel) Init() tea.Cmd {
	return nil
}

func (m ChatListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		if m.renaming {
			switch msg.String() {
			case "enter":
				m.renaming = false
				chatID := m.renameID
				summary := m.rename.Value()
				return m, func() tea.Msg {
					return RenameChat{ChatID: chatID, Summary: summary}
				}
			case "esc":
				m.renaming = false
				return m, nil
			}
			var cmd tea.Cmd
			m.rename, cmd = m.rename.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+x":
			return m, tea.Quit

		case "enter":
			selectedItem := m.list.SelectedItem()
			if selectedItem == nil {
				return m, nil
			}
			chat := selectedItem.(chatItem).chat
			return m, func() tea.Msg {
				return ChatSelected{Chat: chat}
			}

		case "ctrl+n":
			return m, func() tea.Msg {
				return CreateNewChat{}
			}

		case "ctrl+d":
			selectedItem := m.list.SelectedItem()
			if selectedItem == nil {
				return m, nil
			}
			chat := selectedItem.(chatItem).chat
			return m, func() tea.Msg {
				return DeleteChat{ChatID: chat.ID}
			}

		case "ctrl+p":
			selectedItem := m.list.SelectedItem()
			if selectedItem == nil {
				return m, nil
			}
			chat := selectedItem.(chatItem).chat
			return m, func() tea.Msg {
				return ToggleVisibility{ChatID: chat.ID, IsPublic: !chat.IsPublic}
			}

		case "ctrl+r":
			selectedItem := m.list.SelectedItem()
			if selectedItem == nil {
				return m, nil
			}
			chat := selectedItem.(chatItem).chat
			m.renaming = true
			m.renameID = chat.ID
			m.rename.SetValue(chat.Summary)
			m.rename.Focus()
			return m, textinput.Blink
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m ChatListModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+X to exit", m.err))
	}

	if m.renaming {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.list.View(),
			ActiveLabelStyle.Render("Rename: ")+m.rename.View(),
			helpStyle.Render("Enter: Save • Esc: Cancel"),
		)
	}

	helpText := "↑/↓: Navigate • Enter: Open • /: Filter • Ctrl+N: New • Ctrl+R: Rename • Ctrl+P: Toggle Public • Ctrl+D: Delete • Ctrl+X: Exit"

	return lipgloss.JoinVertical(lipgloss.Left,
		m.list.View(),
		helpStyle.Render(helpText),
	)
}

func (m *ChatListModel) RefreshChats(chats []models.Chat) {
	m.chats = chats
	items := make([]list.Item, len(chats))
	for i, c := range chats {
		items[i] = chatItem{chat: c}
	}
	m.list.SetItems(items)
}
