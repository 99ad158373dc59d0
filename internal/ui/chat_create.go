package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type chatCreateField int

const (
	fieldSummary chatCreateField = iota
	fieldPublic
	fieldCreateButton
)

type ChatCreateModel struct {
	summaryInput textinput.Model
	isPublic     bool
	currentField chatCreateField
	width        int
	height       int
	err          error
}

// ChatCreateSubmitted carries the form values; the root model writes the
// chat through the store and opens it.
type ChatCreateSubmitted struct {
	Summary  string
	IsPublic bool
}

type BackToChatList struct{}

func NewChatCreateModel(width, height int) ChatCreateModel {
	summaryInput := textinput.New()
	summaryInput.Placeholder = "What is this conversation about?"
	summaryInput.Focus()
	summaryInput.CharLimit = 200
	summaryInput.Width = 50

	return ChatCreateModel{
		summaryInput: summaryInput,
		currentField: fieldSummary,
		width:        width,
		height:       height,
	}
}

func (m ChatCreateModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ChatCreateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+x":
			return m, tea.Quit

		case "esc":
			return m, func() tea.Msg {
				return BackToChatList{}
			}

		case "tab", "shift+tab":
			if msg.String() == "tab" {
				m.nextField()
			} else {
				m.prevField()
			}
			return m, nil

		case "enter":
			if m.currentField == fieldCreateButton {
				summary := m.summaryInput.Value()
				isPublic := m.isPublic
				return m, func() tea.Msg {
					return ChatCreateSubmitted{Summary: summary, IsPublic: isPublic}
				}
			}
			m.nextField()
			return m, nil

		case " ":
			if m.currentField == fieldPublic {
				m.isPublic = !m.isPublic
				return m, nil
			}
		}
	}

	if m.currentField == fieldSummary {
		var cmd tea.Cmd
		m.summaryInput, cmd = m.summaryInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m ChatCreateModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Esc to go back", m.err))
	}

	var b strings.Builder

	title := TitleStyle.Render("New Conversation")
	b.WriteString(title + "\n\n")

	b.WriteString(RenderFieldLabel("Summary:", m.currentField == fieldSummary) + "\n")
	b.WriteString(m.summaryInput.View() + "\n\n")

	publicLabel := RenderFieldLabel("Public:", m.currentField == fieldPublic)
	checkbox := "[ ]"
	if m.isPublic {
		checkbox = "[✓]"
	}
	b.WriteString(publicLabel + " " + checkbox + "\n\n")

	b.WriteString(RenderButton("Create", m.currentField == fieldCreateButton) + "\n\n")

	helpText := "Tab: Next Field • Space: Toggle • Enter: Create • Esc: Back • Ctrl+X: Exit"
	b.WriteString(helpStyle.Render(helpText))

	return b.String()
}

func (m *ChatCreateModel) nextField() {
	m.currentField = (m.currentField + 1) % 3
	m.syncFocus()
}

func (m *ChatCreateModel) prevField() {
	m.currentField = (m.currentField + 2) % 3
	m.syncFocus()
}

func (m *ChatCreateModel) syncFocus() {
	if m.currentField == fieldSummary {
		m.summaryInput.Focus()
	} else {
		m.summaryInput.Blur()
	}
}
