package ui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"chat-terminal/internal/assistant"
	"chat-terminal/internal/attachment"
	"chat-terminal/internal/config"
	"chat-terminal/internal/logging"
	"chat-terminal/internal/models"
	"chat-terminal/internal/store"
)

const (
	titleHeight    = 4
	textareaHeight = 5
	helpHeight     = 2
	viewPadding    = 2
)

type ProcessingState int

const (
	StateIdle ProcessingState = iota
	StateSending
	StateThinking
)

type ChatViewModel struct {
	chat   *models.Chat
	store  store.ChatStore
	client *assistant.Client
	cfg    *config.Config

	messages []models.Message
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	picker   AttachOverlayModel

	pendingImages []string
	pendingTexts  []attachment.Attachment

	width           int
	height          int
	processingState ProcessingState
	err             error

	ctx        context.Context
	cancelFunc context.CancelFunc

	streamBuffer *strings.Builder
	tokenCount   int
	mdRenderer   *glamour.TermRenderer
}

type MessagesLoaded struct {
	Messages []models.Message
}

type humanPersisted struct {
	Message    *models.Message
	StreamChan <-chan string
	ErrChan    <-chan error
}

type ChatTokenReceived struct {
	Token      string
	StreamChan <-chan string
	ErrChan    <-chan error
}

type ChatResponseComplete struct{}

type assistantPersisted struct {
	Message *models.Message
}

type ChatResponseError struct {
	Err error
}

// createMarkdownRenderer creates a markdown renderer with fallback handling
func createMarkdownRenderer(width int) *glamour.TermRenderer {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-10),
	)
	if err == nil {
		return renderer
	}

	logging.Error("Failed to create markdown renderer with auto style: %v, trying fallback", err)

	renderer, err = glamour.NewTermRenderer(
		glamour.WithWordWrap(width - 10),
	)
	if err == nil {
		return renderer
	}

	renderer, err = glamour.NewTermRenderer()
	if err != nil {
		logging.Error("Critical: failed to create basic markdown renderer: %v", err)
		return nil
	}

	return renderer
}

// safeRenderMarkdown safely renders markdown with panic recovery and fallback
func (m *ChatViewModel) safeRenderMarkdown(content string) string {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Panic in markdown rendering: %v", r)
		}
	}()

	if m.mdRenderer == nil || content == "" {
		return content
	}

	rendered, err := m.mdRenderer.Render(content)
	if err != nil {
		logging.Error("Markdown rendering error: %v, falling back to plain text", err)
		return content
	}

	return strings.TrimRight(rendered, "\n")
}

func NewChatViewModel(chat *models.Chat, chatStore store.ChatStore, client *assistant.Client, cfg *config.Config, width, height int) ChatViewModel {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	// Keep only essential editing keys
	ta.KeyMap.CharacterForward = key.NewBinding(key.WithKeys("right"))
	ta.KeyMap.CharacterBackward = key.NewBinding(key.WithKeys("left"))
	ta.KeyMap.LineStart = key.NewBinding(key.WithKeys("home"))
	ta.KeyMap.LineEnd = key.NewBinding(key.WithKeys("end"))
	ta.KeyMap.DeleteCharacterBackward = key.NewBinding(key.WithKeys("backspace"))
	ta.KeyMap.DeleteCharacterForward = key.NewBinding(key.WithKeys("delete"))
	ta.KeyMap.LineNext = key.NewBinding(key.WithKeys("down"))
	ta.KeyMap.LinePrevious = key.NewBinding(key.WithKeys("up"))
	ta.KeyMap.WordForward = key.NewBinding()
	ta.KeyMap.WordBackward = key.NewBinding()
	ta.KeyMap.DeleteWordBackward = key.NewBinding()
	ta.KeyMap.DeleteWordForward = key.NewBinding()
	ta.KeyMap.DeleteAfterCursor = key.NewBinding()
	ta.KeyMap.DeleteBeforeCursor = key.NewBinding()
	ta.KeyMap.Paste = key.NewBinding()

	// The newline binding follows the configured enter behavior; the send
	// combination is handled in Update.
	if cfg.EnterBehavior == config.EnterNewline {
		ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("enter"))
	} else {
		ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	}

	viewportHeight := height - titleHeight - textareaHeight - helpHeight - viewPadding
	vp := viewport.New(width-6, viewportHeight)
	vp.SetContent("")
	vp.MouseWheelDelta = 2

	vp.KeyMap.Down = key.NewBinding()
	vp.KeyMap.Up = key.NewBinding()
	vp.KeyMap.PageDown = key.NewBinding(key.WithKeys("pgdown"))
	vp.KeyMap.PageUp = key.NewBinding(key.WithKeys("pgup"))
	vp.KeyMap.HalfPageDown = key.NewBinding()
	vp.KeyMap.HalfPageUp = key.NewBinding()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	ctx, cancel := context.WithCancel(context.Background())

	picker := NewAttachOverlayModel()
	picker.UpdateSize(width, height)

	return ChatViewModel{
		chat:         chat,
		store:        chatStore,
		client:       client,
		cfg:          cfg,
		viewport:     vp,
		textarea:     ta,
		spinner:      sp,
		picker:       picker,
		width:        width,
		height:       height,
		ctx:          ctx,
		cancelFunc:   cancel,
		streamBuffer: &strings.Builder{},
		mdRenderer:   createMarkdownRenderer(width),
	}
}

func (m ChatViewModel) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.loadMessages(),
	)
}

func (m ChatViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case AttachmentPicked:
		m.picker.Hide()
		m.textarea.Focus()
		att, err := attachment.Load(msg.Path)
		if err != nil {
			logging.Error("Failed to load attachment %s: %v", msg.Path, err)
			return m, nil
		}
		if att.Type == attachment.TypeImage {
			m.pendingImages = append(m.pendingImages, att.Path)
		} else {
			m.pendingTexts = append(m.pendingTexts, *att)
		}
		return m, nil

	case AttachPickerClosed:
		m.picker.Hide()
		m.textarea.Focus()
		return m, nil
	}

	if m.picker.IsVisible() {
		if cmd := m.picker.UpdatePicker(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		viewportHeight := msg.Height - titleHeight - textareaHeight - helpHeight - viewPadding
		m.viewport.Width = msg.Width - 6
		m.viewport.Height = viewportHeight
		m.textarea.SetWidth(msg.Width - 4)
		m.picker.UpdateSize(msg.Width, msg.Height)
		m.mdRenderer = createMarkdownRenderer(msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+f":
			if m.processingState == StateIdle {
				if m.picker.IsVisible() {
					m.picker.Hide()
					m.textarea.Focus()
					return m, nil
				}
				dir, err := os.Getwd()
				if err != nil {
					dir = "."
				}
				if err := m.picker.LoadDir(dir); err != nil {
					logging.Error("Failed to list attachments: %v", err)
					return m, nil
				}
				m.picker.Show()
				m.textarea.Blur()
			}
			return m, nil

		case "ctrl+x":
			m.cancelFunc()
			return m, tea.Quit

		case "esc":
			m.cancelFunc()
			return m, func() tea.Msg {
				return BackToChatList{}
			}

		case "enter":
			if m.cfg.EnterBehavior == config.EnterSends {
				return m.submit()
			}

		case "ctrl+s":
			if m.cfg.EnterBehavior == config.EnterNewline {
				return m.submit()
			}
		}

	case MessagesLoaded:
		m.messages = msg.Messages
		m.renderMessages()
		m.viewport.GotoBottom()
		return m, nil

	case humanPersisted:
		m.messages = append(m.messages, *msg.Message)
		m.renderMessages()
		m.viewport.GotoBottom()
		m.processingState = StateThinking
		return m, waitForToken(msg.StreamChan, msg.ErrChan)

	case ChatTokenReceived:
		// Filter out invalid UTF-8 replacement characters
		cleanToken := strings.ReplaceAll(msg.Token, "�", "")
		if cleanToken != "" {
			m.streamBuffer.WriteString(cleanToken)
		}
		m.tokenCount++
		return m, waitForToken(msg.StreamChan, msg.ErrChan)

	case ChatResponseComplete:
		content := m.streamBuffer.String()
		m.streamBuffer.Reset()
		m.tokenCount = 0
		if strings.TrimSpace(content) == "" {
			m.processingState = StateIdle
			return m, nil
		}
		return m, m.persistAssistant(content)

	case assistantPersisted:
		m.messages = append(m.messages, *msg.Message)
		m.renderMessages()
		m.viewport.GotoBottom()
		m.processingState = StateIdle
		return m, nil

	case ChatResponseError:
		m.err = msg.Err
		m.processingState = StateIdle
		m.streamBuffer.Reset()
		m.tokenCount = 0
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.processingState == StateIdle {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit hands the prompt input's current text and pending attachments to
// the store and starts the assistant stream.
func (m ChatViewModel) submit() (tea.Model, tea.Cmd) {
	if m.processingState != StateIdle {
		return m, nil
	}

	text := strings.TrimSpace(m.textarea.Value())
	if text == "" && len(m.pendingImages) == 0 && len(m.pendingTexts) == 0 {
		return m, nil
	}

	// Inline text attachments below the prompt
	var b strings.Builder
	b.WriteString(text)
	for _, att := range m.pendingTexts {
		fmt.Fprintf(&b, "\n\n--- %s ---\n%s", att.Name, att.Content)
	}

	draft := models.NewHumanMessage(m.cfg.Completions.UserName, b.String(), m.pendingImages)
	m.textarea.Reset()
	m.pendingImages = nil
	m.pendingTexts = nil
	m.processingState = StateSending

	return m, tea.Batch(m.sendMessage(draft), m.spinner.Tick)
}

func (m ChatViewModel) sendMessage(draft *models.Message) tea.Cmd {
	history := make([]models.Message, len(m.messages))
	copy(history, m.messages)

	return func() tea.Msg {
		logging.Info("sendMessage: chatID=%s, %d chars", m.chat.ID, len(draft.Text))

		persisted, err := m.store.AppendMessage(m.ctx, m.chat.ID, draft)
		if err != nil {
			logging.Error("AppendMessage failed: %v", err)
			return ChatResponseError{Err: err}
		}

		streamChan, errChan, err := m.client.Complete(
			m.ctx,
			append(history, *persisted),
			m.cfg.Completions.Temperature,
			m.cfg.Completions.MaxTokens,
		)
		if err != nil {
			logging.Error("Complete failed: %v", err)
			return ChatResponseError{Err: err}
		}

		return humanPersisted{Message: persisted, StreamChan: streamChan, ErrChan: errChan}
	}
}

func (m ChatViewModel) persistAssistant(content string) tea.Cmd {
	return func() tea.Msg {
		draft := models.NewAssistantMessage(m.client.Model(), content)
		persisted, err := m.store.AppendMessage(m.ctx, m.chat.ID, draft)
		if err != nil {
			logging.Error("Failed to persist assistant message: %v", err)
			return ChatResponseError{Err: err}
		}
		return assistantPersisted{Message: persisted}
	}
}

// waitForToken creates a command that waits for the next stream token
func waitForToken(streamChan <-chan string, errChan <-chan error) tea.Cmd {
	return func() tea.Msg {
		select {
		case token, ok := <-streamChan:
			if !ok {
				return ChatResponseComplete{}
			}
			return ChatTokenReceived{
				Token:      token,
				StreamChan: streamChan,
				ErrChan:    errChan,
			}

		case err := <-errChan:
			if err != nil {
				return ChatResponseError{Err: err}
			}
			return waitForToken(streamChan, errChan)()
		}
	}
}

func (m ChatViewModel) loadMessages() tea.Cmd {
	return func() tea.Msg {
		messages, err := m.store.GetMessages(context.Background(), m.chat.ID)
		if err != nil {
			return ChatResponseError{Err: err}
		}
		return MessagesLoaded{Messages: messages}
	}
}

func (m ChatViewModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Esc to go back", m.err))
	}

	var b strings.Builder

	title := m.chat.Summary
	if title == "" {
		title = "Conversation"
	}
	b.WriteString(TitleWithPaddingStyle.Render(title) + "\n")

	visibility := "private"
	if m.chat.IsPublic {
		visibility = "public"
	}
	statusLine := fmt.Sprintf("Model: %s | %s | Messages: %d",
		m.cfg.Completions.Model, visibility, len(m.messages))

	if len(m.pendingImages) > 0 || len(m.pendingTexts) > 0 {
		statusLine += " | " + AttachmentBadgeStyle.Render(
			fmt.Sprintf("Attached: %d", len(m.pendingImages)+len(m.pendingTexts)))
	}

	switch m.processingState {
	case StateSending:
		statusLine += " | " + m.spinner.View() + " Sending..."
	case StateThinking:
		statusLine += fmt.Sprintf(" | %s Thinking... (%d tokens)", m.spinner.View(), m.tokenCount)
	}

	b.WriteString(statusBarStyle.Render(statusLine) + "\n\n")

	b.WriteString(RenderViewportWithBorder(m.viewport.View()))
	b.WriteString("\n")

	if scrollInfo := m.renderScrollIndicator(); scrollInfo != "" {
		b.WriteString(scrollInfo)
	}
	b.WriteString("\n\n")

	b.WriteString(m.textarea.View() + "\n")

	sendHint := "Enter: Send • Alt+Enter: Newline"
	if m.cfg.EnterBehavior == config.EnterNewline {
		sendHint = "Ctrl+S: Send • Enter: Newline"
	}
	helpText := sendHint + " • Ctrl+F: Attach • PgUp/PgDn: Scroll • Esc: Back • Ctrl+X: Exit"
	b.WriteString(helpStyle.Render(helpText))

	return m.picker.RenderOverlay(b.String())
}

func (m *ChatViewModel) renderMessages() {
	var b strings.Builder

	for _, msg := range m.messages {
		var label string
		switch msg.Kind {
		case models.KindAssistant:
			label = AssistantMessageLabelStyle.Render(fmt.Sprintf("Assistant (%s):", msg.Model))
		case models.KindSystem:
			label = SystemMessageLabelStyle.Render("System:")
		default:
			name := msg.User
			if name == "" {
				name = "You"
			}
			label = HumanMessageLabelStyle.Render(name + ":")
		}

		rendered := m.safeRenderMarkdown(msg.Text)
		body := label + "\n" + rendered
		if len(msg.Images) > 0 {
			body += "\n" + AttachmentBadgeStyle.Render(fmt.Sprintf("[%d image(s): %s]",
				len(msg.Images), strings.Join(msg.Images, ", ")))
		}

		b.WriteString(MessageContentStyle.Width(m.width - 10).Render(body))
		b.WriteString("\n\n")
	}

	m.viewport.SetContent(b.String())
}

func (m ChatViewModel) renderScrollIndicator() string {
	if m.viewport.TotalLineCount() <= m.viewport.Height {
		return ""
	}

	scrollPercent := int(m.viewport.ScrollPercent() * 100)
	return ScrollIndicatorStyle.Render(fmt.Sprintf("Scroll: %d%% ↕", scrollPercent))
}
