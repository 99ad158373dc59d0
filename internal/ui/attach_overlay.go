package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	overlay "github.com/rmhubbert/bubbletea-overlay"

	"chat-terminal/internal/attachment"
)

const maxVisibleEntries = 10

// AttachPickerModel is the attachment picker overlay foreground: files from
// the current directory, filterable, image files marked.
type AttachPickerModel struct {
	entries       []string
	filtered      []string
	filterInput   textinput.Model
	selectedIndex int
	width         int
	height        int
}

// AttachmentPicked is sent when the user selects a file
type AttachmentPicked struct {
	Path string
}

// AttachPickerClosed is sent when the picker is closed without selection
type AttachPickerClosed struct{}

func NewAttachPickerModel() AttachPickerModel {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.CharLimit = 100
	ti.Width = 40

	return AttachPickerModel{
		filterInput: ti,
	}
}

func (m AttachPickerModel) Init() tea.Cmd {
	return textinput.Blink
}

// LoadDir lists regular files in dir, sorted by name.
func (m *AttachPickerModel) LoadDir(dir string) error {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	m.entries = m.entries[:0]
	for _, e := range dirEntries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		m.entries = append(m.entries, filepath.Join(dir, e.Name()))
	}
	sort.Strings(m.entries)

	m.filterInput.SetValue("")
	m.filterInput.Focus()
	m.updateFiltered()
	m.selectedIndex = 0
	return nil
}

func (m *AttachPickerModel) updateFiltered() {
	filterText := strings.ToLower(strings.TrimSpace(m.filterInput.Value()))

	if filterText == "" {
		m.filtered = m.entries
		return
	}

	m.filtered = nil
	for _, path := range m.entries {
		if strings.Contains(strings.ToLower(filepath.Base(path)), filterText) {
			m.filtered = append(m.filtered, path)
		}
	}
}

func (m AttachPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up"))):
			if m.selectedIndex > 0 {
				m.selectedIndex--
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("down"))):
			if m.selectedIndex < len(m.filtered)-1 {
				m.selectedIndex++
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if len(m.filtered) > 0 {
				selected := m.filtered[m.selectedIndex]
				return m, func() tea.Msg {
					return AttachmentPicked{Path: selected}
				}
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
			// If filter has text, clear it first
			if m.filterInput.Value() != "" {
				m.filterInput.SetValue("")
				m.updateFiltered()
				m.selectedIndex = 0
				return m, nil
			}
			return m, func() tea.Msg {
				return AttachPickerClosed{}
			}

		default:
			if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace || msg.Type == tea.KeyBackspace {
				m.filterInput, cmd = m.filterInput.Update(msg)
				oldLen := len(m.filtered)
				m.updateFiltered()
				if oldLen != len(m.filtered) || m.selectedIndex >= len(m.filtered) {
					m.selectedIndex = 0
				}
				return m, cmd
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filterInput.Width = m.overlayWidth() - 12
	}

	// Update textinput for cursor blinking
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func (m AttachPickerModel) overlayWidth() int {
	w := m.width / 2
	if w < 40 {
		w = 40
	}
	return w
}

func (m AttachPickerModel) View() string {
	overlayWidth := m.overlayWidth()
	var content strings.Builder

	title := fmt.Sprintf("Attach File (%d)", len(m.entries))
	if len(m.filtered) != len(m.entries) {
		title = fmt.Sprintf("Attach File (%d of %d)", len(m.filtered), len(m.entries))
	}
	content.WriteString(PickerTitleStyle.Render(title))
	content.WriteString("\n\n")

	content.WriteString(PickerFilterLabelStyle.Render("Filter: "))
	content.WriteString(PickerFilterInputStyle.Render(m.filterInput.View()))
	content.WriteString("\n\n")

	if len(m.filtered) == 0 {
		content.WriteString(PickerMessageStyle.Width(overlayWidth - 8).Render("No files match"))
		content.WriteString("\n\n")
		content.WriteString(helpStyle.Render("Esc: Close"))
		return PickerBorderStyle.Width(overlayWidth - 4).Render(content.String())
	}

	visibleStart, visibleEnd := visibleRange(m.selectedIndex, len(m.filtered))
	for i := visibleStart; i < visibleEnd; i++ {
		name := filepath.Base(m.filtered[i])
		if attachment.IsImage(name) {
			name += AttachmentBadgeStyle.Render(" [image]")
		}

		style := PickerNormalItemStyle
		indicator := "  "
		if i == m.selectedIndex {
			style = PickerSelectedItemStyle
			indicator = "▶ "
		}
		content.WriteString(style.Width(overlayWidth - 8).Render(indicator + name))
		content.WriteString("\n")
	}

	if len(m.filtered) > maxVisibleEntries {
		content.WriteString("\n")
		content.WriteString(InactiveLabelStyle.Render(
			fmt.Sprintf("Showing %d-%d of %d files", visibleStart+1, visibleEnd, len(m.filtered))))
	}

	content.WriteString("\n")
	helpText := "Type to filter • ↑/↓: Navigate • Enter: Attach • Esc: Cancel"
	content.WriteString(helpStyle.Render(helpText))

	return PickerBorderStyle.Width(overlayWidth - 4).Render(content.String())
}

// visibleRange keeps the selected entry in view within a fixed-height window.
func visibleRange(selected, total int) (int, int) {
	if total <= maxVisibleEntries {
		return 0, total
	}

	start := selected - maxVisibleEntries/2
	if start < 0 {
		start = 0
	}
	end := start + maxVisibleEntries
	if end > total {
		end = total
		start = end - maxVisibleEntries
	}
	return start, end
}

// AttachOverlayModel wraps the picker with the overlay library
type AttachOverlayModel struct {
	picker  AttachPickerModel
	visible bool
}

func NewAttachOverlayModel() AttachOverlayModel {
	return AttachOverlayModel{
		picker: NewAttachPickerModel(),
	}
}

func (m *AttachOverlayModel) LoadDir(dir string) error {
	return m.picker.LoadDir(dir)
}

func (m *AttachOverlayModel) Show() {
	m.visible = true
}

func (m *AttachOverlayModel) Hide() {
	m.visible = false
}

func (m *AttachOverlayModel) IsVisible() bool {
	return m.visible
}

func (m *AttachOverlayModel) UpdateSize(width, height int) {
	m.picker.width = width
	m.picker.height = height
}

func (m *AttachOverlayModel) UpdatePicker(msg tea.Msg) tea.Cmd {
	if !m.visible {
		return nil
	}

	var cmd tea.Cmd
	var mdl tea.Model
	mdl, cmd = m.picker.Update(msg)
	m.picker = mdl.(AttachPickerModel)
	return cmd
}

func (m AttachOverlayModel) RenderOverlay(backgroundView string) string {
	if !m.visible {
		return backgroundView
	}

	overlayModel := overlay.New(
		m.picker,
		&staticViewModel{content: backgroundView},
		overlay.Center,
		overlay.Top,
		0,
		1,
	)

	return overlayModel.View()
}

// staticViewModel renders static content as the overlay background
type staticViewModel struct {
	content string
}

func (m staticViewModel) Init() tea.Cmd {
	return nil
}

func (m staticViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m staticViewModel) View() string {
	return m.content
}
