package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	tint "github.com/lrstanley/bubbletint"
)

// Tints selectable through the config file's theme setting.
var tints = map[string]tint.Tint{
	"chalk":   tint.TintChalk,
	"dracula": tint.TintDracula,
	"nord":    tint.TintNord,
}

// Common style elements used across all views
var (
	TitleStyle            lipgloss.Style
	TitleWithPaddingStyle lipgloss.Style
	ActiveLabelStyle      lipgloss.Style
	InactiveLabelStyle    lipgloss.Style
	errorStyle            lipgloss.Style
	ErrorMessageStyle     lipgloss.Style
	statusBarStyle        lipgloss.Style
	helpStyle             lipgloss.Style
	ActiveButtonStyle     lipgloss.Style
	InactiveButtonStyle   lipgloss.Style

	HumanMessageLabelStyle     lipgloss.Style
	AssistantMessageLabelStyle lipgloss.Style
	SystemMessageLabelStyle    lipgloss.Style
	MessageContentStyle        lipgloss.Style
	AttachmentBadgeStyle       lipgloss.Style
	VisibilityBadgeStyle       lipgloss.Style

	SpinnerStyle         lipgloss.Style
	ViewportBorderStyle  lipgloss.Style
	ScrollIndicatorStyle lipgloss.Style

	// Attachment picker overlay styles
	PickerBorderStyle       lipgloss.Style
	PickerTitleStyle        lipgloss.Style
	PickerMessageStyle      lipgloss.Style
	PickerSelectedItemStyle lipgloss.Style
	PickerNormalItemStyle   lipgloss.Style
	PickerFilterLabelStyle  lipgloss.Style
	PickerFilterInputStyle  lipgloss.Style
)

func init() {
	ApplyTheme("chalk")
}

// ApplyTheme switches the tint registry to the named tint (falling back to
// chalk) and rebuilds every style from it.
func ApplyTheme(name string) {
	selected, ok := tints[name]
	if !ok {
		selected = tint.TintChalk
	}

	tint.NewDefaultRegistry()
	tint.SetTint(selected)

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(tint.Purple())

	TitleWithPaddingStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(tint.Purple()).
		Padding(0, 1)

	ActiveLabelStyle = lipgloss.NewStyle().
		Foreground(tint.White()).
		Bold(true)

	InactiveLabelStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack())

	errorStyle = lipgloss.NewStyle().
		Foreground(tint.Red()).
		Bold(true).
		Padding(1)

	ErrorMessageStyle = lipgloss.NewStyle().
		Foreground(tint.Red())

	statusBarStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Padding(1, 0, 0, 1)

	ActiveButtonStyle = lipgloss.NewStyle().
		Foreground(tint.Bg()).
		Background(tint.Purple()).
		Bold(true)

	InactiveButtonStyle = lipgloss.NewStyle().
		Foreground(tint.Purple())

	HumanMessageLabelStyle = lipgloss.NewStyle().
		Foreground(tint.White()).
		Bold(true)

	AssistantMessageLabelStyle = lipgloss.NewStyle().
		Foreground(tint.Purple()).
		Bold(true)

	SystemMessageLabelStyle = lipgloss.NewStyle().
		Foreground(tint.Yellow()).
		Bold(true)

	MessageContentStyle = lipgloss.NewStyle().
		Foreground(tint.Fg()).
		Padding(0, 1).
		MarginBottom(1)

	AttachmentBadgeStyle = lipgloss.NewStyle().
		Foreground(tint.Yellow())

	VisibilityBadgeStyle = lipgloss.NewStyle().
		Foreground(tint.Green())

	SpinnerStyle = lipgloss.NewStyle().
		Foreground(tint.Purple())

	ViewportBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tint.White()).
		Padding(0, 1)

	ScrollIndicatorStyle = lipgloss.NewStyle().
		Foreground(tint.White())

	PickerBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tint.Yellow()).
		Padding(1, 2)

	PickerTitleStyle = lipgloss.NewStyle().
		Foreground(tint.Yellow()).
		Bold(true)

	PickerMessageStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Align(lipgloss.Center)

	PickerSelectedItemStyle = lipgloss.NewStyle().
		Foreground(tint.Purple()).
		Background(tint.BrightBlack()).
		Bold(true)

	PickerNormalItemStyle = lipgloss.NewStyle().
		Foreground(tint.Fg())

	PickerFilterLabelStyle = lipgloss.NewStyle().
		Foreground(tint.White()).
		Bold(true)

	PickerFilterInputStyle = lipgloss.NewStyle().
		Foreground(tint.Fg())
}

// CreateThemedDelegate creates a themed list delegate with application colors
func CreateThemedDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()

	d.Styles.SelectedTitle = lipgloss.NewStyle().
		Foreground(tint.Purple()).
		Bold(true).
		BorderLeft(true).
		BorderForeground(tint.Purple()).
		Padding(0, 0, 0, 1)

	d.Styles.SelectedDesc = lipgloss.NewStyle().
		Foreground(tint.Yellow()).
		BorderLeft(true).
		BorderForeground(tint.Purple()).
		Padding(0, 0, 0, 1)

	d.Styles.NormalTitle = lipgloss.NewStyle().
		Foreground(tint.Fg()).
		Padding(0, 0, 0, 2)

	d.Styles.NormalDesc = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Padding(0, 0, 0, 2)

	d.Styles.DimmedTitle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Padding(0, 0, 0, 2)

	d.Styles.DimmedDesc = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Padding(0, 0, 0, 2)

	return d
}

// RenderFieldLabel renders a field label with the appropriate style
func RenderFieldLabel(label string, isActive bool) string {
	if isActive {
		return ActiveLabelStyle.Render(label)
	}
	return InactiveLabelStyle.Render(label)
}

// RenderButton renders a button with the appropriate style
func RenderButton(label string, isActive bool) string {
	if isActive {
		return ActiveButtonStyle.Render(" " + label + " ")
	}
	return InactiveButtonStyle.Render("[ " + label + " ]")
}

// RenderError renders an error message
func RenderError(msg string) string {
	return ErrorMessageStyle.Render("  ✗ " + msg)
}

// RenderViewportWithBorder renders content with a viewport border style
func RenderViewportWithBorder(content string) string {
	return ViewportBorderStyle.Render(content)
}
