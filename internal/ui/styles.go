// Package ui is the terminal client for the shopping list, built on
// bubbletea. It mirrors the mobile app: a welcome screen that hands over to
// the list, and a modal form for adding and editing items.
package ui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	Background  = lipgloss.Color("#1B5E20")
	Foreground  = lipgloss.Color("#FFFFFF")
	Accent      = lipgloss.Color("#43A047")
	Purchased   = lipgloss.Color("#2E7D32")
	Muted       = lipgloss.Color("#9E9E9E")
	Border      = lipgloss.Color("#424242")
	Destructive = lipgloss.Color("#E53935")
)

// Styles groups the lipgloss styles used by the views
type Styles struct {
	WelcomeTitle lipgloss.Style
	WelcomeName  lipgloss.Style
	Header       lipgloss.Style
	Item         lipgloss.Style
	ItemSelected lipgloss.Style
	ItemBought   lipgloss.Style
	ItemRemoving lipgloss.Style
	Text         lipgloss.Style
	TextBought   lipgloss.Style
	Empty        lipgloss.Style
	Modal        lipgloss.Style
	ModalTitle   lipgloss.Style
	Button       lipgloss.Style
	ButtonCancel lipgloss.Style
	Status       lipgloss.Style
}

// DefaultStyles returns the standard look
func DefaultStyles() Styles {
	item := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1).
		MarginBottom(0)

	button := lipgloss.NewStyle().
		Foreground(Foreground).
		Background(Accent).
		Padding(0, 2).
		Bold(true)

	return Styles{
		WelcomeTitle: lipgloss.NewStyle().Bold(true).Foreground(Foreground),
		WelcomeName:  lipgloss.NewStyle().Bold(true).Foreground(Accent),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Foreground).
			Background(Background).
			Padding(0, 2).
			MarginBottom(1),
		Item:         item,
		ItemSelected: item.BorderForeground(Accent),
		ItemBought:   item.BorderForeground(Purchased),
		ItemRemoving: item.BorderForeground(Destructive).Faint(true),
		Text:         lipgloss.NewStyle(),
		TextBought:   lipgloss.NewStyle().Strikethrough(true).Foreground(Muted),
		Empty:        lipgloss.NewStyle().Italic(true).Foreground(Muted).Padding(1, 2),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(Accent).
			Padding(1, 2),
		ModalTitle:   lipgloss.NewStyle().Bold(true).MarginBottom(1),
		Button:       button,
		ButtonCancel: button.Background(Muted),
		Status:       lipgloss.NewStyle().Foreground(Destructive),
	}
}
