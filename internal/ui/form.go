package ui

import (
	"strings"

	"shoppinglist/internal/models"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	fieldName = iota
	fieldQuantity
	fieldUnit
	fieldCount
)

// formSubmitMsg carries the values of a submitted form. EditingID is zero
// for a new item.
type formSubmitMsg struct {
	EditingID int64
	Name      string
	Quantity  models.Quantity
	Unit      string
}

// formCancelMsg is sent when the form is dismissed
type formCancelMsg struct{}

// FormModel is the add/edit modal
type FormModel struct {
	inputs    []textinput.Model
	focus     int
	editingID int64
	keys      formKeys
	styles    Styles
}

// NewFormModel creates an empty form
func NewFormModel(styles Styles) FormModel {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].CharLimit = 64
		inputs[i].Width = 30
	}
	inputs[fieldName].Placeholder = "Item name"
	inputs[fieldQuantity].Placeholder = "Quantity"
	inputs[fieldUnit].Placeholder = "Unit (e.g., kg, liters)"

	return FormModel{
		inputs: inputs,
		keys:   newFormKeys(),
		styles: styles,
	}
}

// OpenAdd clears the form for a new item
func (f *FormModel) OpenAdd() tea.Cmd {
	f.reset()
	return f.focusField(fieldName)
}

// OpenEdit fills the form with item
func (f *FormModel) OpenEdit(item models.ShoppingItem) tea.Cmd {
	f.reset()
	f.editingID = item.ID
	f.inputs[fieldName].SetValue(item.Name)
	f.inputs[fieldQuantity].SetValue(item.Quantity.String())
	f.inputs[fieldUnit].SetValue(item.Unit)
	return f.focusField(fieldName)
}

// Editing reports whether the form edits an existing item
func (f FormModel) Editing() bool {
	return f.editingID != 0
}

func (f *FormModel) reset() {
	f.editingID = 0
	for i := range f.inputs {
		f.inputs[i].Reset()
		f.inputs[i].Blur()
	}
	f.focus = fieldName
}

func (f *FormModel) focusField(i int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (i + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

// Update handles keys while the form is open
func (f FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, f.keys.Cancel):
			f.reset()
			return f, func() tea.Msg { return formCancelMsg{} }

		case key.Matches(msg, f.keys.Submit):
			submit := formSubmitMsg{
				EditingID: f.editingID,
				Name:      f.inputs[fieldName].Value(),
				Quantity:  models.ParseQuantity(f.inputs[fieldQuantity].Value()),
				Unit:      f.inputs[fieldUnit].Value(),
			}
			f.reset()
			return f, func() tea.Msg { return submit }

		case key.Matches(msg, f.keys.Next):
			return f, f.focusField(f.focus + 1)

		case key.Matches(msg, f.keys.Prev):
			return f, f.focusField(f.focus - 1)
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// View renders the modal
func (f FormModel) View() string {
	title, submit := "Add New Item", "Add Item"
	if f.Editing() {
		title, submit = "Edit Item", "Save Changes"
	}

	var sb strings.Builder
	sb.WriteString(f.styles.ModalTitle.Render(title))
	sb.WriteString("\n")
	for _, input := range f.inputs {
		sb.WriteString(input.View())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		f.styles.Button.Render(submit),
		"  ",
		f.styles.ButtonCancel.Render("Cancel"),
	))

	return f.styles.Modal.Render(sb.String())
}
