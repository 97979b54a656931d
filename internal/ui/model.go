package ui

import (
	"fmt"
	"strings"
	"time"

	"shoppinglist/internal/logging"
	"shoppinglist/internal/models"
	"shoppinglist/internal/shoppinglist"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen identifies the active screen
type Screen int

const (
	ScreenWelcome Screen = iota
	ScreenHome
)

const (
	// WelcomeDelay is how long the welcome screen stays up
	WelcomeDelay = 1200 * time.Millisecond
	// RemoveDelay is how long a deleted row stays marked before it goes
	RemoveDelay = 500 * time.Millisecond
)

// Store is the part of the shopping list store the client needs
type Store interface {
	State() models.ShoppingListState
	AddItem(name string, quantity models.Quantity, unit string) models.ShoppingListState
	EditItem(id int64, name string, quantity models.Quantity, unit string) models.ShoppingListState
	MarkPurchased(id int64) models.ShoppingListState
	DeleteItem(id int64) models.ShoppingListState
	Subscribe(fn shoppinglist.Listener) func()
}

type (
	welcomeDoneMsg struct{}
	removeItemMsg  struct{ id int64 }
	stateMsg       struct{}
)

// Model is the root bubbletea model
type Model struct {
	store       Store
	changes     chan struct{}
	unsubscribe func()

	screen   Screen
	items    []models.ShoppingItem
	cursor   int
	removing map[int64]bool

	formOpen bool
	form     FormModel

	keys   listKeys
	help   help.Model
	styles Styles
	width  int
	height int
}

// NewModel creates the client on the welcome screen and subscribes to store
// changes. Call Close when the program exits.
func NewModel(store Store) Model {
	styles := DefaultStyles()
	m := Model{
		store:    store,
		changes:  make(chan struct{}, 1),
		screen:   ScreenWelcome,
		items:    store.State().List,
		removing: make(map[int64]bool),
		form:     NewFormModel(styles),
		keys:     newListKeys(),
		help:     help.New(),
		styles:   styles,
	}

	changes := m.changes
	m.unsubscribe = store.Subscribe(func(_ models.ShoppingListState, action shoppinglist.Action) {
		// One pending signal covers any number of changes; the model reads
		// the store when it handles it
		select {
		case changes <- struct{}{}:
		default:
			logging.Component("ui").WithField("action", shoppinglist.TypeOf(action)).Trace("UI refresh already pending")
		}
	})
	m.updateKeys()
	return m
}

// Close stops listening to the store
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Screen returns the active screen
func (m Model) Screen() Screen {
	return m.screen
}

// Init starts the welcome timer and the store listener
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.Tick(WelcomeDelay, func(time.Time) tea.Msg { return welcomeDoneMsg{} }),
		m.waitForChange(),
	)
}

func (m Model) waitForChange() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return stateMsg{}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case welcomeDoneMsg:
		// One way only: nothing navigates back to the welcome screen
		m.screen = ScreenHome
		return m, nil

	case stateMsg:
		m.setItems(m.store.State())
		return m, m.waitForChange()

	case removeItemMsg:
		delete(m.removing, msg.id)
		m.setItems(m.store.DeleteItem(msg.id))
		return m, nil

	case formSubmitMsg:
		m.formOpen = false
		if msg.EditingID != 0 {
			m.setItems(m.store.EditItem(msg.EditingID, msg.Name, msg.Quantity, msg.Unit))
		} else {
			m.setItems(m.store.AddItem(msg.Name, msg.Quantity, msg.Unit))
			m.cursor = len(m.items) - 1
		}
		m.updateKeys()
		return m, nil

	case formCancelMsg:
		m.formOpen = false
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.formOpen {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok && m.screen == ScreenHome {
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Add):
		m.formOpen = true
		return m, m.form.OpenAdd()

	case key.Matches(msg, m.keys.Edit):
		if item, ok := m.selected(); ok && !item.Purchased {
			m.formOpen = true
			return m, m.form.OpenEdit(item)
		}

	case key.Matches(msg, m.keys.Toggle):
		if item, ok := m.selected(); ok {
			m.setItems(m.store.MarkPurchased(item.ID))
		}

	case key.Matches(msg, m.keys.Delete):
		if item, ok := m.selected(); ok && !item.Purchased && !m.removing[item.ID] {
			m.removing[item.ID] = true
			id := item.ID
			return m, tea.Tick(RemoveDelay, func(time.Time) tea.Msg { return removeItemMsg{id: id} })
		}
	}

	m.updateKeys()
	return m, nil
}

func (m *Model) setItems(state models.ShoppingListState) {
	m.items = state.List
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.updateKeys()
}

func (m Model) selected() (models.ShoppingItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return models.ShoppingItem{}, false
	}
	return m.items[m.cursor], true
}

// updateKeys greys out edit and delete for purchased rows
func (m *Model) updateKeys() {
	item, ok := m.selected()
	editable := ok && !item.Purchased
	m.keys.Edit.SetEnabled(editable)
	m.keys.Delete.SetEnabled(editable)
	m.keys.Toggle.SetEnabled(ok)
}

// View renders the active screen
func (m Model) View() string {
	if m.screen == ScreenWelcome {
		return m.welcomeView()
	}
	if m.formOpen {
		return m.center(m.form.View() + "\n\n" + m.help.View(m.form.keys))
	}
	return m.homeView()
}

func (m Model) welcomeView() string {
	body := lipgloss.JoinVertical(lipgloss.Center,
		m.styles.WelcomeTitle.Render("Welcome To"),
		m.styles.WelcomeName.Render("Shopping List By Kp"),
	)
	return m.center(body)
}

func (m Model) homeView() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("ShoppingListByKP"))
	sb.WriteString("\n")

	if len(m.items) == 0 {
		sb.WriteString(m.styles.Empty.Render("Nothing on the list yet. Press a to add an item."))
		sb.WriteString("\n")
	}
	for i, item := range m.items {
		sb.WriteString(m.renderItem(item, i == m.cursor))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) renderItem(item models.ShoppingItem, selected bool) string {
	box := m.styles.Item
	text := m.styles.Text
	switch {
	case m.removing[item.ID]:
		box = m.styles.ItemRemoving
	case item.Purchased:
		box = m.styles.ItemBought
		text = m.styles.TextBought
	case selected:
		box = m.styles.ItemSelected
	}

	check := "[ ]"
	if item.Purchased {
		check = "[x]"
	}
	pointer := "  "
	if selected {
		pointer = "> "
	}

	lines := []string{
		text.Render("Name: " + item.Name),
		text.Render(fmt.Sprintf("Qty : %s", item.Quantity)),
		text.Render("Unit: " + item.Unit),
	}
	if m.removing[item.ID] {
		lines = append(lines, m.styles.Status.Render("removing..."))
	}

	row := lipgloss.JoinHorizontal(lipgloss.Center, check+" ", strings.Join(lines, "\n"))
	return pointer + box.Render(row)
}

func (m Model) center(s string) string {
	if m.width == 0 || m.height == 0 {
		return s
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}
