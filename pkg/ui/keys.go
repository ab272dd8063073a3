package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

// KeyMap is every binding the walkthrough answers to.
type KeyMap struct {
	NextTab     key.Binding
	PrevTab     key.Binding
	SelectTab   []key.Binding
	NextStep    key.Binding
	PrevStep    key.Binding
	ToggleHelp  key.Binding
	ToggleGuide key.Binding
	Reset       key.Binding
	Copy        key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	km := KeyMap{
		NextTab: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev tab"),
		),
		NextStep: key.NewBinding(
			key.WithKeys("n", " "),
			key.WithHelp("n/space", "next step"),
		),
		PrevStep: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "prev step"),
		),
		ToggleGuide: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "toggle guide"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy summary"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
	for _, t := range flow.Tabs() {
		n := fmt.Sprint(t.Index() + 1)
		km.SelectTab = append(km.SelectTab, key.NewBinding(
			key.WithKeys(n),
			key.WithHelp(n, t.Title()),
		))
	}
	return km
}

// tabRange is the combined help entry for the 1-8 bindings.
func (k KeyMap) tabRange() key.Binding {
	var keys []string
	for _, b := range k.SelectTab {
		keys = append(keys, b.Keys()...)
	}
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(fmt.Sprintf("1-%d", len(k.SelectTab)), "jump to tab"),
	)
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextStep, k.PrevStep, k.NextTab, k.PrevTab, k.ToggleHelp, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextStep, k.PrevStep, k.Reset},
		{k.NextTab, k.PrevTab, k.tabRange()},
		{k.ToggleGuide, k.Copy, k.ScrollUp, k.ScrollDown},
		{k.ToggleHelp, k.Quit},
	}
}

// tabFor returns the tab bound to msg, if any.
func (k KeyMap) tabFor(msg tea.KeyMsg) (flow.Tab, bool) {
	for i, b := range k.SelectTab {
		if key.Matches(msg, b) {
			return flow.Tabs()[i], true
		}
	}
	return 0, false
}
