package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Search    key.Binding
	Refresh   key.Binding
	Algorithm key.Binding
	Column    key.Binding
	Direction key.Binding
	Sort      key.Binding
	Add       key.Binding
	Delete    key.Binding
	Convert   key.Binding
	Upload    key.Binding
	Up        key.Binding
	Down      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Sort, k.Add, k.Delete, k.Convert, k.Upload, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Search, k.Refresh},
		{k.Algorithm, k.Column, k.Direction, k.Sort},
		{k.Add, k.Delete, k.Convert, k.Upload},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Refresh:   key.NewBinding(key.WithKeys("ctrl+r", "f5"), key.WithHelp("ctrl+r", "refresh")),
	Algorithm: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "algorithm")),
	Column:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort column")),
	Direction: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "asc/desc")),
	Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Convert:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "convert")),
	Upload:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
