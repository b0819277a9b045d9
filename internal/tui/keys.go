package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Add       key.Binding
	Download  key.Binding
	Cancel    key.Binding
	Format    key.Binding
	Thumbnail key.Binding
	Remove    key.Binding
	More      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add url")),
		Download:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "download")),
		Cancel:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel")),
		Format:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "next format")),
		Thumbnail: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "thumbnail")),
		Remove:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
		More:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "older")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Download, k.Cancel, k.Format, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.More},
		{k.Add, k.Download, k.Cancel},
		{k.Format, k.Thumbnail, k.Remove},
		{k.Help, k.Quit},
	}
}
