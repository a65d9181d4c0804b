package viz

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Inc     key.Binding
	Dec     key.Binding
	Edit    key.Binding
	Cancel  key.Binding
	Toggle  key.Binding
	Disturb key.Binding
	Pause   key.Binding
	Theme   key.Binding
	Export  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Next:    key.NewBinding(key.WithKeys("tab", "down", "j"), key.WithHelp("tab", "next slider")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab", "up", "k"), key.WithHelp("shift+tab", "prev slider")),
		Inc:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "increase")),
		Dec:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "decrease")),
		Edit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "type value")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel edit")),
		Toggle:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "linear/ball")),
		Disturb: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "disturb")),
		Pause:   key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "pause")),
		Theme:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Export:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export svg")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Inc, k.Toggle, k.Disturb, k.Pause, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Inc, k.Dec},
		{k.Edit, k.Cancel, k.Toggle, k.Disturb},
		{k.Pause, k.Theme, k.Export, k.Help, k.Quit},
	}
}
