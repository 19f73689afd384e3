package studio

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Single   key.Binding
	Several  key.Binding
	Focus    key.Binding
	Generate key.Binding
	Load     key.Binding
	Unload   key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Single: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "single"),
		),
		Several: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("f2", "several"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "text/reference"),
		),
		Generate: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "generate"),
		),
		Load: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "load model"),
		),
		Unload: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "unload model"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Single, k.Several, k.Focus, k.Generate, k.Load, k.Unload, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Single, k.Several, k.Focus},
		{k.Generate, k.Load, k.Unload, k.Quit},
	}
}
