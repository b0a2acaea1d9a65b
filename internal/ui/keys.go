package ui

import "github.com/charmbracelet/bubbles/key"

// editorKeyMap defines key bindings for the EAN editor
type editorKeyMap struct {
	Save  key.Binding
	Clear key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k editorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.Clear, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k editorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Save, k.Clear, k.Quit},
	}
}

func newEditorKeyMap() editorKeyMap {
	return editorKeyMap{
		Save: key.NewBinding(
			key.WithKeys("enter", "ctrl+s"),
			key.WithHelp("enter", "speichern"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "leeren"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "beenden"),
		),
	}
}
