package console

import (
	tea "github.com/charmbracelet/bubbletea"
)

// specialKeys maps terminal key types to the backend's key identifiers
// (the names the page driver's keyboard layer accepts). Tab and control
// chords are absent: those keep their console meaning.
var specialKeys = map[tea.KeyType]string{
	tea.KeyEnter:     "Enter",
	tea.KeyBackspace: "Backspace",
	tea.KeyDelete:    "Delete",
	tea.KeyEsc:       "Escape",
	tea.KeyUp:        "ArrowUp",
	tea.KeyDown:      "ArrowDown",
	tea.KeyLeft:      "ArrowLeft",
	tea.KeyRight:     "ArrowRight",
	tea.KeyHome:      "Home",
	tea.KeyEnd:       "End",
	tea.KeyPgUp:      "PageUp",
	tea.KeyPgDown:    "PageDown",
	tea.KeySpace:     " ",
}

// keyName translates a terminal key press into the backend key
// identifier, or ok=false for keys the console keeps for itself.
func keyName(msg tea.KeyMsg) (string, bool) {
	if msg.Alt {
		return "", false
	}
	if name, ok := specialKeys[msg.Type]; ok {
		return name, true
	}
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		return string(msg.Runes), true
	}
	return "", false
}
