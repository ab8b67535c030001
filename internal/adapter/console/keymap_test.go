package console

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestKeyNameSpecials(t *testing.T) {
	cases := []struct {
		typ  tea.KeyType
		want string
	}{
		{tea.KeyEnter, "Enter"},
		{tea.KeyBackspace, "Backspace"},
		{tea.KeyEsc, "Escape"},
		{tea.KeyUp, "ArrowUp"},
		{tea.KeyLeft, "ArrowLeft"},
		{tea.KeyPgDown, "PageDown"},
		{tea.KeySpace, " "},
	}
	for _, tc := range cases {
		got, ok := keyName(tea.KeyMsg{Type: tc.typ})
		if !ok || got != tc.want {
			t.Errorf("keyName(%v) = %q, %v; want %q, true", tc.typ, got, ok, tc.want)
		}
	}
}

func TestKeyNameRunes(t *testing.T) {
	got, ok := keyName(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	if !ok || got != "a" {
		t.Fatalf("keyName('a') = %q, %v", got, ok)
	}
	got, ok = keyName(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'é'}})
	if !ok || got != "é" {
		t.Fatalf("keyName('é') = %q, %v", got, ok)
	}
}

func TestKeyNameConsoleKeys(t *testing.T) {
	if _, ok := keyName(tea.KeyMsg{Type: tea.KeyTab}); ok {
		t.Error("Tab should stay a console key")
	}
	if _, ok := keyName(tea.KeyMsg{Type: tea.KeyCtrlC}); ok {
		t.Error("Ctrl+C should stay a console key")
	}
	if _, ok := keyName(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}, Alt: true}); ok {
		t.Error("Alt chords should stay console keys")
	}
	if _, ok := keyName(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ab")}); ok {
		t.Error("multi-rune input should be dropped")
	}
}
