package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mesh-intelligence/gridbase/internal/nav"
)

var navKeys = map[tea.KeyType]nav.KeyKind{
	tea.KeyEnter:     nav.KeyEnter,
	tea.KeyEsc:       nav.KeyEscape,
	tea.KeyTab:       nav.KeyTab,
	tea.KeyShiftTab:  nav.KeyShiftTab,
	tea.KeyUp:        nav.KeyUp,
	tea.KeyDown:      nav.KeyDown,
	tea.KeyLeft:      nav.KeyLeft,
	tea.KeyRight:     nav.KeyRight,
	tea.KeyHome:      nav.KeyHome,
	tea.KeyEnd:       nav.KeyEnd,
	tea.KeyBackspace: nav.KeyBackspace,
}

// navKey translates a terminal key into a grid key. Alt-modified keys are
// not grid keys.
func navKey(msg tea.KeyMsg) (nav.Key, bool) {
	if msg.Alt {
		return nav.Key{}, false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) != 1 {
			return nav.Key{}, false
		}
		return nav.Rune(msg.Runes[0]), true
	case tea.KeySpace:
		return nav.Rune(' '), true
	}
	if k, ok := navKeys[msg.Type]; ok {
		return nav.Key{Kind: k}, true
	}
	return nav.Key{}, false
}

// moveKey is the arrow that keeps the selection on a row moved by delta.
func moveKey(delta int) nav.Key {
	if delta < 0 {
		return nav.Key{Kind: nav.KeyUp}
	}
	return nav.Key{Kind: nav.KeyDown}
}
