package nav

import "unicode"

// KeyKind enumerates the keys the grid interprets.
type KeyKind int

const (
	KeyRune KeyKind = iota
	KeyEnter
	KeyEscape
	KeyTab
	KeyShiftTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyBackspace
)

// Key is one keyboard event. Rune is set for KeyRune only.
type Key struct {
	Kind KeyKind
	Rune rune
}

// Rune returns the key event for a typed character.
func Rune(r rune) Key { return Key{Kind: KeyRune, Rune: r} }

// Printable reports whether the key is a single printable character.
func (k Key) Printable() bool {
	return k.Kind == KeyRune && unicode.IsPrint(k.Rune)
}
