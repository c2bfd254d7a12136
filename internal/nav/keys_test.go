package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintable(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want bool
	}{
		{"letter", Rune('a'), true},
		{"space", Rune(' '), true},
		{"accented", Rune('é'), true},
		{"tab control", Rune('\t'), false},
		{"delete", Rune(0x7f), false},
		{"c1 control", Rune(0x85), false},
		{"c1 csi", Rune(0x9b), false},
		{"not a rune key", Key{Kind: KeyEnter}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.Printable())
		})
	}
}
