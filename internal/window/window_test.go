package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagesForMatchesFloorRange(t *testing.T) {
	const pageSize = 100
	for _, total := range []int{1, 99, 100, 101, 537, 1000, 12345} {
		for _, lo := range []int{0, 1, 99, 100, 250, 536, 999} {
			for _, span := range []int{0, 1, 50, 150, 400} {
				hi := lo + span
				if lo >= total || hi >= total {
					continue
				}
				got := PagesFor(lo, hi, total, pageSize)

				var want []int
				last := (total+pageSize-1)/pageSize - 1
				for p := lo / pageSize; p <= hi/pageSize && p <= last; p++ {
					want = append(want, p)
				}
				assert.Equal(t, want, got, "total=%d lo=%d hi=%d", total, lo, hi)
			}
		}
	}
}

func TestPagesForClampsStaleTotal(t *testing.T) {
	tests := []struct {
		name          string
		lo, hi, total int
		want          []int
	}{
		{"empty table", 0, 10, 0, nil},
		{"range past the end", 450, 620, 537, []int{4, 5}},
		{"range fully past the end", 900, 950, 537, nil},
		{"negative lo", -20, 30, 537, []int{0}},
		{"inverted range", 30, 10, 537, nil},
		{"single row", 0, 0, 1, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PagesFor(tt.lo, tt.hi, tt.total, 100))
		})
	}
}

func TestViewportRange(t *testing.T) {
	v := Viewport{Offset: 0, Height: 400, RowHeight: 40, Overscan: 5}
	lo, hi, ok := v.Range(1000)
	assert.True(t, ok)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 14, hi)

	v.Offset = 4000 // row 100
	lo, hi, ok = v.Range(1000)
	assert.True(t, ok)
	assert.Equal(t, 95, lo)
	assert.Equal(t, 114, hi)

	lo, hi, ok = v.Range(105)
	assert.True(t, ok)
	assert.Equal(t, 95, lo)
	assert.Equal(t, 104, hi)

	_, _, ok = v.Range(0)
	assert.False(t, ok)
}

func TestViewportPartialRowCounts(t *testing.T) {
	v := Viewport{Height: 410, RowHeight: 40}
	assert.Equal(t, 11, v.VisibleRows())
	assert.Equal(t, 0, Viewport{}.VisibleRows())
}

func TestViewportReveal(t *testing.T) {
	v := Viewport{Height: 10, RowHeight: 1}
	assert.Equal(t, 0, v.Reveal(5).FirstRow())
	assert.Equal(t, 6, v.Reveal(15).FirstRow())

	v = v.ScrollTo(20)
	assert.Equal(t, 12, v.Reveal(12).FirstRow())
	assert.Equal(t, 20, v.Reveal(25).FirstRow())
}

func TestPageOf(t *testing.T) {
	p, off := PageOf(537, 100)
	assert.Equal(t, 5, p)
	assert.Equal(t, 37, off)
}
