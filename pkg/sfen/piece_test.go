package sfen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFromRuneAndGlyph(t *testing.T) {
	tests := []struct {
		letter   rune
		kind     PieceKind
		plain    string
		promoted string
	}{
		{'P', Pawn, "歩", "と"},
		{'L', Lance, "香", "杏"},
		{'N', Knight, "桂", "圭"},
		{'S', Silver, "銀", "全"},
		{'G', Gold, "金", "金"},
		{'B', Bishop, "角", "馬"},
		{'R', Rook, "飛", "龍"},
		{'K', King, "玉", "玉"},
	}
	for _, tt := range tests {
		lower := tt.letter + 'a' - 'A'
		assert.Equal(t, tt.kind, KindFromRune(tt.letter))
		assert.Equal(t, tt.kind, KindFromRune(lower))
		assert.Equal(t, tt.letter, tt.kind.Letter())
		assert.Equal(t, tt.plain, Glyph(tt.kind, false))
		assert.Equal(t, tt.promoted, Glyph(tt.kind, true))

		first := PieceFromRune(tt.letter, Unspecified)
		assert.Equal(t, First, first.Side)
		assert.Equal(t, " "+tt.plain, first.String())

		second := PieceFromRune(lower, Promoted)
		assert.Equal(t, Second, second.Side)
		assert.Equal(t, "v"+tt.promoted, second.String())
	}
}

func TestUnknownRunesAreEmpty(t *testing.T) {
	for _, r := range []rune{' ', '・', 'x', '1', '+', 'Q'} {
		assert.Equal(t, Empty, KindFromRune(r), "rune %q", r)
		p := PieceFromRune(r, Unspecified)
		assert.True(t, p.IsEmpty())
		assert.Equal(t, Neither, p.Side)
		assert.Equal(t, " ・", p.String())
		_, ok := p.Kanji()
		assert.False(t, ok)
	}
	assert.Equal(t, "", Glyph(Empty, false))
	assert.Equal(t, rune(0), Empty.Letter())
}

func TestPromotionWords(t *testing.T) {
	assert.Equal(t, "", Unspecified.String())
	assert.Equal(t, "成", Promoted.String())
	assert.Equal(t, "不成", NotPromoted.String())
	assert.True(t, Promoted.IsPromoted())
	assert.False(t, NotPromoted.IsPromoted())
	assert.True(t, NotPromoted.IsNotPromoted())
}
