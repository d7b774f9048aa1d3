package sfen

import (
	"errors"
	"fmt"
)

// MaxHandCount is the largest count with a kanji numeral.
const MaxHandCount = 18

var kanjiCounts = [MaxHandCount + 1]string{
	"", "", "二", "三", "四", "五", "六", "七", "八", "九",
	"十", "十一", "十二", "十三", "十四", "十五", "十六", "十七", "十八",
}

// DegradedCountError reports a hand count that has no numeral. Text is still
// printable and callers are expected to show it.
type DegradedCountError struct {
	Kind  PieceKind
	Count int
	Text  string
}

func (e *DegradedCountError) Error() string {
	return fmt.Sprintf("%d %s in hand cannot be written in kanji", e.Count, e.Kind)
}

// HandKanji writes count pieces of kind the way a komadai caption does,
// e.g. 歩三. A single piece is the glyph alone and zero is empty.
func HandKanji(kind PieceKind, count int) (string, error) {
	glyph := Glyph(kind, false)
	if count > MaxHandCount {
		return "", &DegradedCountError{Kind: kind, Count: count, Text: glyph + "??"}
	}
	if count <= 0 {
		return "", nil
	}
	return glyph + kanjiCounts[count], nil
}

// HandEntry is one kind held by a side.
type HandEntry struct {
	Kind  PieceKind
	Count int
}

// Hand holds the pieces of one side in the order they were first listed.
type Hand struct {
	entries []HandEntry
}

func (h *Hand) add(kind PieceKind, count int) {
	for i := range h.entries {
		if h.entries[i].Kind == kind {
			h.entries[i].Count += count
			return
		}
	}
	h.entries = append(h.entries, HandEntry{Kind: kind, Count: count})
}

func (h Hand) Count(kind PieceKind) int {
	for _, e := range h.entries {
		if e.Kind == kind {
			return e.Count
		}
	}
	return 0
}

func (h Hand) Entries() []HandEntry {
	out := make([]HandEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h Hand) IsEmpty() bool {
	return len(h.entries) == 0
}

// Kanji joins every entry with HandKanji, e.g. 飛角二歩十八. Over-large
// counts are written with their degraded text.
func (h Hand) Kanji() string {
	var out string
	for _, e := range h.entries {
		text, err := HandKanji(e.Kind, e.Count)
		var dc *DegradedCountError
		if errors.As(err, &dc) {
			text = dc.Text
		}
		out += text
	}
	return out
}

// Hands are the captured pieces of both sides.
type Hands struct {
	First  Hand
	Second Hand
}

func (h Hands) Side(s Side) Hand {
	if s == Second {
		return h.Second
	}
	return h.First
}
