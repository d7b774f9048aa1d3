package sfen

import (
	"fmt"
	"strings"
)

const boardBorder = "+---------------------------+"

// Dump writes pos as a KIF-style text board (BOD) with both hands, the
// players, the move line and the title.
func Dump(pos Position, lm LastMove, first, second, title string) (string, error) {
	board, err := pos.Board()
	if err != nil {
		return "", err
	}
	hands, err := pos.Hands()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "後手：%s\n", second)
	fmt.Fprintf(&b, "後手の持駒：%s\n", handText(hands.Second))
	b.WriteString(" ")
	for file := Files; file >= 1; file-- {
		b.WriteString(" " + FileNumeral(file))
	}
	b.WriteString("\n" + boardBorder + "\n")
	for i, rank := range board {
		b.WriteString("|")
		for _, piece := range rank {
			b.WriteString(piece.String())
		}
		b.WriteString("|" + RankNumeral(i+1) + "\n")
	}
	b.WriteString(boardBorder + "\n")
	fmt.Fprintf(&b, "先手の持駒：%s\n", handText(hands.First))
	fmt.Fprintf(&b, "先手：%s\n", first)

	var status string
	if lm.IsOK() {
		status, err = lm.Describe()
	} else {
		status, err = pos.TurnDescription()
	}
	if err != nil {
		return "", err
	}
	n, err := pos.MoveNumber()
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "手数＝%d　%s\n* %s", n, status, title)
	return b.String(), nil
}

func handText(h Hand) string {
	if h.IsEmpty() {
		return "なし"
	}
	return h.Kanji()
}
