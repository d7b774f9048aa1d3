// Package diagram draws a shogi position as an SVG board with both
// komadai, player names, a title and a turn marker.
package diagram

import (
	"fmt"

	"sfenimg/pkg/sfen"
	"sfenimg/pkg/svg"
)

// Layout. The canvas size lives in package svg.
const (
	cell = 20

	boardX = 35
	boardY = 65
	boardW = sfen.Files * cell
	boardH = sfen.Ranks * cell

	highlightFill = "#FF4"
	turnFill      = "#F3C"
)

// Options carry the text around the board. Turn, when set, replaces the
// turn field of the position for the marker.
type Options struct {
	First  string
	Second string
	Title  string
	Turn   string
}

// Render builds the diagram for pos. A board or hand that does not parse
// fails the whole render. lm highlights its destination square when it is
// set.
func Render(pos sfen.Position, lm sfen.LastMove, opts Options) (*svg.Document, error) {
	board, err := pos.Board()
	if err != nil {
		return nil, err
	}
	hands, err := pos.Hands()
	if err != nil {
		return nil, err
	}

	turn := opts.Turn
	if turn == "" {
		turn = pos.TurnField()
	}

	top := svg.NewNode("g")
	if title := titleNode(opts.Title); title != nil {
		top.AddChild(title)
	}
	if marker := turnNode(turn); marker != nil {
		top.AddChild(marker)
	}
	top.AddChild(firstNameNode(opts.First))
	top.AddChild(secondNameNode(opts.Second))
	top.AddChild(boardNode(&board, lm))
	top.AddChild(komadaiNode("stegoma", "translate(239,75)", "black", hands.First))
	top.AddChild(komadaiNode("gtegoma", "translate(9,75)", "none", hands.Second))

	doc := svg.NewDocument()
	doc.Add(top)
	return doc, nil
}

func translate(x, y int) string {
	return fmt.Sprintf("translate(%d,%d)", x, y)
}
