package diagram

import (
	"fmt"
	"strconv"

	"sfenimg/pkg/sfen"
	"sfenimg/pkg/svg"
)

func boardNode(board *sfen.Board, lm sfen.LastMove) *svg.Node {
	g := svg.NewNode("g").SetAttr("id", "board").SetAttr("transform", translate(boardX, boardY))
	if sq, ok := lm.Target(); ok && sq.OnBoard() {
		g.AddChild(highlightNode(sq))
	}
	g.AddChild(gridNode())
	for i, rank := range board {
		row := svg.NewNode("g").
			SetAttr("id", "dan"+strconv.Itoa(i+1)).
			SetAttr("transform", translate(0, i*cell))
		for j, piece := range rank {
			if n := pieceNode(piece, j); n != nil {
				row.AddChild(n)
			}
		}
		if row.HasChildren() {
			g.AddChild(row)
		}
	}
	return g
}

func highlightNode(sq sfen.Square) *svg.Node {
	g := svg.NewNode("g").
		SetAttr("id", "lastmove").
		SetAttr("transform", fmt.Sprintf("translate(%d, %d)", boardW-sq.File*cell, sq.Rank*cell-cell))
	rect := svg.NewNode("rect").SetAttrs(
		[2]string{"x", "0"},
		[2]string{"y", "0"},
		[2]string{"width", strconv.Itoa(cell)},
		[2]string{"height", strconv.Itoa(cell)},
		[2]string{"fill", highlightFill},
	)
	return g.AddChild(rect)
}

// gridNode is the frame, the thin lines drawn as alternating rectangles,
// and the file and rank labels.
func gridNode() *svg.Node {
	g := svg.NewNode("g").SetAttr("id", "ban")
	g.AddChild(svg.NewNode("rect").SetAttrs(
		[2]string{"x", "0"},
		[2]string{"y", "0"},
		[2]string{"width", strconv.Itoa(boardW)},
		[2]string{"height", strconv.Itoa(boardH)},
		[2]string{"fill", "none"},
		[2]string{"stroke", "black"},
		[2]string{"stroke-width", "2"},
	))
	for i := 0; i < 4; i++ {
		g.AddChild(svg.NewNode("rect").SetAttrs(
			[2]string{"x", "0"},
			[2]string{"width", strconv.Itoa(boardW)},
			[2]string{"height", strconv.Itoa(cell)},
			[2]string{"fill", "none"},
			[2]string{"stroke", "black"},
			[2]string{"stroke-width", "1"},
			[2]string{"y", strconv.Itoa(i*2*cell + cell)},
		))
	}
	for i := 0; i < 4; i++ {
		g.AddChild(svg.NewNode("rect").SetAttrs(
			[2]string{"y", "0"},
			[2]string{"width", strconv.Itoa(cell)},
			[2]string{"height", strconv.Itoa(boardH)},
			[2]string{"fill", "none"},
			[2]string{"stroke", "black"},
			[2]string{"stroke-width", "1"},
			[2]string{"x", strconv.Itoa(i*2*cell + cell)},
		))
	}

	files := svg.NewNode("g").SetAttr("transform", translate(0, -5))
	for i := 0; i < sfen.Files; i++ {
		files.AddChild(svg.NewNode("text").SetAttrs(
			[2]string{"y", "0"},
			[2]string{"font-size", "10px"},
			[2]string{"text-anchor", "middle"},
			[2]string{"x", strconv.Itoa(i*cell + cell/2)},
		).SetValue(sfen.FileNumeral(sfen.Files - i)))
	}
	g.AddChild(files)

	ranks := svg.NewNode("g").SetAttr("transform", translate(boardW+3, 0))
	for i := 0; i < sfen.Ranks; i++ {
		ranks.AddChild(svg.NewNode("text").SetAttrs(
			[2]string{"x", "0"},
			[2]string{"font-size", "10px"},
			[2]string{"text-anchor", "left"},
			[2]string{"y", strconv.Itoa(i*cell + 13)},
		).SetValue(sfen.RankNumeral(i + 1)))
	}
	g.AddChild(ranks)
	return g
}

// pieceNode draws the piece in column col of its rank, or returns nil for
// an empty square. Second-side pieces are turned upside down.
func pieceNode(p sfen.Piece, col int) *svg.Node {
	glyph, ok := p.Kanji()
	if !ok {
		return nil
	}
	g := svg.NewNode("g").SetAttr("transform", translate(col*cell, 0))
	text := svg.NewNode("text").
		SetAttr("font-size", "18px").
		SetAttr("text-anchor", "middle").
		SetValue(glyph)
	if p.Side == sfen.First {
		text.SetAttr("x", "10").SetAttr("y", "17")
		return g.AddChild(text)
	}
	text.SetAttr("x", "0").SetAttr("y", "6")
	rotated := svg.NewNode("g").SetAttr("transform", "translate(10,10) rotate(180)")
	rotated.AddChild(text)
	return g.AddChild(rotated)
}
