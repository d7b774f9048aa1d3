package diagram

import (
	"strconv"

	"sfenimg/pkg/sfen"
	"sfenimg/pkg/svg"
)

const (
	kingMarkPoints = "0,-5 4,-4 5,5 -5,5 -4,-4"
	nameMarkPoints = "10,0 18,2 20,20 0,20 2,2"
	winMarkPoints  = "15,0 22.5,5 30,0 30,30 0,30 0,0 7.5,5"
)

func titleNode(title string) *svg.Node {
	if title == "" {
		return nil
	}
	g := svg.NewNode("g").SetAttr("id", "title")
	return g.AddChild(svg.NewNode("text").SetAttrs(
		[2]string{"x", strconv.Itoa(svg.Width / 2)},
		[2]string{"y", "15"},
		[2]string{"font-size", "16px"},
		[2]string{"text-anchor", "middle"},
		[2]string{"width", strconv.Itoa(svg.Width) + "px"},
		[2]string{"text-overflow", "ellipsis"},
	).SetValue(title))
}

// turnNode marks the side to move with a square next to its name, or the
// winner with a notched banner. Unknown codes draw nothing.
func turnNode(code string) *svg.Node {
	var (
		transform string
		mark      *svg.Node
	)
	square := func() *svg.Node {
		return svg.NewNode("rect").SetAttrs(
			[2]string{"x", "0"},
			[2]string{"y", "0"},
			[2]string{"width", "30"},
			[2]string{"height", "30"},
			[2]string{"fill", turnFill},
			[2]string{"stroke", "none"},
		)
	}
	banner := func() *svg.Node {
		return svg.NewNode("polygon").SetAttrs(
			[2]string{"points", winMarkPoints},
			[2]string{"fill", turnFill},
			[2]string{"stroke", "none"},
		)
	}
	switch code {
	case "b":
		transform, mark = translate(230, 245), square()
	case "w":
		transform, mark = translate(0, 20), square()
	case "fb":
		transform, mark = translate(0, 245), banner()
	case "fw":
		transform, mark = translate(30, 20), banner()
	default:
		return nil
	}
	g := svg.NewNode("g").SetAttr("id", "teban").SetAttr("transform", transform)
	return g.AddChild(mark)
}

func nameMark(fill string) *svg.Node {
	return svg.NewNode("polygon").SetAttrs(
		[2]string{"points", nameMarkPoints},
		[2]string{"fill", fill},
		[2]string{"stroke", "black"},
		[2]string{"stroke-width", "1"},
	)
}

func nameText(x int, name string) *svg.Node {
	return svg.NewNode("text").SetAttrs(
		[2]string{"x", strconv.Itoa(x)},
		[2]string{"y", "15"},
		[2]string{"font-size", "16px"},
		[2]string{"text-anchor", "left"},
		[2]string{"width", "230px"},
		[2]string{"text-overflow", "ellipsis"},
	).SetValue(name)
}

// firstNameNode sits below the board with the mark at the right end.
func firstNameNode(name string) *svg.Node {
	g := svg.NewNode("g").SetAttr("id", "sname").SetAttr("transform", translate(5, 250))
	g.AddChild(svg.NewNode("g").SetAttr("transform", translate(230, 0)).AddChild(nameMark("black")))
	if name != "" {
		g.AddChild(nameText(0, name))
	}
	return g
}

// secondNameNode sits above the board with the mark first.
func secondNameNode(name string) *svg.Node {
	g := svg.NewNode("g").SetAttr("id", "gname").SetAttr("transform", translate(5, 25))
	g.AddChild(nameMark("none"))
	if name != "" {
		g.AddChild(nameText(25, name))
	}
	return g
}

// komadaiNode lists a hand top to bottom under a small king mark, filled
// for the first side and hollow for the second. Counts above one are
// written beside the glyph.
func komadaiNode(id, transform, fill string, hand sfen.Hand) *svg.Node {
	g := svg.NewNode("g").SetAttr("id", id).SetAttr("transform", transform)
	mark := svg.NewNode("polygon").SetAttrs(
		[2]string{"points", kingMarkPoints},
		[2]string{"fill", fill},
		[2]string{"stroke", "black"},
	)
	g.AddChild(svg.NewNode("g").SetAttr("transform", translate(0, -7)).AddChild(mark))

	y := cell
	for _, e := range hand.Entries() {
		g.AddChild(svg.NewNode("text").SetAttrs(
			[2]string{"x", "0"},
			[2]string{"font-size", "16px"},
			[2]string{"text-anchor", "middle"},
			[2]string{"y", strconv.Itoa(y)},
		).SetValue(sfen.Glyph(e.Kind, false)))
		if e.Count > 1 {
			g.AddChild(svg.NewNode("text").SetAttrs(
				[2]string{"x", "8"},
				[2]string{"font-size", "12px"},
				[2]string{"text-anchor", "left"},
				[2]string{"y", strconv.Itoa(y)},
			).SetValue(strconv.Itoa(e.Count)))
		}
		y += cell
	}
	return g
}
