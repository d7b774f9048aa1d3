package svg

import "strconv"

const (
	Width  = 260
	Height = 275

	Namespace   = "http://www.w3.org/2000/svg"
	declaration = "<?xml version='1.0'?>\n"
)

// Document is an svg root of fixed canvas size.
type Document struct {
	Root *Node
}

func NewDocument() *Document {
	root := NewNode("svg")
	w, h := strconv.Itoa(Width), strconv.Itoa(Height)
	root.SetAttrs(
		[2]string{"width", w},
		[2]string{"height", h},
		[2]string{"viewBox", "0 0 " + w + " " + h},
		[2]string{"version", "1.1"},
		[2]string{"xmlns", Namespace},
	)
	return &Document{Root: root}
}

func (d *Document) Add(n *Node) {
	d.Root.AddChild(n)
}

// String renders the whole document, XML declaration first.
func (d *Document) String() string {
	return declaration + d.Root.Render("")
}

func (d *Document) Bytes() []byte {
	return []byte(d.String())
}
