// Package svg builds SVG documents as a tree of tagged nodes and writes
// them out as indented markup.
package svg

import "strings"

// Attr is one name="value" pair. An empty value is written as the bare name.
type Attr struct {
	Name  string
	Value string
}

func (a Attr) String() string {
	if a.Value == "" {
		return " " + a.Name
	}
	return " " + a.Name + `="` + escape(a.Value) + `"`
}

// Node is an element with ordered attributes, optional text and children.
type Node struct {
	name     string
	value    string
	attrs    []Attr
	children []*Node
}

func NewNode(name string) *Node {
	return &Node{name: name}
}

func (n *Node) Name() string      { return n.name }
func (n *Node) Value() string     { return n.value }
func (n *Node) Attrs() []Attr     { return n.attrs }
func (n *Node) Children() []*Node { return n.children }

// SetValue sets the text content.
func (n *Node) SetValue(v string) *Node {
	n.value = v
	return n
}

// SetAttr appends an attribute. Names may repeat; order is kept.
func (n *Node) SetAttr(name, value string) *Node {
	n.attrs = append(n.attrs, Attr{Name: name, Value: value})
	return n
}

// SetAttrs appends name/value pairs in order.
func (n *Node) SetAttrs(pairs ...[2]string) *Node {
	for _, p := range pairs {
		n.SetAttr(p[0], p[1])
	}
	return n
}

// Attr returns the first value set for name.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *Node) AddChild(child *Node) *Node {
	n.children = append(n.children, child)
	return n
}

func (n *Node) HasChildren() bool {
	return len(n.children) > 0
}

// Render writes the node and its subtree. Children are indented one space
// deeper than their parent. A node with children writes its text as a value
// attribute; a leaf without text is self-closing.
func (n *Node) Render(indent string) string {
	var b strings.Builder
	n.write(&b, indent)
	return b.String()
}

func (n *Node) write(b *strings.Builder, indent string) {
	b.WriteString(indent)
	b.WriteString("<" + n.name)
	switch {
	case len(n.children) > 0:
		if n.value != "" {
			b.WriteString(` value="` + escape(n.value) + `"`)
		}
		n.writeAttrs(b)
		b.WriteString(">\n")
		for _, c := range n.children {
			c.write(b, indent+" ")
		}
		b.WriteString(indent + "</" + n.name + ">\n")
	case n.value == "":
		n.writeAttrs(b)
		b.WriteString("/>\n")
	default:
		n.writeAttrs(b)
		b.WriteString(">" + escape(n.value) + "</" + n.name + ">\n")
	}
}

func (n *Node) writeAttrs(b *strings.Builder) {
	for _, a := range n.attrs {
		b.WriteString(a.String())
	}
}

// Walk calls fn for n and every descendant, depth first. Returning false
// skips the subtree below the current node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// FindByID returns the first node in the subtree whose id attribute is id.
func (n *Node) FindByID(id string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if v, ok := c.Attr("id"); ok && v == id {
			found = c
			return false
		}
		return true
	})
	return found
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string {
	return escaper.Replace(s)
}
