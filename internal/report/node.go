// Package report holds the generic result tree produced by the query
// engine and its XML serialization. The engine builds named nodes with
// attributes, text leaves, and repeated children; it has no dependency on
// the concrete markup, which lives entirely in this package.
package report

// Attr is one named attribute of a node. Attributes keep insertion order
// so serialized output is deterministic.
type Attr struct {
	Key   string
	Value string
}

// Node is one element of a result tree.
type Node struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// NewNode constructs a node with the given name.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// SetAttr appends an attribute and returns the node for chaining.
func (n *Node) SetAttr(key, value string) *Node {
	n.Attrs = append(n.Attrs, Attr{Key: key, Value: value})
	return n
}

// AddChild appends a new empty child element and returns the child.
func (n *Node) AddChild(name string) *Node {
	child := NewNode(name)
	n.Children = append(n.Children, child)
	return child
}

// AddString appends a text leaf child and returns the receiver, so runs of
// leaves chain naturally.
func (n *Node) AddString(name, text string) *Node {
	child := n.AddChild(name)
	child.Text = text
	return n
}
