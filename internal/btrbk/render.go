package btrbk

import "strings"

// Render serializes a configuration tree into btrbk.conf syntax.
//
// The output is fully determined by the tree: assignments come first at
// every level, in insertion order, followed by the child sections, each
// introduced by a "keyword name" header with its body indented one space
// per nesting depth. The global root has no header.
func Render(root *Node) string {
	var sb strings.Builder
	renderNode(&sb, root, 0)
	return sb.String()
}

func renderNode(sb *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat(" ", depth)

	for _, a := range n.Assignments {
		sb.WriteString(indent)
		sb.WriteString(a.Key)
		sb.WriteString(" ")
		sb.WriteString(a.Value)
		sb.WriteString("\n")
	}

	for _, child := range n.Children {
		sb.WriteString(indent)
		sb.WriteString(child.Kind.Keyword())
		sb.WriteString(" ")
		sb.WriteString(child.Name)
		sb.WriteString("\n")
		renderNode(sb, child, depth+1)
	}
}
