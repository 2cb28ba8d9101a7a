package menu

// Flatten projects a forest back to an ordered flat sequence via depth-first
// pre-order traversal. It never mutates the trees, so flattening twice yields
// identical output.
func Flatten(roots []*Node) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		out = append(out, n)
		for _, child := range n.Children {
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return out
}

// FlattenIDs returns just the node ids in flatten order.
func FlattenIDs(roots []*Node) []int64 {
	nodes := Flatten(roots)
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
