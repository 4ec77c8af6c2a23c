package goap

// GetBestLeaves returns every leaf whose cost equals the minimum cost among
// leaves, in input order. Ties are not broken further.
//
// Postcondition: returns nil when leaves is empty.
func GetBestLeaves(leaves []Leaf) []Leaf {
	if len(leaves) == 0 {
		return nil
	}
	lowest := leaves[0].Cost()
	for _, l := range leaves[1:] {
		if c := l.Cost(); c < lowest {
			lowest = c
		}
	}
	var out []Leaf
	for _, l := range leaves {
		if l.Cost() == lowest {
			out = append(out, l)
		}
	}
	return out
}

// UnrollLeaf walks parent links from leaf to the root and returns the nodes
// in execution order, root sentinel excluded.
//
// reversed must match the search direction: false for BuildGraph leaves,
// true for BuildReversedGraph leaves. A backward path collected from leaf to
// root is already in start-to-goal order; a forward one is flipped.
func UnrollLeaf(leaf Leaf, reversed bool) []Node {
	var path []Node
	for id := leaf.id; id != NoParent; {
		n := leaf.tree.nodes[id]
		if n.Parent == NoParent {
			break
		}
		path = append(path, n)
		id = n.Parent
	}
	if !reversed {
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
	}
	return path
}

// Actions extracts the action of each node.
func Actions(nodes []Node) []Action {
	out := make([]Action, len(nodes))
	for i, n := range nodes {
		out[i] = n.Action
	}
	return out
}
