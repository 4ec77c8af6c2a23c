package goap

// NodeID addresses a Node inside its Tree.
type NodeID int

// NoParent is the Parent of a root node.
const NoParent NodeID = -1

// Node is one search-tree vertex.
//
// Invariant: the root has Parent == NoParent, Action == nil and Cost == 0.
type Node struct {
	State  WorldState
	Cost   int
	Parent NodeID
	// Action produced this node. Actions are shared, never owned.
	Action Action
}

// Tree is an append-only arena of nodes built by one planning call.
type Tree struct {
	nodes    []Node
	reversed bool
}

func newTree(root WorldState, reversed bool) *Tree {
	return &Tree{
		nodes:    []Node{{State: root, Parent: NoParent}},
		reversed: reversed,
	}
}

func (t *Tree) add(parent NodeID, state WorldState, cost int, a Action) NodeID {
	t.nodes = append(t.nodes, Node{State: state, Cost: cost, Parent: parent, Action: a})
	return NodeID(len(t.nodes) - 1)
}

// Node returns the node addressed by id.
//
// Precondition: 0 <= id < t.Len().
func (t *Tree) Node(id NodeID) Node { return t.nodes[id] }

// Root returns the root sentinel.
func (t *Tree) Root() Node { return t.nodes[0] }

// Len returns the number of nodes including the root.
func (t *Tree) Len() int { return len(t.nodes) }

// Reversed reports whether the tree was built by backward search.
func (t *Tree) Reversed() bool { return t.reversed }

// onPath reports whether state occurs on the path from id to the root.
func (t *Tree) onPath(id NodeID, state WorldState) bool {
	for id != NoParent {
		n := t.nodes[id]
		if n.State == state {
			return true
		}
		id = n.Parent
	}
	return false
}

// Leaf is a node whose state satisfied the goal predicate.
type Leaf struct {
	tree *Tree
	id   NodeID
}

// ID returns the leaf's node address.
func (l Leaf) ID() NodeID { return l.id }

// Tree returns the tree the leaf belongs to.
func (l Leaf) Tree() *Tree { return l.tree }

// Node returns the leaf node.
func (l Leaf) Node() Node { return l.tree.nodes[l.id] }

// Cost returns the running cost from the root to the leaf.
func (l Leaf) Cost() int { return l.Node().Cost }

// State returns the world state reached at the leaf.
func (l Leaf) State() WorldState { return l.Node().State }
