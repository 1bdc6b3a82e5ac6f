package domain

// Branch is one candidate traversal outcome: the ordered path of nodes from
// the exploration root to a terminal pausable node. Transparent elements
// (pins, jump nodes) are never part of the path.
type Branch struct {
	Path []*Node

	// Valid is false when a gating condition on the path failed. Invalid
	// branches are only surfaced when the player is configured to report
	// them (diagnostic UIs).
	Valid bool

	// Index is the branch's position in the player's current branch list,
	// assigned when the list is published.
	Index int
}

// Target returns the branch's terminal node, or nil for an empty path.
func (b *Branch) Target() *Node {
	if len(b.Path) == 0 {
		return nil
	}
	return b.Path[len(b.Path)-1]
}
