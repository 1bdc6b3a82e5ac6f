package runtime

import (
	"context"
	"fmt"

	"github.com/studiobgc/dialogue-editor/pkg/domain"
)

// explore walks the graph ahead of node and returns every candidate branch.
// It always runs inside a shadow context opened by the caller, so condition
// evaluation and instruction execution stay speculative.
//
// includeCurrent is false only for the exploration root: the root neither
// terminates exploration nor appears in branch paths.
func (p *Player) explore(ctx context.Context, node *domain.Node, depth int, includeCurrent bool) []domain.Branch {
	if depth > p.cfg.ExploreLimit {
		if p.recorder != nil {
			p.recorder.DepthLimitExceeded()
		}
		p.diag(fmt.Errorf("at node %s: %w", node.ID, &domain.DepthLimitError{Limit: p.cfg.ExploreLimit}))
		return nil
	}

	// A pausable node is a hard stop for presentation, not a pass-through.
	// Auto-transition suppresses the stop when the node is reached during
	// exploration; as the root it still pauses (handled by the player).
	if includeCurrent && p.ShouldPauseOn(node) && !node.AutoTransition() {
		return []domain.Branch{{Path: []*domain.Node{node}, Valid: true}}
	}

	switch node.Kind {
	case domain.KindJump:
		// The jump is transparent: redirect without entering the path.
		if node.Jump == nil {
			p.diag(fmt.Errorf("jump node %s has no target", node.ID))
			return nil
		}
		target, err := p.db.Node(node.Jump.TargetNodeID)
		if err != nil {
			p.diag(fmt.Errorf("jump node %s: %w", node.ID, err))
			return nil
		}
		return p.explore(ctx, target, depth+1, true)

	case domain.KindCondition:
		passed := p.evaluateScript(ctx, node.Script, node.ID)
		if !passed && p.cfg.IgnoreInvalidBranches {
			// Dead end: this path contributes nothing.
			return nil
		}
		sub := p.exploreOut(ctx, node, depth)
		if !passed {
			for i := range sub {
				sub[i].Valid = false
			}
		}
		return prependNode(node, sub, includeCurrent)

	case domain.KindInstruction:
		// Executed speculatively so later conditions in this same
		// lookahead observe the mutation; the shadow pop discards it.
		if node.Script != nil && !node.Script.IsEmpty() {
			if err := p.eval.Execute(ctx, node.Script.Expression, p.vars, p.method); err != nil {
				p.diag(fmt.Errorf("instruction node %s: %w", node.ID, err))
			}
		}
		return prependNode(node, p.exploreOut(ctx, node, depth), includeCurrent)

	default:
		// Hub, FlowFragment, Dialogue (reached here either as the root or
		// with auto-transition): fan out through all output pins.
		return prependNode(node, p.exploreOut(ctx, node, depth), includeCurrent)
	}
}

// exploreOut fans out through a node's output pins in index order,
// following every connection in index order.
func (p *Player) exploreOut(ctx context.Context, node *domain.Node, depth int) []domain.Branch {
	var out []domain.Branch
	for _, pin := range node.OutputPins {
		out = append(out, p.explorePin(ctx, pin, depth)...)
	}
	return out
}

// explorePin follows one output pin's connections. Each target's input pin
// may gate entry with a condition; a failed gate drops that connection (or
// tags its branches invalid when invalid reporting is on). Dead connections
// are a data-quality issue: skipped with a warning, never fatal.
func (p *Player) explorePin(ctx context.Context, pin *domain.OutputPin, depth int) []domain.Branch {
	var out []domain.Branch
	for _, conn := range pin.Connections {
		target, err := p.db.Node(conn.TargetNodeID)
		if err != nil {
			p.logger.Warn("dead connection, skipping",
				"owner", pin.OwnerID, "pin", pin.Index, "target", conn.TargetNodeID)
			continue
		}
		inPin := target.InputPin(conn.TargetPinIndex)
		if inPin == nil {
			p.logger.Warn("connection targets missing input pin, skipping",
				"owner", pin.OwnerID, "target", conn.TargetNodeID, "pin_index", conn.TargetPinIndex)
			continue
		}

		passed := true
		if inPin.HasCondition() {
			passed = p.evaluateScript(ctx, &inPin.Condition, target.ID)
		}
		if !passed && p.cfg.IgnoreInvalidBranches {
			continue
		}

		sub := p.explore(ctx, target, depth+1, true)
		if !passed {
			for i := range sub {
				sub[i].Valid = false
			}
		}
		out = append(out, sub...)
	}
	return out
}

// evaluateScript evaluates a condition expression, degrading evaluator
// errors to a failed gate plus a diagnostic. An empty script passes.
func (p *Player) evaluateScript(ctx context.Context, script *domain.Script, at domain.ID) bool {
	if script == nil || script.IsEmpty() {
		return true
	}
	ok, err := p.eval.Evaluate(ctx, script.Expression, p.vars, p.method)
	if err != nil {
		p.diag(fmt.Errorf("condition at %s: %w", at, err))
		return false
	}
	return ok
}

// prependNode prepends node to every branch path. The exploration root
// (includeSelf=false) stays out of paths, as do jump nodes, which never
// reach here.
func prependNode(node *domain.Node, branches []domain.Branch, includeSelf bool) []domain.Branch {
	if !includeSelf {
		return branches
	}
	for i := range branches {
		path := make([]*domain.Node, 0, len(branches[i].Path)+1)
		path = append(path, node)
		path = append(path, branches[i].Path...)
		branches[i].Path = path
	}
	return branches
}

// findExitPin locates the output pin of from whose connections lead to
// next, following jump chains since jumps are absent from branch paths.
func (p *Player) findExitPin(from, next *domain.Node) *domain.OutputPin {
	for _, pin := range from.OutputPins {
		for _, conn := range pin.Connections {
			target, err := p.db.Node(conn.TargetNodeID)
			if err != nil {
				continue
			}
			if p.resolveThroughJumps(target, 0) == next {
				return pin
			}
		}
	}
	return nil
}

// resolveThroughJumps follows a jump chain to its destination node.
func (p *Player) resolveThroughJumps(node *domain.Node, depth int) *domain.Node {
	if node == nil || node.Kind != domain.KindJump || node.Jump == nil {
		return node
	}
	if depth > p.cfg.ExploreLimit {
		return nil
	}
	target, err := p.db.Node(node.Jump.TargetNodeID)
	if err != nil {
		return nil
	}
	return p.resolveThroughJumps(target, depth+1)
}
