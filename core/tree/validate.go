package tree

import (
	"errors"
	"fmt"
)

// ErrInvalidTree is matched by every error Validate returns.
var ErrInvalidTree = errors.New("invalid tree")

// ValidationError describes the first structural violation found.
type ValidationError struct {
	Node   NodeID // Offending node (None when the arena itself is at fault)
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Node == None {
		return "invalid tree: " + e.Reason
	}
	return fmt.Sprintf("invalid tree at node %d: %s", e.Node, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidTree }

// IsValid reports whether the tree rooted at root is well formed.
func (t *Tree[T]) IsValid(root NodeID) bool {
	return t.Validate(root) == nil
}

// Validate walks the tree rooted at root and checks, at every entered node,
// the local link invariants:
//
//   - a node with a next sibling has a parent, that sibling links back to it
//     and shares its parent;
//   - a node with a parent but no next sibling is its parent's last child;
//   - a first child links back to its parent and has no previous sibling;
//   - first and last child are both present or both absent.
//
// Only forward links are checked; global uniqueness is not re-derived.
// root itself must have no parent.
//
// A cyclic structure whose links are pairwise consistent would never finish
// walking, so the walk is bounded: a well-formed tree emits exactly two
// events per node, and more than 2*Len events means the walk revisits nodes.
func (t *Tree[T]) Validate(root NodeID) error {
	return t.validate(root, 2*len(t.nodes))
}

func (t *Tree[T]) validate(root NodeID, limit int) error {
	if !t.Contains(root) {
		return &ValidationError{Node: None, Reason: fmt.Sprintf("root %d out of range", root)}
	}
	if t.nodes[root].parent != None {
		return &ValidationError{Node: root, Reason: "root must not have a parent"}
	}

	steps := 0

	w := t.Walk(root)
	for w.HasNext() {
		ev, _ := w.Next()
		steps++
		if steps > limit {
			return &ValidationError{Node: ev.Node, Reason: "walk exceeded node count, links form a cycle"}
		}
		if !ev.Entering {
			continue
		}
		if reason := t.checkNode(ev.Node); reason != "" {
			return &ValidationError{Node: ev.Node, Reason: reason}
		}
	}

	return nil
}

// checkNode returns why id violates a local invariant, or "" when it holds.
func (t *Tree[T]) checkNode(id NodeID) string {
	n := &t.nodes[id]

	for _, link := range [...]NodeID{n.parent, n.firstChild, n.lastChild, n.prevSibling, n.nextSibling} {
		if link != None && !t.Contains(link) {
			return fmt.Sprintf("link %d out of range", link)
		}
	}

	if n.nextSibling != None {
		if n.parent == None {
			return "a node must have a parent to have siblings"
		}
		next := &t.nodes[n.nextSibling]
		if next.prevSibling != id {
			return "siblings must refer to each other"
		}
		if next.parent != n.parent {
			return "direct siblings must share a parent"
		}
	} else if n.parent != None && t.nodes[n.parent].lastChild != id {
		return "a node without a next sibling must be its parent's last child"
	}

	if n.firstChild != None {
		first := &t.nodes[n.firstChild]
		if first.parent != id {
			return "first child must refer to its parent"
		}
		if first.prevSibling != None {
			return "first child must not have a previous sibling"
		}
	}

	if (n.firstChild == None) != (n.lastChild == None) {
		return "first and last child must both be present or both absent"
	}

	return ""
}
