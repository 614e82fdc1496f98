// Package tree implements an ordered, payload-parameterised tree stored in an
// arena.
//
// Every node carries five structural links (parent, first child, last child,
// previous sibling, next sibling). Links are NodeIDs into the arena rather
// than pointers, so a malformed structure can never corrupt memory: the worst
// case is a link that points somewhere the invariants say it should not,
// which Validate reports.
//
// Building is strictly additive. Nodes are created detached with NewNode and
// attached exactly once through AppendChild or InsertSiblingAfter. There is no
// detach, re-parent or delete. Attaching an already attached node is not
// defended against and leaves the tree in an unspecified shape.
//
// A Tree has no internal synchronisation. It is safe for one writer, or for
// any number of readers while the writer is quiescent.
package tree

import (
	"errors"
	"fmt"
	"iter"

	"github.com/opal-lang/oracle/core/invariant"
)

// NodeID addresses a node inside its Tree's arena.
type NodeID int32

// None is the absent link.
const None NodeID = -1

// ErrInvalidOperation is returned for structural operations that cannot be
// applied, such as adding a sibling to a root.
var ErrInvalidOperation = errors.New("invalid tree operation")

type node[T any] struct {
	payload T

	parent      NodeID
	firstChild  NodeID
	lastChild   NodeID
	prevSibling NodeID
	nextSibling NodeID
}

// Tree is an arena of nodes carrying payloads of type T.
// The zero value is an empty, usable tree.
type Tree[T any] struct {
	nodes []node[T]
}

// New returns an empty tree.
func New[T any]() *Tree[T] {
	return &Tree[T]{}
}

// NewWithCapacity returns an empty tree whose arena is pre-sized for n nodes.
func NewWithCapacity[T any](n int) *Tree[T] {
	return &Tree[T]{nodes: make([]node[T], 0, n)}
}

// NewNode creates a detached node holding payload.
func (t *Tree[T]) NewNode(payload T) NodeID {
	t.nodes = append(t.nodes, node[T]{
		payload:     payload,
		parent:      None,
		firstChild:  None,
		lastChild:   None,
		prevSibling: None,
		nextSibling: None,
	})
	return NodeID(len(t.nodes) - 1)
}

// Len returns the number of nodes in the arena, attached or not.
func (t *Tree[T]) Len() int {
	return len(t.nodes)
}

// Contains reports whether id addresses a node in this arena.
func (t *Tree[T]) Contains(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

func (t *Tree[T]) at(id NodeID) *node[T] {
	invariant.Precondition(t.Contains(id), "node %d out of range [0, %d)", id, len(t.nodes))
	return &t.nodes[id]
}

// AppendChild makes child the new last child of parent in O(1).
func (t *Tree[T]) AppendChild(parent, child NodeID) {
	p := t.at(parent)
	c := t.at(child)

	c.parent = parent
	c.nextSibling = None

	if p.lastChild != None {
		t.at(p.lastChild).nextSibling = child
		c.prevSibling = p.lastChild
		p.lastChild = child
		return
	}

	c.prevSibling = None
	p.firstChild = child
	p.lastChild = child
}

// InsertSiblingAfter splices sibling immediately after n in O(1).
// It fails with ErrInvalidOperation when n has no parent.
func (t *Tree[T]) InsertSiblingAfter(n, sibling NodeID) error {
	cur := t.at(n)
	if cur.parent == None {
		return fmt.Errorf("cannot add sibling to node %d without a parent: %w", n, ErrInvalidOperation)
	}
	s := t.at(sibling)

	s.parent = cur.parent
	s.prevSibling = n

	if cur.nextSibling != None {
		old := cur.nextSibling
		t.at(old).prevSibling = sibling
		s.nextSibling = old
		cur.nextSibling = sibling
		return nil
	}

	s.nextSibling = None
	cur.nextSibling = sibling
	t.at(cur.parent).lastChild = sibling
	return nil
}

// Payload returns the payload stored at id.
func (t *Tree[T]) Payload(id NodeID) T {
	return t.at(id).payload
}

// SetPayload replaces the payload stored at id. Links are untouched.
func (t *Tree[T]) SetPayload(id NodeID, payload T) {
	t.at(id).payload = payload
}

// Parent returns the parent of id, or None for a root.
func (t *Tree[T]) Parent(id NodeID) NodeID { return t.at(id).parent }

// FirstChild returns the first child of id, or None.
func (t *Tree[T]) FirstChild(id NodeID) NodeID { return t.at(id).firstChild }

// LastChild returns the last child of id, or None.
func (t *Tree[T]) LastChild(id NodeID) NodeID { return t.at(id).lastChild }

// PrevSibling returns the sibling before id, or None.
func (t *Tree[T]) PrevSibling(id NodeID) NodeID { return t.at(id).prevSibling }

// NextSibling returns the sibling after id, or None.
func (t *Tree[T]) NextSibling(id NodeID) NodeID { return t.at(id).nextSibling }

// Children iterates the direct children of id in order.
func (t *Tree[T]) Children(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for c := t.FirstChild(id); c != None; c = t.NextSibling(c) {
			if !yield(c) {
				return
			}
		}
	}
}

// ChildCount returns the number of direct children of id.
func (t *Tree[T]) ChildCount(id NodeID) int {
	n := 0
	for range t.Children(id) {
		n++
	}
	return n
}
