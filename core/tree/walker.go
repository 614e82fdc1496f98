package tree

import "iter"

// Event is one visit of a depth-first walk. Every node is visited twice:
// once entering (pre-order) and once exiting (post-order).
type Event struct {
	Node     NodeID
	Entering bool
}

// Walker is a lazy, resumable depth-first traversal.
//
// Its entire state is the pair (current node, entering), so it needs no stack
// proportional to the tree's depth and can be paused and resumed freely.
// A Walker must not be shared between concurrent consumers.
type Walker[T any] struct {
	tree     *Tree[T]
	current  NodeID
	entering bool
}

// Walk returns a walker positioned to enter root.
//
// Root should be a true root. Exiting a node that has a next sibling moves on
// to that sibling, and the start node is no exception.
func (t *Tree[T]) Walk(root NodeID) *Walker[T] {
	return &Walker[T]{tree: t, current: root, entering: true}
}

// HasNext reports whether another event is available.
func (w *Walker[T]) HasNext() bool {
	return w.current != None
}

// Next returns the current event and advances. The second result is false
// once the traversal is finished.
func (w *Walker[T]) Next() (Event, bool) {
	if w.current == None {
		return Event{Node: None}, false
	}

	ev := Event{Node: w.current, Entering: w.entering}
	n := w.tree.at(w.current)

	if w.entering {
		if n.firstChild != None {
			w.current = n.firstChild
		} else {
			w.entering = false
		}
		return ev, true
	}

	if n.nextSibling != None {
		w.current = n.nextSibling
		w.entering = true
	} else {
		w.current = n.parent
	}
	return ev, true
}

// ResumeAt forces the walker into an arbitrary state. The next event emitted
// is (id, entering). Passing None ends the traversal.
//
// Repositioning mid-walk forfeits the guarantee that every entering event is
// matched by exactly one exiting event; callers that rely on pairing must
// restore it themselves. Resuming at (n, false) right after entering n is
// the usual way to skip n's subtree while keeping pairs balanced.
func (w *Walker[T]) ResumeAt(id NodeID, entering bool) {
	w.current = id
	w.entering = entering
}

// Events adapts the walker to a range-over-func sequence.
func (w *Walker[T]) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for {
			ev, ok := w.Next()
			if !ok || !yield(ev) {
				return
			}
		}
	}
}
