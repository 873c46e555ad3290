package itree

// Overlapper decides whether two intervals overlap.
type Overlapper interface {
	// Overlap reports whether a and b share part of the keyspace.
	Overlap(a, b Interval) bool
	closed() bool
}

type inclusiveOverlapper struct{}

func (inclusiveOverlapper) Overlap(a, b Interval) bool {
	return a.Left <= b.Right && b.Left <= a.Right
}

func (inclusiveOverlapper) closed() bool { return true }

type exclusiveOverlapper struct{}

func (exclusiveOverlapper) Overlap(a, b Interval) bool {
	return a.Left < b.Right && b.Left < a.Right
}

func (exclusiveOverlapper) closed() bool { return false }

// Inclusive treats both endpoints as part of the interval, so [10, 20] and
// [20, 30] overlap.
var Inclusive Overlapper = inclusiveOverlapper{}

// Exclusive requires the intervals to share more than a touching endpoint,
// so [10, 20] and [20, 30] do not overlap.
var Exclusive Overlapper = exclusiveOverlapper{}

// OverlapperFor returns Inclusive or Exclusive.
func OverlapperFor(inclusive bool) Overlapper {
	if inclusive {
		return Inclusive
	}
	return Exclusive
}

// Hit is one stored interval returned by a query. Data points into the tree.
type Hit[T any] struct {
	Left  uint64
	Right uint64
	Data  *T
}

// Interval returns the hit's interval.
func (h Hit[T]) Interval() Interval {
	return Interval{Left: h.Left, Right: h.Right}
}

// Query returns every stored interval overlapping [ql, qr], ordered by
// start (in-order traversal). The caller must ensure ql <= qr.
func (t *Tree[T]) Query(ql, qr uint64, inclusive bool) []Hit[T] {
	return t.QueryWith(ql, qr, OverlapperFor(inclusive))
}

// QueryWith is Query with an explicit Overlapper.
func (t *Tree[T]) QueryWith(ql, qr uint64, o Overlapper) []Hit[T] {
	var hits []Hit[T]
	t.Visit(ql, qr, o, func(h Hit[T]) bool {
		hits = append(hits, h)
		return true
	})
	return hits
}

// Intersects reports whether any stored interval overlaps [ql, qr].
func (t *Tree[T]) Intersects(ql, qr uint64, inclusive bool) bool {
	found := false
	t.Visit(ql, qr, OverlapperFor(inclusive), func(Hit[T]) bool {
		found = true
		return false
	})
	return found
}

// Visit calls fn for each stored interval overlapping [ql, qr] in start
// order. Traversal stops as soon as fn returns false.
func (t *Tree[T]) Visit(ql, qr uint64, o Overlapper, fn func(Hit[T]) bool) {
	q := Interval{Left: ql, Right: qr}
	if !reachesQuery(t.root.max, ql, o.closed()) {
		return
	}
	visit(t.root, q, o, fn)
}

func visit[T any](n *Node[T], q Interval, o Overlapper, fn func(Hit[T]) bool) bool {
	closed := o.closed()

	// Nothing on the left can overlap if its largest end is before ql.
	if l := n.leftChild; l != nil && reachesQuery(l.max, q.Left, closed) {
		if !visit(l, q, o, fn) {
			return false
		}
	}

	if o.Overlap(n.Interval(), q) {
		if !fn(Hit[T]{Left: n.left, Right: n.right, Data: &n.data}) {
			return false
		}
	}

	// Everything on the right starts after n.left.
	if r := n.rightChild; r != nil && startsInQuery(n.left, q.Right, closed) {
		if !visit(r, q, o, fn) {
			return false
		}
	}
	return true
}

func reachesQuery(maxRight, ql uint64, closed bool) bool {
	if closed {
		return maxRight >= ql
	}
	return maxRight > ql
}

func startsInQuery(left, qr uint64, closed bool) bool {
	if closed {
		return left <= qr
	}
	return left < qr
}
