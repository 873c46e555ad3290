package itree

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Len returns the number of stored intervals.
func (t *Tree[T]) Len() int {
	return t.count
}

// Max returns the largest right endpoint in the tree.
func (t *Tree[T]) Max() uint64 {
	return t.root.max
}

type level[T any] struct {
	n     *Node[T]
	depth int
}

// Height returns the number of levels; a single node has height 1.
func (t *Tree[T]) Height() int {
	height := 0
	stack := []level[T]{{t.root, 1}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		height = max(height, top.depth)
		if top.n.leftChild != nil {
			stack = append(stack, level[T]{top.n.leftChild, top.depth + 1})
		}
		if top.n.rightChild != nil {
			stack = append(stack, level[T]{top.n.rightChild, top.depth + 1})
		}
	}
	return height
}

// Walk calls fn on every node in order (non-decreasing start).
// It stops when fn returns false.
func (t *Tree[T]) Walk(fn func(n *Node[T]) bool) {
	var stack []*Node[T]
	n := t.root
	for n != nil || len(stack) > 0 {
		for n != nil {
			stack = append(stack, n)
			n = n.leftChild
		}
		n = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			return
		}
		n = n.rightChild
	}
}

// Items returns all stored intervals in start order.
func (t *Tree[T]) Items() []Hit[T] {
	hits := make([]Hit[T], 0, t.count)
	t.Walk(func(n *Node[T]) bool {
		hits = append(hits, Hit[T]{Left: n.left, Right: n.right, Data: &n.data})
		return true
	})
	return hits
}

// Check verifies the max augmentation and start ordering of every node.
func (t *Tree[T]) Check() error {
	_, err := check(t.root, 0, 0, false, false)
	return err
}

// check returns the subtree max recomputed from scratch. Nodes must have
// left in (lo, hi] when the corresponding bound is set.
func check[T any](n *Node[T], lo, hi uint64, hasLo, hasHi bool) (uint64, error) {
	if n.left >= n.right {
		return 0, errors.Wrapf(ErrInvalidInterval, "node %s", n.Interval())
	}
	if hasLo && n.left <= lo {
		return 0, errors.Newf("node %s: start must be > %d in right subtree", n.Interval(), lo)
	}
	if hasHi && n.left > hi {
		return 0, errors.Newf("node %s: start must be <= %d in left subtree", n.Interval(), hi)
	}

	want := n.right
	if n.leftChild != nil {
		m, err := check(n.leftChild, lo, n.left, hasLo, true)
		if err != nil {
			return 0, err
		}
		want = max(want, m)
	}
	if n.rightChild != nil {
		m, err := check(n.rightChild, n.left, hi, true, hasHi)
		if err != nil {
			return 0, err
		}
		want = max(want, m)
	}
	if n.max != want {
		return 0, errors.Newf("node %s: max is %d, subtree max is %d", n.Interval(), n.max, want)
	}
	return want, nil
}

// String renders the tree sideways, one node per line, right subtree on top.
func (t *Tree[T]) String() string {
	var sb strings.Builder
	writeNode(&sb, t.root, 0)
	return sb.String()
}

func writeNode[T any](sb *strings.Builder, n *Node[T], depth int) {
	if n == nil {
		return
	}
	writeNode(sb, n.rightChild, depth+1)
	fmt.Fprintf(sb, "%s%s max=%d %v\n", strings.Repeat("    ", depth), n.Interval(), n.max, n.data)
	writeNode(sb, n.leftChild, depth+1)
}
