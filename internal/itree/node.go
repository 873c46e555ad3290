// Package itree provides an augmented interval tree.
//
// The tree is an unbalanced binary search tree keyed on interval start.
// Every node carries the maximum right endpoint found in its subtree, which
// lets overlap queries skip subtrees that cannot contain a match.
package itree

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrInvalidInterval is returned when an interval has left >= right.
var ErrInvalidInterval = errors.New("itree: invalid interval")

// ErrEmptyInput is returned when a tree is built from zero intervals.
var ErrEmptyInput = errors.New("itree: no intervals provided")

// Interval is a range of unsigned integers with Left < Right.
type Interval struct {
	Left  uint64
	Right uint64
}

// Valid reports whether Left < Right.
func (iv Interval) Valid() bool {
	return iv.Left < iv.Right
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d, %d]", iv.Left, iv.Right)
}

// Node is a single tree vertex. It owns its children exclusively.
type Node[T any] struct {
	left  uint64
	right uint64
	max   uint64
	data  T

	leftChild  *Node[T]
	rightChild *Node[T]
}

// NewNode creates a detached node. It fails when left >= right.
func NewNode[T any](left, right uint64, data T) (*Node[T], error) {
	if left >= right {
		return nil, errors.Wrapf(ErrInvalidInterval, "left (%d) must be < right (%d)", left, right)
	}
	return &Node[T]{left: left, right: right, max: right, data: data}, nil
}

// Left returns the start of the node's interval.
func (n *Node[T]) Left() uint64 { return n.left }

// Right returns the end of the node's interval.
func (n *Node[T]) Right() uint64 { return n.right }

// Max returns the largest right endpoint in the node's subtree.
func (n *Node[T]) Max() uint64 { return n.max }

// Data returns a pointer to the stored payload.
func (n *Node[T]) Data() *T { return &n.data }

// Interval returns the node's own interval.
func (n *Node[T]) Interval() Interval {
	return Interval{Left: n.left, Right: n.right}
}

// LeftChild returns the left child, or nil.
func (n *Node[T]) LeftChild() *Node[T] { return n.leftChild }

// RightChild returns the right child, or nil.
func (n *Node[T]) RightChild() *Node[T] { return n.rightChild }

// RaiseMax sets max to candidate if candidate is larger. It never lowers max.
func (n *Node[T]) RaiseMax(candidate uint64) {
	n.max = max(n.max, candidate)
}

// AttachLeft moves child into the empty left slot.
// It panics if the slot is occupied or child is nil.
func (n *Node[T]) AttachLeft(child *Node[T]) {
	if child == nil {
		panic("itree: attach nil left child")
	}
	if n.leftChild != nil {
		panic(fmt.Sprintf("itree: left slot of %s already occupied", n.Interval()))
	}
	n.leftChild = child
}

// AttachRight moves child into the empty right slot.
// It panics if the slot is occupied or child is nil.
func (n *Node[T]) AttachRight(child *Node[T]) {
	if child == nil {
		panic("itree: attach nil right child")
	}
	if n.rightChild != nil {
		panic(fmt.Sprintf("itree: right slot of %s already occupied", n.Interval()))
	}
	n.rightChild = child
}

// IsLeaf reports whether the node has no children.
func (n *Node[T]) IsLeaf() bool {
	return n.leftChild == nil && n.rightChild == nil
}

// HasLeft reports whether the left slot is occupied.
func (n *Node[T]) HasLeft() bool { return n.leftChild != nil }

// HasRight reports whether the right slot is occupied.
func (n *Node[T]) HasRight() bool { return n.rightChild != nil }

// The comparators below order nodes by start. None of them is an overlap
// test; use an Overlapper for that.

// Precedes reports a.left < b.left.
func Precedes[T any](a, b *Node[T]) bool {
	return a.left < b.left
}

// PrecedesOrEqual reports a.left <= b.left.
func PrecedesOrEqual[T any](a, b *Node[T]) bool {
	return a.left <= b.left
}

// ProperlyNested reports a.left < b.left && b.right > a.right.
func ProperlyNested[T any](a, b *Node[T]) bool {
	return a.left < b.left && b.right > a.right
}

// NestedOrEqual reports a.left <= b.left && b.right >= a.right.
func NestedOrEqual[T any](a, b *Node[T]) bool {
	return a.left <= b.left && b.right >= a.right
}
