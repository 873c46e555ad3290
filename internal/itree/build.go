package itree

import (
	"github.com/cockroachdb/errors"
)

// Item is one (left, right, payload) triple fed to Build.
type Item[T any] struct {
	Left  uint64
	Right uint64
	Data  T
}

// Tree is a non-empty interval tree identified by its root.
// It has a single writer while being built; once building is done it must
// not be modified, and may then be queried from many goroutines.
type Tree[T any] struct {
	root  *Node[T]
	count int
}

// Build creates a tree from items, inserting them in order.
// The first item becomes the root. An empty slice returns ErrEmptyInput and
// any item with Left >= Right aborts the build with ErrInvalidInterval.
func Build[T any](items []Item[T]) (*Tree[T], error) {
	if len(items) == 0 {
		return nil, ErrEmptyInput
	}

	first := items[0]
	root, err := NewNode(first.Left, first.Right, first.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "item 0")
	}

	t := &Tree[T]{root: root, count: 1}
	for i := 1; i < len(items); i++ {
		it := items[i]
		if err := t.Insert(it.Left, it.Right, it.Data); err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
	}
	return t, nil
}

// MustBuild is like Build but panics on error.
func MustBuild[T any](items []Item[T]) *Tree[T] {
	t, err := Build(items)
	if err != nil {
		panic(err)
	}
	return t
}

// Insert adds a single interval to the tree. It is meant for the build
// phase only; inserting while queries run is a data race.
func (t *Tree[T]) Insert(left, right uint64, data T) error {
	x, err := NewNode(left, right, data)
	if err != nil {
		return err
	}
	insert(t.root, x)
	t.count++
	return nil
}

// insert descends from r and attaches x at the first empty slot. Every node
// on the path gets its max raised since x ends up below all of them.
// Equal starts go left.
func insert[T any](r, x *Node[T]) {
	for {
		r.RaiseMax(x.max)
		if x.left <= r.left {
			if r.leftChild == nil {
				r.AttachLeft(x)
				return
			}
			r = r.leftChild
		} else {
			if r.rightChild == nil {
				r.AttachRight(x)
				return
			}
			r = r.rightChild
		}
	}
}

// Root returns the root node. It is never nil.
func (t *Tree[T]) Root() *Node[T] {
	return t.root
}
