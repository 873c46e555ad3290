package itree

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioItems() []Item[string] {
	return []Item[string]{
		{15, 20, "a"},
		{10, 30, "b"},
		{17, 19, "c"},
		{5, 20, "d"},
		{12, 15, "e"},
		{30, 40, "f"},
	}
}

func TestBuild_Empty(t *testing.T) {
	tree, err := Build[string](nil)
	assert.Nil(t, tree)
	assert.True(t, errors.Is(err, ErrEmptyInput))

	assert.Panics(t, func() { MustBuild([]Item[int]{}) })
}

func TestBuild_InvalidInterval(t *testing.T) {
	tests := []struct {
		name  string
		items []Item[string]
	}{
		{"degenerate", []Item[string]{{5, 5, "x"}}},
		{"inverted", []Item[string]{{7, 3, "x"}}},
		{"invalid after valid", []Item[string]{{1, 10, "ok"}, {2, 20, "ok"}, {9, 4, "bad"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Build(tt.items)
			assert.Nil(t, tree, "no partially built tree")
			assert.True(t, errors.Is(err, ErrInvalidInterval), "got %v", err)
		})
	}
}

func TestBuild_ErrorNamesItem(t *testing.T) {
	_, err := Build([]Item[int]{{1, 2, 0}, {3, 4, 0}, {6, 6, 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 2")
}

func TestBuild_Shape(t *testing.T) {
	tree, err := Build(scenarioItems())
	require.NoError(t, err)
	require.NoError(t, tree.Check())

	root := tree.Root()
	assert.Equal(t, "a", *root.Data(), "first item is root")
	assert.Equal(t, uint64(40), root.Max())

	// b(10) < a(15) goes left, c(17) goes right of a.
	b := root.LeftChild()
	require.NotNil(t, b)
	assert.Equal(t, "b", *b.Data())
	assert.Equal(t, uint64(30), b.Max())

	c := root.RightChild()
	require.NotNil(t, c)
	assert.Equal(t, "c", *c.Data())
	assert.Equal(t, uint64(40), c.Max(), "f lands under c")

	assert.Equal(t, "d", *b.LeftChild().Data())
	assert.Equal(t, "e", *b.RightChild().Data())
	assert.Equal(t, "f", *c.RightChild().Data())

	assert.Equal(t, 6, tree.Len())
	assert.Equal(t, 3, tree.Height())
	assert.Equal(t, uint64(40), tree.Max())
}

func TestBuild_EqualStartsGoLeft(t *testing.T) {
	tree, err := Build([]Item[int]{{10, 20, 0}, {10, 50, 1}, {10, 15, 2}})
	require.NoError(t, err)
	require.NoError(t, tree.Check())

	root := tree.Root()
	assert.False(t, root.HasRight())
	require.True(t, root.HasLeft())
	assert.Equal(t, 1, *root.LeftChild().Data())
	assert.Equal(t, 2, *root.LeftChild().LeftChild().Data())
	assert.Equal(t, uint64(50), root.Max())
	assert.Equal(t, 3, tree.Len(), "duplicates retained")
}

func TestBuild_SortedInputDegenerates(t *testing.T) {
	items := make([]Item[int], 100)
	for i := range items {
		items[i] = Item[int]{Left: uint64(i), Right: uint64(i + 5), Data: i}
	}
	tree := MustBuild(items)
	require.NoError(t, tree.Check())
	assert.Equal(t, 100, tree.Height(), "no rebalancing")
}

func TestInsert(t *testing.T) {
	tree := MustBuild([]Item[string]{{15, 20, "a"}})
	require.NoError(t, tree.Insert(3, 100, "wide"))
	assert.Equal(t, uint64(100), tree.Root().Max())
	assert.Equal(t, 2, tree.Len())

	err := tree.Insert(9, 9, "bad")
	assert.True(t, errors.Is(err, ErrInvalidInterval))
	assert.Equal(t, 2, tree.Len())
	require.NoError(t, tree.Check())
}

func TestCheck_DetectsBrokenMax(t *testing.T) {
	tree := MustBuild(scenarioItems())
	tree.Root().LeftChild().max = 99

	assert.Error(t, tree.Check())
}

func TestCheck_DetectsBrokenOrder(t *testing.T) {
	tree := MustBuild([]Item[int]{{10, 20, 0}})
	bad, _ := NewNode(50, 60, 1)
	tree.Root().AttachLeft(bad)
	tree.Root().RaiseMax(60)

	assert.Error(t, tree.Check())
}

func TestWalkAndItems(t *testing.T) {
	tree := MustBuild(scenarioItems())

	var starts []uint64
	for _, h := range tree.Items() {
		starts = append(starts, h.Left)
	}
	assert.Equal(t, []uint64{5, 10, 12, 15, 17, 30}, starts)

	n := 0
	tree.Walk(func(*Node[string]) bool {
		n++
		return n < 2
	})
	assert.Equal(t, 2, n, "walk stops early")
}

func TestString(t *testing.T) {
	tree := MustBuild([]Item[string]{{10, 20, "root"}, {5, 8, "left"}})
	assert.Equal(t, "[10, 20] max=20 root\n    [5, 8] max=8 left\n", tree.String())
}
