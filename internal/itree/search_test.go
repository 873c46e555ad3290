package itree

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payloads[T any](hits []Hit[T]) []T {
	out := make([]T, len(hits))
	for i, h := range hits {
		out[i] = *h.Data
	}
	return out
}

func TestQuery_Scenario(t *testing.T) {
	tree := MustBuild(scenarioItems())

	hits := tree.Query(10, 18, true)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, payloads(hits))

	// In-order: d(5) b(10) e(12) a(15) c(17).
	assert.Equal(t, []string{"d", "b", "e", "a", "c"}, payloads(hits))
}

func TestQuery_Boundary(t *testing.T) {
	tree := MustBuild([]Item[string]{{10, 20, "x"}})

	assert.Empty(t, tree.Query(20, 30, false), "touching endpoint is not an exclusive overlap")
	assert.Len(t, tree.Query(20, 30, true), 1)

	assert.Empty(t, tree.Query(0, 10, false))
	assert.Len(t, tree.Query(0, 10, true), 1)

	assert.Empty(t, tree.Query(21, 30, true))
	assert.Empty(t, tree.Query(0, 9, true))
}

func TestQuery_NoMatch(t *testing.T) {
	tree := MustBuild(scenarioItems())
	assert.Empty(t, tree.Query(41, 50, true))
	assert.Empty(t, tree.Query(0, 4, true))
	assert.False(t, tree.Intersects(41, 50, true))
	assert.True(t, tree.Intersects(40, 50, true))
	assert.False(t, tree.Intersects(40, 50, false))
}

func TestQuery_PayloadByReference(t *testing.T) {
	type payload struct{ n int }
	tree := MustBuild([]Item[payload]{{1, 5, payload{1}}, {2, 6, payload{2}}})

	first := tree.Query(1, 6, true)
	second := tree.Query(1, 6, true)
	require.Len(t, first, 2)
	for i := range first {
		assert.Same(t, first[i].Data, second[i].Data)
	}
	assert.Same(t, tree.Root().Data(), first[0].Data)
}

func TestQuery_Idempotent(t *testing.T) {
	tree := MustBuild(scenarioItems())
	for _, inclusive := range []bool{true, false} {
		a := tree.Query(12, 30, inclusive)
		b := tree.Query(12, 30, inclusive)
		assert.Equal(t, payloads(a), payloads(b))
	}
}

func TestVisit_StopsEarly(t *testing.T) {
	tree := MustBuild(scenarioItems())

	var seen []string
	tree.Visit(0, 100, Inclusive, func(h Hit[string]) bool {
		seen = append(seen, *h.Data)
		return len(seen) < 3
	})
	assert.Equal(t, []string{"d", "b", "e"}, seen)
}

func TestOverlappers(t *testing.T) {
	tests := []struct {
		a, b      Interval
		inclusive bool
		exclusive bool
	}{
		{Interval{10, 20}, Interval{20, 30}, true, false},
		{Interval{10, 20}, Interval{19, 30}, true, true},
		{Interval{10, 20}, Interval{21, 30}, false, false},
		{Interval{10, 20}, Interval{12, 15}, true, true},
		{Interval{12, 15}, Interval{10, 20}, true, true},
		{Interval{20, 30}, Interval{10, 20}, true, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s-%s", tt.a, tt.b), func(t *testing.T) {
			assert.Equal(t, tt.inclusive, Inclusive.Overlap(tt.a, tt.b))
			assert.Equal(t, tt.exclusive, Exclusive.Overlap(tt.a, tt.b))
		})
	}
	assert.Equal(t, Inclusive, OverlapperFor(true))
	assert.Equal(t, Exclusive, OverlapperFor(false))
}

// genItems mirrors the randomized workload used for cross-checking:
// positive-length intervals with exponential lengths, clamped to maxCoord.
func genItems(rng *rand.Rand, n int, maxCoord, avgLen uint64) []Item[string] {
	items := make([]Item[string], n)
	for i := range items {
		l := uint64(rng.Int63n(int64(maxCoord)))
		length := max(1, uint64(rng.ExpFloat64()*float64(avgLen)))
		r := min(maxCoord, l+length)
		if r == l {
			r = min(maxCoord, l+1)
		}
		items[i] = Item[string]{Left: l, Right: r, Data: fmt.Sprintf("id%d", i)}
	}
	return items
}

func bruteForce(items []Item[string], ql, qr uint64, o Overlapper) []string {
	var out []string
	for _, it := range items {
		if o.Overlap(Interval{it.Left, it.Right}, Interval{ql, qr}) {
			out = append(out, it.Data)
		}
	}
	return out
}

func TestQuery_MatchesLinearScan(t *testing.T) {
	const (
		maxCoord = 1_000_000
		avgLen   = 500
		queries  = 500
	)

	for _, seed := range []int64{7, 123, 99991} {
		for _, n := range []int{500, 5000} {
			for _, width := range []uint64{1, 10, 1000, 10000} {
				name := fmt.Sprintf("seed=%d/n=%d/width=%d", seed, n, width)
				t.Run(name, func(t *testing.T) {
					rng := rand.New(rand.NewSource(seed))
					items := genItems(rng, n, maxCoord, avgLen)
					tree := MustBuild(items)
					require.NoError(t, tree.Check())

					for iter := 0; iter < queries; iter++ {
						ql := uint64(rng.Int63n(maxCoord - int64(width)))
						qr := ql + width
						for _, o := range []Overlapper{Inclusive, Exclusive} {
							got := payloads(tree.QueryWith(ql, qr, o))
							want := bruteForce(items, ql, qr, o)
							require.ElementsMatch(t, want, got, "query [%d, %d] closed=%v", ql, qr, o.closed())
						}
					}
				})
			}
		}
	}
}

func TestQuery_ResultsSortedByStart(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tree := MustBuild(genItems(rng, 2000, 100_000, 1000))

	hits := tree.Query(20_000, 60_000, true)
	require.NotEmpty(t, hits)
	assert.True(t, sort.SliceIsSorted(hits, func(i, j int) bool {
		return hits[i].Left < hits[j].Left
	}))
}

func BenchmarkQuery(b *testing.B) {
	rng := rand.New(rand.NewSource(123))
	tree := MustBuild(genItems(rng, 100_000, 10_000_000, 500))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ql := uint64(rng.Int63n(9_990_000))
		tree.Query(ql, ql+10_000, true)
	}
}

func BenchmarkBuild(b *testing.B) {
	rng := rand.New(rand.NewSource(123))
	items := genItems(rng, 100_000, 10_000_000, 500)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MustBuild(items)
	}
}
