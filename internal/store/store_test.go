package store

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/inodb/itree/internal/itree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func scenario() []itree.Item[string] {
	return []itree.Item[string]{
		{Left: 15, Right: 20, Data: "a"},
		{Left: 10, Right: 30, Data: "b"},
		{Left: 17, Right: 19, Data: "c"},
		{Left: 5, Right: 20, Data: "d"},
		{Left: 12, Right: 15, Data: "e"},
		{Left: 30, Right: 40, Data: "f"},
	}
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Equal(t, "", s.Path())
}

func TestOpen_OnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "itree.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteSet("x", scenario()))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	items, err := s.LoadSet("x")
	require.NoError(t, err)
	assert.Equal(t, scenario(), items)
}

func TestWriteAndLoadSet_KeepsOrder(t *testing.T) {
	s := openInMemory(t)

	require.NoError(t, s.WriteSet("scenario", scenario()))
	items, err := s.LoadSet("scenario")
	require.NoError(t, err)
	assert.Equal(t, scenario(), items, "insertion order drives tree shape")

	tree, err := itree.Build(items)
	require.NoError(t, err)
	assert.Equal(t, "a", *tree.Root().Data())
}

func TestWriteSet_Replaces(t *testing.T) {
	s := openInMemory(t)

	require.NoError(t, s.WriteSet("x", scenario()))
	require.NoError(t, s.WriteSet("x", scenario()[:2]))

	items, err := s.LoadSet("x")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestLoadSet_Unknown(t *testing.T) {
	s := openInMemory(t)
	items, err := s.LoadSet("missing")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListAndDeleteSets(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteSet("b", scenario()))
	require.NoError(t, s.WriteSet("a", scenario()[:1]))

	sets, err := s.ListSets()
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, SetInfo{Name: "a", Count: 1, Min: 15, Max: 20}, sets[0])
	assert.Equal(t, SetInfo{Name: "b", Count: 6, Min: 5, Max: 40}, sets[1])

	require.NoError(t, s.DeleteSet("b"))
	sets, err = s.ListSets()
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, "a", sets[0].Name)
}

func TestQueryOverlapsSQL_Scenario(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteSet("x", scenario()))

	got, err := s.QueryOverlapsSQL("x", 10, 18, true)
	require.NoError(t, err)
	var ids []string
	for _, it := range got {
		ids = append(ids, it.Data)
	}
	assert.Equal(t, []string{"d", "b", "e", "a", "c"}, ids)

	got, err = s.QueryOverlapsSQL("x", 20, 30, false)
	require.NoError(t, err)
	ids = ids[:0]
	for _, it := range got {
		ids = append(ids, it.Data)
	}
	assert.Equal(t, []string{"b"}, ids, "[5,20] [15,20] and [30,40] only touch")
}

func TestQueryOverlapsSQL_MatchesTree(t *testing.T) {
	s := openInMemory(t)
	rng := rand.New(rand.NewSource(7))

	items := make([]itree.Item[string], 1000)
	for i := range items {
		l := uint64(rng.Int63n(100_000))
		items[i] = itree.Item[string]{Left: l, Right: l + 1 + uint64(rng.Int63n(2000)), Data: fmt.Sprintf("id%d", i)}
	}
	require.NoError(t, s.WriteSet("rand", items))
	tree := itree.MustBuild(items)

	for iter := 0; iter < 50; iter++ {
		ql := uint64(rng.Int63n(100_000))
		qr := ql + uint64(rng.Int63n(5000))
		for _, inclusive := range []bool{true, false} {
			want, err := s.QueryOverlapsSQL("rand", ql, qr, inclusive)
			require.NoError(t, err)

			var wantIDs, gotIDs []string
			for _, it := range want {
				wantIDs = append(wantIDs, it.Data)
			}
			for _, h := range tree.Query(ql, qr, inclusive) {
				gotIDs = append(gotIDs, *h.Data)
			}
			assert.ElementsMatch(t, wantIDs, gotIDs, "query [%d, %d] inclusive=%v", ql, qr, inclusive)
		}
	}
}
