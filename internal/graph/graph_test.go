package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ruek-io/ruek/internal/graph"
	"github.com/ruek-io/ruek/internal/storetest"
	"github.com/ruek-io/ruek/internal/tuple"
)

func TestCheckDirectSeedMatch(t *testing.T) {
	ctx := context.Background()
	f := storetest.NewFixture()

	user := tuple.Entity{Type: "user", ID: "jane"}
	group := tuple.Entity{Type: "group", ID: "viewers"}

	tp := tuple.New("space-a", "", user, "", "member", group, "")
	require.NoError(t, f.Tuples.Store(ctx, tp))

	res, err := graph.Check(ctx, f.Tuples, "space-a", user, "member", group, 100)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, 1, res.Cost)
	require.Len(t, res.Path, 1)
	require.Equal(t, tp.ID, res.Path[0].ID)
}

func TestCheckTwoHop(t *testing.T) {
	ctx := context.Background()
	f := storetest.NewFixture()

	user := tuple.Entity{Type: "user", ID: "jane"}
	editors := tuple.Entity{Type: "group", ID: "editors"}
	viewers := tuple.Entity{Type: "group", ID: "viewers"}

	t1 := tuple.New("space-a", "member", user, "", "member", editors, "")
	require.NoError(t, f.Tuples.Store(ctx, t1))

	t2 := tuple.New("space-a", "member", editors, "", "parent", viewers, "")
	require.NoError(t, f.Tuples.Store(ctx, t2))

	res, err := graph.Check(ctx, f.Tuples, "space-a", user, "parent", viewers, 100)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.LessOrEqual(t, res.Cost, 100)
	require.Len(t, res.Path, 2)

	require.Equal(t, user, res.Path[0].Left())
	require.Equal(t, viewers, res.Path[len(res.Path)-1].Right())
	for i := 0; i < len(res.Path)-1; i++ {
		require.Equal(t, res.Path[i].Right(), res.Path[i+1].Left())
		require.Equal(t, res.Path[i].Relation, res.Path[i+1].Strand)
	}
	require.Equal(t, "parent", res.Path[len(res.Path)-1].Relation)
}

func TestCheckNotFound(t *testing.T) {
	ctx := context.Background()
	f := storetest.NewFixture()

	user := tuple.Entity{Type: "user", ID: "jane"}
	group := tuple.Entity{Type: "group", ID: "viewers"}

	res, err := graph.Check(ctx, f.Tuples, "space-a", user, "member", group, 100)
	require.NoError(t, err)
	require.False(t, res.Found)
	require.GreaterOrEqual(t, res.Cost, 0)
}

func TestCheckExhaustsCostBudget(t *testing.T) {
	ctx := context.Background()
	f := storetest.NewFixture()

	// A long chain that cannot be traversed within a tiny cost limit.
	group := func(n int) tuple.Entity { return tuple.Entity{Type: "group", ID: string(rune('a' + n))} }
	for i := 0; i < 10; i++ {
		tp := tuple.New("space-a", "member", group(i), "", "member", group(i+1), "")
		require.NoError(t, f.Tuples.Store(ctx, tp))
	}

	res, err := graph.Check(ctx, f.Tuples, "space-a", group(0), "member", group(10), 2)
	require.NoError(t, err)
	require.False(t, res.Found)
	require.LessOrEqual(t, res.Cost, 0, "cost must be negated when exhausted")
}

func TestCheckEmptyStrandIsLeaf(t *testing.T) {
	ctx := context.Background()
	f := storetest.NewFixture()

	user := tuple.Entity{Type: "user", ID: "jane"}
	editors := tuple.Entity{Type: "group", ID: "editors"}
	viewers := tuple.Entity{Type: "group", ID: "viewers"}

	// strand is empty: this tuple cannot be composed further.
	t1 := tuple.New("space-a", "", user, "", "member", editors, "")
	require.NoError(t, f.Tuples.Store(ctx, t1))

	t2 := tuple.New("space-a", "member", editors, "", "parent", viewers, "")
	require.NoError(t, f.Tuples.Store(ctx, t2))

	res, err := graph.Check(ctx, f.Tuples, "space-a", user, "parent", viewers, 100)
	require.NoError(t, err)
	require.False(t, res.Found)
}
