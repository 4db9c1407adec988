package check_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ruek-io/ruek/internal/check"
	"github.com/ruek-io/ruek/internal/errs"
	"github.com/ruek-io/ruek/internal/storetest"
	"github.com/ruek-io/ruek/internal/tuple"
)

func TestCheckDirectHitAlwaysWinsRegardlessOfStrategy(t *testing.T) {
	ctx := context.Background()
	f := storetest.NewFixture()

	left := tuple.Entity{Type: "user", ID: "jane"}
	right := tuple.Entity{Type: "doc", ID: "d1"}
	tp := tuple.New("space-a", "", left, "", "editor", right, "")
	require.NoError(t, f.Tuples.Store(ctx, tp))

	for _, s := range []check.Strategy{check.StrategyDirect, check.StrategyGraph, check.StrategySet} {
		res, err := check.Check(ctx, f.Tuples, "space-a", left, "editor", right, s, 100)
		require.NoError(t, err)
		require.True(t, res.Found)
		require.Equal(t, 1, res.Cost)
	}
}

func TestCheckGraphFallback(t *testing.T) {
	ctx := context.Background()
	f := storetest.NewFixture()

	user := tuple.Entity{Type: "user", ID: "jane"}
	editors := tuple.Entity{Type: "group", ID: "editors"}
	viewers := tuple.Entity{Type: "group", ID: "viewers"}

	t1 := tuple.New("space-a", "member", user, "", "member", editors, "")
	require.NoError(t, f.Tuples.Store(ctx, t1))
	t2 := tuple.New("space-a", "member", editors, "", "parent", viewers, "")
	require.NoError(t, f.Tuples.Store(ctx, t2))

	res, err := check.Check(ctx, f.Tuples, "space-a", user, "parent", viewers, check.StrategyGraph, 100)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Len(t, res.Path, 2)
	require.Nil(t, res.Tuple)
}

func TestCheckSetFallback(t *testing.T) {
	ctx := context.Background()
	f := storetest.NewFixture()

	user := tuple.Entity{Type: "user", ID: "jane"}
	group := tuple.Entity{Type: "group", ID: "editors"}
	doc := tuple.Entity{Type: "doc", ID: "d1"}

	t1 := tuple.New("space-a", "", user, "", "member", group, "")
	require.NoError(t, f.Tuples.Store(ctx, t1))
	t2 := tuple.New("space-a", "member", group, "", "editor", doc, "")
	require.NoError(t, f.Tuples.Store(ctx, t2))

	res, err := check.Check(ctx, f.Tuples, "space-a", user, "editor", doc, check.StrategySet, 100)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.NotNil(t, res.Tuple)
	require.Nil(t, res.Path)
}

func TestCheckDirectStrategyStopsWithoutFallback(t *testing.T) {
	ctx := context.Background()
	f := storetest.NewFixture()

	user := tuple.Entity{Type: "user", ID: "jane"}
	editors := tuple.Entity{Type: "group", ID: "editors"}
	viewers := tuple.Entity{Type: "group", ID: "viewers"}

	t1 := tuple.New("space-a", "member", user, "", "member", editors, "")
	require.NoError(t, f.Tuples.Store(ctx, t1))
	t2 := tuple.New("space-a", "member", editors, "", "parent", viewers, "")
	require.NoError(t, f.Tuples.Store(ctx, t2))

	res, err := check.Check(ctx, f.Tuples, "space-a", user, "parent", viewers, check.StrategyDirect, 100)
	require.NoError(t, err)
	require.False(t, res.Found)
	require.Equal(t, 1, res.Cost)
}

func TestCheckUnknownStrategy(t *testing.T) {
	ctx := context.Background()
	f := storetest.NewFixture()

	left := tuple.Entity{Type: "user", ID: "jane"}
	right := tuple.Entity{Type: "doc", ID: "d1"}
	_, err := check.Check(ctx, f.Tuples, "space-a", left, "editor", right, check.Strategy("bogus"), 100)
	require.Error(t, err)
	require.Equal(t, errs.InvalidStrategy, errs.Code(err))
}

func TestCheckCostLimitClampedToMax(t *testing.T) {
	ctx := context.Background()
	f := storetest.NewFixture()

	left := tuple.Entity{Type: "user", ID: "jane"}
	right := tuple.Entity{Type: "doc", ID: "d1"}
	res, err := check.Check(ctx, f.Tuples, "space-a", left, "editor", right, check.StrategyGraph, 1_000_000)
	require.NoError(t, err)
	require.False(t, res.Found)
}

func TestCheckCostLimitOfOneStopsAtDirect(t *testing.T) {
	ctx := context.Background()
	f := storetest.NewFixture()

	user := tuple.Entity{Type: "user", ID: "jane"}
	editors := tuple.Entity{Type: "group", ID: "editors"}
	viewers := tuple.Entity{Type: "group", ID: "viewers"}

	t1 := tuple.New("space-a", "member", user, "", "member", editors, "")
	require.NoError(t, f.Tuples.Store(ctx, t1))
	t2 := tuple.New("space-a", "member", editors, "", "parent", viewers, "")
	require.NoError(t, f.Tuples.Store(ctx, t2))

	res, err := check.Check(ctx, f.Tuples, "space-a", user, "parent", viewers, check.StrategyGraph, 1)
	require.NoError(t, err)
	require.False(t, res.Found)
	require.Equal(t, 1, res.Cost)
}
