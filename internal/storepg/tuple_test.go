//go:build integration

package storepg_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ruek-io/ruek/internal/principal"
	"github.com/ruek-io/ruek/internal/storepg"
	"github.com/ruek-io/ruek/internal/tuple"
)

func TestTupleStoreRoundTrip(t *testing.T) {
	pool := openTestPool(t)
	store := storepg.TupleStore{Pool: pool}
	principals := storepg.PrincipalStore{Pool: pool}
	ctx := context.Background()
	spaceID := "test-space"

	// The principal endpoint must reference an existing principal.
	p1 := principal.New(spaceID, "", "", nil)
	require.NoError(t, principals.Store(ctx, p1))
	defer principals.Discard(ctx, spaceID, p1.ID)

	tp := tuple.New(spaceID, "member",
		tuple.Entity{Type: "group", ID: "g1"}, "",
		"member",
		tuple.Entity{Type: "", ID: ""}, p1.ID,
	)

	require.NoError(t, store.Store(ctx, tp))
	require.Equal(t, 0, tp.Rev)

	got, err := store.Retrieve(ctx, spaceID, tp.ID)
	require.NoError(t, err)
	require.Equal(t, tp.ID, got.ID)
	require.Equal(t, p1.ID, got.RPrincipalID)

	require.NoError(t, store.Discard(ctx, spaceID, tp.ID))
	_, err = store.Retrieve(ctx, spaceID, tp.ID)
	require.Error(t, err)
}

func TestTupleStoreStoreStaleRevisionMismatch(t *testing.T) {
	pool := openTestPool(t)
	store := storepg.TupleStore{Pool: pool}
	principals := storepg.PrincipalStore{Pool: pool}
	ctx := context.Background()
	spaceID := "test-space"

	p2 := principal.New(spaceID, "", "", nil)
	require.NoError(t, principals.Store(ctx, p2))
	defer principals.Discard(ctx, spaceID, p2.ID)

	tp := tuple.New(spaceID, "member",
		tuple.Entity{Type: "group", ID: "g2"}, "",
		"member",
		tuple.Entity{Type: "", ID: ""}, p2.ID,
	)
	require.NoError(t, store.Store(ctx, tp))
	defer store.Discard(ctx, spaceID, tp.ID)

	stale := *tp
	stale.Rev = 99
	err := store.Store(ctx, &stale)
	require.Error(t, err)
}

func TestTupleStoreListLeftOrderedByHashDesc(t *testing.T) {
	pool := openTestPool(t)
	store := storepg.TupleStore{Pool: pool}
	ctx := context.Background()
	spaceID := "test-space"

	right := tuple.Entity{Type: "doc", ID: "d1"}
	var created []*tuple.Tuple
	for i := 0; i < 3; i++ {
		tp := tuple.New(spaceID, "viewer",
			tuple.Entity{Type: "user", ID: string(rune('a' + i))}, "",
			"viewer",
			right, "",
		)
		require.NoError(t, store.Store(ctx, tp))
		created = append(created, tp)
	}
	defer func() {
		for _, tp := range created {
			store.Discard(ctx, spaceID, tp.ID)
		}
	}()

	got, err := store.ListLeft(ctx, spaceID, right, tuple.ListFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		require.GreaterOrEqual(t, got[i-1].LHash(), got[i].LHash())
	}
}

// TestTupleStoreListLeftPaginationCoversFullSet exercises spec.md §8's
// testable pagination property directly against Postgres: iterating a
// listing a page at a time, threading the (hash, id) cursor through
// ListFilter.LastID/LastHash, must return the same total set as a single
// large-page call, with no row skipped or repeated. ListLeft sorts by
// _l_hash DESC, which is uncorrelated with the left entity id, so this is
// exactly the case a bare id-only cursor would get wrong.
func TestTupleStoreListLeftPaginationCoversFullSet(t *testing.T) {
	pool := openTestPool(t)
	store := storepg.TupleStore{Pool: pool}
	ctx := context.Background()
	spaceID := "test-space"

	right := tuple.Entity{Type: "doc", ID: "pagination-d1"}
	var created []*tuple.Tuple
	for i := 0; i < 9; i++ {
		tp := tuple.New(spaceID, "viewer",
			tuple.Entity{Type: "user", ID: string(rune('a' + i))}, "",
			"viewer",
			right, "",
		)
		require.NoError(t, store.Store(ctx, tp))
		created = append(created, tp)
	}
	defer func() {
		for _, tp := range created {
			store.Discard(ctx, spaceID, tp.ID)
		}
	}()

	all, err := store.ListLeft(ctx, spaceID, right, tuple.ListFilter{Limit: 100})
	require.NoError(t, err)
	require.Len(t, all, 9)

	var paged []*tuple.Tuple
	var lastID string
	var lastHash int64
	for {
		page, err := store.ListLeft(ctx, spaceID, right, tuple.ListFilter{Limit: 1, LastID: lastID, LastHash: lastHash})
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		paged = append(paged, page...)
		last := page[len(page)-1]
		lastID, lastHash = last.LEntityID, last.LHash()
	}

	require.Len(t, paged, 9)
	for i := range all {
		require.Equal(t, all[i].ID, paged[i].ID)
	}
}

func TestTupleStoreTupletsListRequiresExactlyOneSide(t *testing.T) {
	pool := openTestPool(t)
	store := storepg.TupleStore{Pool: pool}
	ctx := context.Background()

	_, err := store.TupletsList(ctx, "test-space", nil, nil, tuple.ListFilter{Limit: 10})
	require.Error(t, err)

	left := tuple.Entity{Type: "group", ID: "g1"}
	right := tuple.Entity{Type: "doc", ID: "d1"}
	_, err = store.TupletsList(ctx, "test-space", &left, &right, tuple.ListFilter{Limit: 10})
	require.Error(t, err)
}
