package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ruek-io/ruek/internal/check"
	"github.com/ruek-io/ruek/internal/errs"
	"github.com/ruek-io/ruek/internal/record"
	"github.com/ruek-io/ruek/internal/service"
	"github.com/ruek-io/ruek/internal/spaceid"
	"github.com/ruek-io/ruek/internal/storetest"
	"github.com/ruek-io/ruek/internal/tuple"
)

func newService(t *testing.T) (*service.Service, context.Context) {
	t.Helper()
	f := storetest.NewFixture()
	s := service.New(f.Principals, f.Records, f.Tuples, service.Config{})
	return s, spaceid.With(context.Background(), "space-a")
}

func TestCreateAndRetrievePrincipal(t *testing.T) {
	s, ctx := newService(t)

	p, err := s.CreatePrincipal(ctx, "", "team-x", map[string]any{"role": "admin"})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	got, err := s.RetrievePrincipal(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "team-x", got.Segment)
}

func TestRetrieveMissingPrincipalMapsToNotFound(t *testing.T) {
	s, ctx := newService(t)

	_, err := s.RetrievePrincipal(ctx, "ghost")
	require.Error(t, err)
	require.Equal(t, service.StatusNotFound, service.Code(err))
}

func TestGrantCheckRevokeRecord(t *testing.T) {
	s, ctx := newService(t)

	p, err := s.CreatePrincipal(ctx, "", "", nil)
	require.NoError(t, err)

	key := record.Key{PrincipalID: p.ID, ResourceType: "doc", ResourceID: "r1"}
	_, err = s.GrantRecord(ctx, key, map[string]any{"level": "read"})
	require.NoError(t, err)

	attrs, err := s.CheckRecord(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "read", attrs["level"])

	require.NoError(t, s.RevokeRecord(ctx, key))
	_, err = s.CheckRecord(ctx, key)
	require.Equal(t, service.StatusNotFound, service.Code(err))
}

func TestCreateRelationThenCheckDirect(t *testing.T) {
	s, ctx := newService(t)

	left := tuple.Entity{Type: "user", ID: "jane"}
	right := tuple.Entity{Type: "group", ID: "viewers"}
	tp := tuple.New("", "", left, "", "member", right, "")

	_, err := s.CreateRelation(ctx, tp, "", 0)
	require.NoError(t, err)

	res, err := s.CheckRelation(ctx, left, "member", right, check.StrategyDirect, 0)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, 1, res.Cost)
}

func TestCheckUnknownStrategyMapsToInvalidArgument(t *testing.T) {
	s, ctx := newService(t)

	left := tuple.Entity{Type: "user", ID: "jane"}
	right := tuple.Entity{Type: "group", ID: "viewers"}
	_, err := s.CheckRelation(ctx, left, "member", right, check.Strategy("bogus"), 0)
	require.Error(t, err)
	require.Equal(t, service.StatusInvalidArgument, service.Code(err))
	require.Equal(t, errs.InvalidStrategy, errs.Code(err))
}

func TestListRightRelationsPaginationTokenOnlyWhenFull(t *testing.T) {
	s, ctx := newService(t)

	left := tuple.Entity{Type: "user", ID: "jane"}
	for i := 0; i < 3; i++ {
		right := tuple.Entity{Type: "group", ID: string(rune('a' + i))}
		tp := tuple.New("", "", left, "", "member", right, "")
		_, err := s.CreateRelation(ctx, tp, "", 0)
		require.NoError(t, err)
	}

	page1, err := s.ListRightRelations(ctx, left, "", "", 2)
	require.NoError(t, err)
	require.Len(t, page1.Items, 2)
	require.NotEmpty(t, page1.Token)

	page2, err := s.ListRightRelations(ctx, left, "", page1.Token, 2)
	require.NoError(t, err)
	require.Len(t, page2.Items, 1)
	require.Empty(t, page2.Token)
}

func TestListRightRelationsInvalidTokenMapsToInvalidArgument(t *testing.T) {
	s, ctx := newService(t)

	left := tuple.Entity{Type: "user", ID: "jane"}
	_, err := s.ListRightRelations(ctx, left, "", "not-a-real-token!!", 10)
	require.Error(t, err)
	require.Equal(t, service.StatusInvalidArgument, service.Code(err))
}
