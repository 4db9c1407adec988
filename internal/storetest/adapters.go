package storetest

import (
	"context"

	"github.com/ruek-io/ruek/internal/principal"
	"github.com/ruek-io/ruek/internal/record"
	"github.com/ruek-io/ruek/internal/tuple"
)

// PrincipalStore adapts a Backend to principal.Store.
type PrincipalStore struct{ B *Backend }

func (s PrincipalStore) Store(ctx context.Context, p *principal.Principal) error {
	return s.B.storePrincipal(ctx, p)
}
func (s PrincipalStore) Retrieve(ctx context.Context, spaceID, id string) (*principal.Principal, error) {
	return s.B.retrievePrincipal(ctx, spaceID, id)
}
func (s PrincipalStore) Discard(ctx context.Context, spaceID, id string) (bool, error) {
	return s.B.discardPrincipal(ctx, spaceID, id)
}
func (s PrincipalStore) ListChildren(ctx context.Context, spaceID, parentID, lastID string, limit int) ([]*principal.Principal, error) {
	return s.B.listChildren(ctx, spaceID, parentID, lastID, limit)
}

var _ principal.Store = PrincipalStore{}

// RecordStore adapts a Backend to record.Store.
type RecordStore struct{ B *Backend }

func (s RecordStore) Store(ctx context.Context, r *record.Record) error {
	return s.B.storeRecord(ctx, r)
}
func (s RecordStore) Discard(ctx context.Context, spaceID string, key record.Key) error {
	return s.B.discardRecord(ctx, spaceID, key)
}
func (s RecordStore) Lookup(ctx context.Context, spaceID string, key record.Key) (*record.Record, error) {
	return s.B.lookupRecord(ctx, spaceID, key)
}
func (s RecordStore) ListByPrincipal(ctx context.Context, spaceID, principalID, resourceType, lastID string, limit int) ([]*record.Record, error) {
	return s.B.listByPrincipal(ctx, spaceID, principalID, resourceType, lastID, limit)
}
func (s RecordStore) ListByResource(ctx context.Context, spaceID, resourceType, resourceID, lastID string, limit int) ([]*record.Record, error) {
	return s.B.listByResource(ctx, spaceID, resourceType, resourceID, lastID, limit)
}

var _ record.Store = RecordStore{}

// TupleStore adapts a Backend to tuple.Store.
type TupleStore struct{ B *Backend }

func (s TupleStore) Store(ctx context.Context, t *tuple.Tuple) error {
	return s.B.storeTuple(ctx, t)
}
func (s TupleStore) Discard(ctx context.Context, spaceID, id string) error {
	return s.B.discardTuple(ctx, spaceID, id)
}
func (s TupleStore) Retrieve(ctx context.Context, spaceID, id string) (*tuple.Tuple, error) {
	return s.B.retrieveTuple(ctx, spaceID, id)
}
func (s TupleStore) Lookup(ctx context.Context, spaceID string, left, right tuple.Entity, relation, strand *string) (*tuple.Tuple, error) {
	return s.B.lookupTuple(ctx, spaceID, left, right, relation, strand)
}
func (s TupleStore) ListLeft(ctx context.Context, spaceID string, right tuple.Entity, f tuple.ListFilter) ([]*tuple.Tuple, error) {
	return s.B.listLeft(ctx, spaceID, right, f)
}
func (s TupleStore) ListRight(ctx context.Context, spaceID string, left tuple.Entity, f tuple.ListFilter) ([]*tuple.Tuple, error) {
	return s.B.listRight(ctx, spaceID, left, f)
}
func (s TupleStore) TupletsList(ctx context.Context, spaceID string, left, right *tuple.Entity, f tuple.ListFilter) ([]tuple.Tuplet, error) {
	return s.B.tupletsList(ctx, spaceID, left, right, f)
}

var _ tuple.Store = TupleStore{}
