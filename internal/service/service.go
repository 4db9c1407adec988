// Package service implements the RPC surface (spec.md §4.11/§6, C11): one
// Go method per endpoint named in spec.md §6, taking a context carrying the
// space id (internal/spaceid) and translating internal/errs kinds to wire
// status buckets at a single point (Code). No transport framing lives
// here — that is the out-of-scope RPC layer — only the request/response
// shapes and the core-to-wire error boundary.
package service

import (
	"context"

	"github.com/ruek-io/ruek/internal/check"
	"github.com/ruek-io/ruek/internal/errs"
	"github.com/ruek-io/ruek/internal/optimize"
	"github.com/ruek-io/ruek/internal/page"
	"github.com/ruek-io/ruek/internal/principal"
	"github.com/ruek-io/ruek/internal/record"
	"github.com/ruek-io/ruek/internal/spaceid"
	"github.com/ruek-io/ruek/internal/tuple"
)

// Status is a wire status bucket (spec.md §7).
type Status string

const (
	StatusOK              Status = "ok"
	StatusNotFound        Status = "not_found"
	StatusAlreadyExists   Status = "already_exists"
	StatusInvalidArgument Status = "invalid_argument"
	StatusInternal        Status = "internal"
	StatusUnavailable     Status = "unavailable"
	StatusUnknown         Status = "unknown"
)

// Code maps an internal/errs.Kind to its wire bucket (spec.md §7's five
// buckets, plus Unknown for anything that didn't go through errs at all).
func Code(err error) Status {
	if err == nil {
		return StatusOK
	}
	switch errs.Code(err) {
	case errs.NotFound:
		return StatusNotFound
	case errs.AlreadyExists:
		return StatusAlreadyExists
	case errs.InvalidData, errs.InvalidParentId, errs.InvalidKey, errs.InvalidListArgs, errs.InvalidStrategy, errs.RevisionMismatch:
		return StatusInvalidArgument
	case errs.ConnectionUnavailable, errs.Timeout:
		return StatusUnavailable
	case "":
		return StatusUnknown
	default:
		return StatusInternal
	}
}

// Config bounds the per-call defaults a Service applies when a caller
// omits them (spec.md §6 "a per-operation timeout... a default check cost
// limit").
type Config struct {
	CheckCostLimit int
}

// Service wires the core stores and evaluators behind the endpoint
// methods named in spec.md §6.
type Service struct {
	Principals principal.Store
	Records    record.Store
	Tuples     tuple.Store
	Config     Config
}

// New builds a Service with spec.md §4.5's default cost limit applied
// when cfg.CheckCostLimit is unset.
func New(principals principal.Store, records record.Store, tuples tuple.Store, cfg Config) *Service {
	if cfg.CheckCostLimit <= 0 {
		cfg.CheckCostLimit = check.DefaultCostLimit
	}
	return &Service{Principals: principals, Records: records, Tuples: tuples, Config: cfg}
}

// --- Principals ---

func (s *Service) CreatePrincipal(ctx context.Context, parentID, segment string, attrs map[string]any) (*principal.Principal, error) {
	p := principal.New(spaceid.From(ctx), parentID, segment, attrs)
	if err := s.Principals.Store(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) RetrievePrincipal(ctx context.Context, id string) (*principal.Principal, error) {
	return s.Principals.Retrieve(ctx, spaceid.From(ctx), id)
}

// UpdatePrincipal stores p as-is, relying on p.Rev to guard against
// concurrent writers (errs.RevisionMismatch on a stale rev).
func (s *Service) UpdatePrincipal(ctx context.Context, p *principal.Principal) error {
	p.SpaceID = spaceid.From(ctx)
	return s.Principals.Store(ctx, p)
}

func (s *Service) DeletePrincipal(ctx context.Context, id string) (bool, error) {
	return s.Principals.Discard(ctx, spaceid.From(ctx), id)
}

// ListPage is a generic paginated response: items plus an opaque
// continuation token (empty when the page was not full, spec.md §4.10).
type ListPage[T any] struct {
	Items []T
	Token string
}

func (s *Service) ListChildPrincipals(ctx context.Context, parentID, token string, limit int) (ListPage[*principal.Principal], error) {
	limit = page.ClampLimit(limit)
	lastID, err := decodeToken(token)
	if err != nil {
		return ListPage[*principal.Principal]{}, err
	}

	items, err := s.Principals.ListChildren(ctx, spaceid.From(ctx), parentID, lastID, limit)
	if err != nil {
		return ListPage[*principal.Principal]{}, err
	}
	return ListPage[*principal.Principal]{Items: items, Token: nextToken(items, limit, func(p *principal.Principal) string { return p.ID })}, nil
}

// --- Records (authorization grants) ---

func (s *Service) GrantRecord(ctx context.Context, key record.Key, attrs map[string]any) (*record.Record, error) {
	r := &record.Record{
		PrincipalID:  key.PrincipalID,
		ResourceType: key.ResourceType,
		ResourceID:   key.ResourceID,
		SpaceID:      spaceid.From(ctx),
		Attrs:        attrs,
	}
	if err := s.Records.Store(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) RevokeRecord(ctx context.Context, key record.Key) error {
	return s.Records.Discard(ctx, spaceid.From(ctx), key)
}

// CheckRecord reports the grant's attrs, or errs.NotFound if none exists
// (spec.md §8's "grant(p,r,t,attrs); check(p,r,t) == attrs").
func (s *Service) CheckRecord(ctx context.Context, key record.Key) (map[string]any, error) {
	r, err := s.Records.Lookup(ctx, spaceid.From(ctx), key)
	if err != nil {
		return nil, err
	}
	return r.Attrs, nil
}

func (s *Service) ListResources(ctx context.Context, principalID, resourceType, token string, limit int) (ListPage[*record.Record], error) {
	limit = page.ClampLimit(limit)
	lastID, err := decodeToken(token)
	if err != nil {
		return ListPage[*record.Record]{}, err
	}
	items, err := s.Records.ListByPrincipal(ctx, spaceid.From(ctx), principalID, resourceType, lastID, limit)
	if err != nil {
		return ListPage[*record.Record]{}, err
	}
	return ListPage[*record.Record]{Items: items, Token: nextToken(items, limit, func(r *record.Record) string { return r.ResourceID })}, nil
}

func (s *Service) ListResourcePrincipals(ctx context.Context, resourceType, resourceID, token string, limit int) (ListPage[*record.Record], error) {
	limit = page.ClampLimit(limit)
	lastID, err := decodeToken(token)
	if err != nil {
		return ListPage[*record.Record]{}, err
	}
	items, err := s.Records.ListByResource(ctx, spaceid.From(ctx), resourceType, resourceID, lastID, limit)
	if err != nil {
		return ListPage[*record.Record]{}, err
	}
	return ListPage[*record.Record]{Items: items, Token: nextToken(items, limit, func(r *record.Record) string { return r.PrincipalID })}, nil
}

// --- Entities (tuple endpoints) ---

func (s *Service) ListEntities(ctx context.Context, left tuple.Entity, relation, token string, limit int) (ListPage[*tuple.Tuple], error) {
	return s.listEntities(ctx, left, relation, token, limit, false)
}

func (s *Service) ListEntityPrincipals(ctx context.Context, left tuple.Entity, relation, token string, limit int) (ListPage[*tuple.Tuple], error) {
	return s.listEntities(ctx, left, relation, token, limit, true)
}

func (s *Service) listEntities(ctx context.Context, left tuple.Entity, relation, token string, limit int, principalsOnly bool) (ListPage[*tuple.Tuple], error) {
	limit = page.ClampLimit(limit)
	lastID, lastHash, err := decodeTupleToken(token)
	if err != nil {
		return ListPage[*tuple.Tuple]{}, err
	}

	var rel *string
	if relation != "" {
		rel = &relation
	}

	items, err := s.Tuples.ListRight(ctx, spaceid.From(ctx), left, tuple.ListFilter{Relation: rel, LastID: lastID, LastHash: lastHash, Limit: limit})
	if err != nil {
		return ListPage[*tuple.Tuple]{}, err
	}
	if principalsOnly {
		filtered := items[:0]
		for _, t := range items {
			if t.IsRightPrincipal() {
				filtered = append(filtered, t)
			}
		}
		items = filtered
	}
	return ListPage[*tuple.Tuple]{Items: items, Token: nextTupleToken(items, limit, func(t *tuple.Tuple) (string, int64) { return t.REntityID, t.RHash() })}, nil
}

// --- Relations (tuples) ---

func (s *Service) CreateRelation(ctx context.Context, t *tuple.Tuple, strategy optimize.Strategy, costLimit int) (optimize.Result, error) {
	if costLimit <= 0 {
		costLimit = s.Config.CheckCostLimit
	}
	t.SpaceID = spaceid.From(ctx)
	return optimize.Create(ctx, s.Tuples, t.SpaceID, t, strategy, costLimit)
}

func (s *Service) DeleteRelation(ctx context.Context, id string) error {
	return s.Tuples.Discard(ctx, spaceid.From(ctx), id)
}

func (s *Service) CheckRelation(ctx context.Context, left tuple.Entity, relation string, right tuple.Entity, strategy check.Strategy, costLimit int) (check.Result, error) {
	if costLimit <= 0 {
		costLimit = s.Config.CheckCostLimit
	}
	return check.Check(ctx, s.Tuples, spaceid.From(ctx), left, relation, right, strategy, costLimit)
}

func (s *Service) ListLeftRelations(ctx context.Context, right tuple.Entity, relation, token string, limit int) (ListPage[*tuple.Tuple], error) {
	limit = page.ClampLimit(limit)
	lastID, lastHash, err := decodeTupleToken(token)
	if err != nil {
		return ListPage[*tuple.Tuple]{}, err
	}
	var rel *string
	if relation != "" {
		rel = &relation
	}
	items, err := s.Tuples.ListLeft(ctx, spaceid.From(ctx), right, tuple.ListFilter{Relation: rel, LastID: lastID, LastHash: lastHash, Limit: limit})
	if err != nil {
		return ListPage[*tuple.Tuple]{}, err
	}
	return ListPage[*tuple.Tuple]{Items: items, Token: nextTupleToken(items, limit, func(t *tuple.Tuple) (string, int64) { return t.LEntityID, t.LHash() })}, nil
}

func (s *Service) ListRightRelations(ctx context.Context, left tuple.Entity, relation, token string, limit int) (ListPage[*tuple.Tuple], error) {
	limit = page.ClampLimit(limit)
	lastID, lastHash, err := decodeTupleToken(token)
	if err != nil {
		return ListPage[*tuple.Tuple]{}, err
	}
	var rel *string
	if relation != "" {
		rel = &relation
	}
	items, err := s.Tuples.ListRight(ctx, spaceid.From(ctx), left, tuple.ListFilter{Relation: rel, LastID: lastID, LastHash: lastHash, Limit: limit})
	if err != nil {
		return ListPage[*tuple.Tuple]{}, err
	}
	return ListPage[*tuple.Tuple]{Items: items, Token: nextTupleToken(items, limit, func(t *tuple.Tuple) (string, int64) { return t.REntityID, t.RHash() })}, nil
}

func decodeToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	t, err := page.Decode(token)
	if err != nil {
		return "", errs.New(errs.InvalidData, "service.decodeToken", "malformed pagination token")
	}
	return t.LastID, nil
}

func nextToken[T any](items []T, limit int, idOf func(T) string) string {
	if len(items) == 0 {
		return ""
	}
	return page.TokenOr(idOf(items[len(items)-1]), len(items), limit)
}

// decodeTupleToken decodes a continuation token for a tuple listing, which
// carries the far-side hash alongside the id since those listings sort by
// hash DESC, not by id (see tuple.ListFilter.LastHash).
func decodeTupleToken(token string) (string, int64, error) {
	if token == "" {
		return "", 0, nil
	}
	t, err := page.Decode(token)
	if err != nil {
		return "", 0, errs.New(errs.InvalidData, "service.decodeTupleToken", "malformed pagination token")
	}
	return t.LastID, t.LastHash, nil
}

func nextTupleToken[T any](items []T, limit int, idHashOf func(T) (string, int64)) string {
	if len(items) == 0 {
		return ""
	}
	lastID, lastHash := idHashOf(items[len(items)-1])
	return page.TokenOrHash(lastID, lastHash, len(items), limit)
}
