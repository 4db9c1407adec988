// Package storetest provides an in-memory fixture implementing the
// principal/record/tuple store contracts, in the style of the teacher's
// internal/storage/memory package: mutex-guarded Go maps standing in for
// the real Postgres-backed adapter (internal/storepg) so every other
// package's tests run without a live database.
package storetest

import (
	"context"
	"sort"
	"sync"

	"github.com/ruek-io/ruek/internal/errs"
	"github.com/ruek-io/ruek/internal/idgen"
	"github.com/ruek-io/ruek/internal/principal"
	"github.com/ruek-io/ruek/internal/record"
	"github.com/ruek-io/ruek/internal/tuple"
)

type spaceKey struct {
	space, key string
}

// Backend is a single in-process store satisfying principal.Store,
// record.Store and tuple.Store. One Backend instance corresponds to one
// logical database; space partitioning is enforced the same way the real
// adapter would (by filtering on SpaceID), not by separate instances.
type Backend struct {
	mu sync.Mutex

	principals map[spaceKey]*principal.Principal
	records    map[spaceKey]*record.Record
	tuples     map[spaceKey]*tuple.Tuple

	// tupleComposite indexes the (space, strand, left, relation, right)
	// composite key to a tuple id, enforcing spec.md §3's uniqueness
	// invariant the way a Postgres unique index would.
	tupleComposite map[string]string
}

// New returns an empty Backend.
func New() *Backend {
	return &Backend{
		principals:     make(map[spaceKey]*principal.Principal),
		records:        make(map[spaceKey]*record.Record),
		tuples:         make(map[spaceKey]*tuple.Tuple),
		tupleComposite: make(map[string]string),
	}
}

func recordKey(principalID, resourceType, resourceID string) string {
	return principalID + "\x00" + resourceType + "\x00" + resourceID
}

func compositeKey(spaceID, strand string, left tuple.Entity, relation string, right tuple.Entity) string {
	return spaceID + "\x00" + strand + "\x00" + left.Type + "\x00" + left.ID + "\x00" + relation + "\x00" + right.Type + "\x00" + right.ID
}

// --- principal.Store ---

func (b *Backend) storePrincipal(ctx context.Context, p *principal.Principal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p.ParentID != "" {
		if _, ok := b.principals[spaceKey{p.SpaceID, p.ParentID}]; !ok {
			return errs.New(errs.InvalidParentId, "storetest.Principal.Store", "parent %q not found", p.ParentID)
		}
	}

	k := spaceKey{p.SpaceID, p.ID}
	if p.ID == "" {
		p.ID = idgen.Next()
		k = spaceKey{p.SpaceID, p.ID}
		p.Rev = 0
		cp := *p
		b.principals[k] = &cp
		return nil
	}

	existing, ok := b.principals[k]
	if !ok {
		p.Rev = 0
		cp := *p
		b.principals[k] = &cp
		return nil
	}
	if existing.Rev != p.Rev {
		return errs.New(errs.RevisionMismatch, "storetest.Principal.Store", "rev %d != stored rev %d", p.Rev, existing.Rev)
	}
	p.Rev++
	cp := *p
	b.principals[k] = &cp
	return nil
}

func (b *Backend) retrievePrincipal(ctx context.Context, spaceID, id string) (*principal.Principal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.principals[spaceKey{spaceID, id}]
	if !ok {
		return nil, errs.New(errs.NotFound, "storetest.Principal.Retrieve", "principal %q not found", id)
	}
	cp := *p
	return &cp, nil
}

func (b *Backend) discardPrincipal(ctx context.Context, spaceID, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := spaceKey{spaceID, id}
	if _, ok := b.principals[k]; !ok {
		return false, nil
	}

	for _, p := range b.principals {
		if p.SpaceID == spaceID && p.ParentID == id {
			return false, errs.New(errs.InvalidKey, "storetest.Principal.Discard", "principal %q is referenced as a parent", id)
		}
	}
	for _, r := range b.records {
		if r.SpaceID == spaceID && r.PrincipalID == id {
			return false, errs.New(errs.InvalidKey, "storetest.Principal.Discard", "principal %q is referenced by a record", id)
		}
	}
	for _, t := range b.tuples {
		if t.SpaceID == spaceID && (t.LPrincipalID == id || t.RPrincipalID == id) {
			return false, errs.New(errs.InvalidKey, "storetest.Principal.Discard", "principal %q is referenced by a tuple", id)
		}
	}

	delete(b.principals, k)
	return true, nil
}

func (b *Backend) listChildren(ctx context.Context, spaceID, parentID, lastID string, limit int) ([]*principal.Principal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*principal.Principal
	for _, p := range b.principals {
		if p.SpaceID == spaceID && p.ParentID == parentID {
			if lastID != "" && p.ID <= lastID {
				continue
			}
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
