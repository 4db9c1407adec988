package storetest

import (
	"context"
	"sort"

	"github.com/ruek-io/ruek/internal/errs"
	"github.com/ruek-io/ruek/internal/idgen"
	"github.com/ruek-io/ruek/internal/tuple"
)

func (b *Backend) storeTuple(ctx context.Context, t *tuple.Tuple) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t.Sanitise()

	if t.LPrincipalID != "" {
		if _, ok := b.principals[spaceKey{t.SpaceID, t.LPrincipalID}]; !ok {
			return errs.New(errs.InvalidKey, "storetest.Tuple.Store", "left principal %q not found", t.LPrincipalID)
		}
	}
	if t.RPrincipalID != "" {
		if _, ok := b.principals[spaceKey{t.SpaceID, t.RPrincipalID}]; !ok {
			return errs.New(errs.InvalidKey, "storetest.Tuple.Store", "right principal %q not found", t.RPrincipalID)
		}
	}

	ck := compositeKey(t.SpaceID, t.Strand, t.Left(), t.Relation, t.Right())

	if t.ID == "" {
		t.ID = idgen.Next()
	}
	k := spaceKey{t.SpaceID, t.ID}

	if existingID, ok := b.tupleComposite[ck]; ok && existingID != t.ID {
		return errs.New(errs.AlreadyExists, "storetest.Tuple.Store", "tuple with this composite key already exists")
	}

	if existing, ok := b.tuples[k]; ok {
		// update: composite key may have changed underneath an existing id;
		// drop the stale composite index entry first.
		oldCK := compositeKey(existing.SpaceID, existing.Strand, existing.Left(), existing.Relation, existing.Right())
		if oldCK != ck {
			delete(b.tupleComposite, oldCK)
		}
		t.Rev = existing.Rev + 1
	} else {
		t.Rev = 0
	}

	b.tupleComposite[ck] = t.ID
	cp := *t
	b.tuples[k] = &cp
	return nil
}

func (b *Backend) discardTuple(ctx context.Context, spaceID, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := spaceKey{spaceID, id}
	existing, ok := b.tuples[k]
	if !ok {
		return nil
	}
	ck := compositeKey(existing.SpaceID, existing.Strand, existing.Left(), existing.Relation, existing.Right())
	delete(b.tupleComposite, ck)
	delete(b.tuples, k)
	return nil
}

func (b *Backend) retrieveTuple(ctx context.Context, spaceID, id string) (*tuple.Tuple, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tuples[spaceKey{spaceID, id}]
	if !ok {
		return nil, errs.New(errs.NotFound, "storetest.Tuple.Retrieve", "tuple %q not found", id)
	}
	cp := *t
	return &cp, nil
}

func (b *Backend) lookupTuple(ctx context.Context, spaceID string, left, right tuple.Entity, relation, strand *string) (*tuple.Tuple, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range b.tuples {
		if t.SpaceID != spaceID {
			continue
		}
		if t.Left() != left || t.Right() != right {
			continue
		}
		if relation != nil && t.Relation != *relation {
			continue
		}
		if strand != nil && t.Strand != *strand {
			continue
		}
		cp := *t
		return &cp, nil
	}
	return nil, errs.New(errs.NotFound, "storetest.Tuple.Lookup", "no matching tuple")
}

func matchesFilter(t *tuple.Tuple, f tuple.ListFilter) bool {
	if f.Relation != nil && t.Relation != *f.Relation {
		return false
	}
	if f.Strand != nil && t.Strand != *f.Strand {
		return false
	}
	return true
}

func (b *Backend) listLeft(ctx context.Context, spaceID string, right tuple.Entity, f tuple.ListFilter) ([]*tuple.Tuple, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*tuple.Tuple
	for _, t := range b.tuples {
		if t.SpaceID != spaceID || t.Right() != right {
			continue
		}
		if !matchesFilter(t, f) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}

	// order by _l_hash DESC, tiebreak by left entity id, per spec.md §4.4.
	sort.Slice(out, func(i, j int) bool {
		hi, hj := out[i].LHash(), out[j].LHash()
		if hi != hj {
			return hi > hj
		}
		return out[i].LEntityID < out[j].LEntityID
	})

	if f.LastID != "" {
		filtered := out[:0]
		passedCursor := false
		for _, t := range out {
			if !passedCursor {
				if t.LEntityID == f.LastID {
					passedCursor = true
				}
				continue
			}
			filtered = append(filtered, t)
		}
		if !passedCursor {
			// cursor not found among current rows: fall back to strict id
			// comparison within the same hash ordering (spec.md §4.4).
			filtered = out[:0]
			for _, t := range out {
				if t.LEntityID < f.LastID {
					filtered = append(filtered, t)
				}
			}
		}
		out = filtered
	}

	limit := f.Limit
	if limit <= 0 {
		limit = len(out)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (b *Backend) listRight(ctx context.Context, spaceID string, left tuple.Entity, f tuple.ListFilter) ([]*tuple.Tuple, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*tuple.Tuple
	for _, t := range b.tuples {
		if t.SpaceID != spaceID || t.Left() != left {
			continue
		}
		if !matchesFilter(t, f) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		hi, hj := out[i].RHash(), out[j].RHash()
		if hi != hj {
			return hi > hj
		}
		return out[i].REntityID < out[j].REntityID
	})

	if f.LastID != "" {
		filtered := out[:0]
		passedCursor := false
		for _, t := range out {
			if !passedCursor {
				if t.REntityID == f.LastID {
					passedCursor = true
				}
				continue
			}
			filtered = append(filtered, t)
		}
		if !passedCursor {
			filtered = out[:0]
			for _, t := range out {
				if t.REntityID < f.LastID {
					filtered = append(filtered, t)
				}
			}
		}
		out = filtered
	}

	limit := f.Limit
	if limit <= 0 {
		limit = len(out)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (b *Backend) tupletsList(ctx context.Context, spaceID string, left, right *tuple.Entity, f tuple.ListFilter) ([]tuple.Tuplet, error) {
	if err := tuple.ValidateListArgs(left, right); err != nil {
		return nil, err
	}

	var tuples []*tuple.Tuple
	var err error
	fromLeft := left != nil
	if fromLeft {
		tuples, err = b.listRight(ctx, spaceID, *left, f)
	} else {
		tuples, err = b.listLeft(ctx, spaceID, *right, f)
	}
	if err != nil {
		return nil, err
	}

	out := make([]tuple.Tuplet, 0, len(tuples))
	for _, t := range tuples {
		tl := tuple.Tuplet{ID: t.ID, Relation: t.Relation}
		if fromLeft {
			tl.Hash = t.RHash()
			// tupletsList from the left side carries no strand, mirroring
			// original_source/src/db/tuplets.cpp's `strand = "null"` branch.
		} else {
			tl.Hash = t.LHash()
			tl.Strand = t.Strand
		}
		out = append(out, tl)
	}
	return out, nil
}
