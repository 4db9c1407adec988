package storetest

import (
	"context"
	"sort"

	"github.com/ruek-io/ruek/internal/errs"
	"github.com/ruek-io/ruek/internal/record"
)

func (b *Backend) storeRecord(ctx context.Context, r *record.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.principals[spaceKey{r.SpaceID, r.PrincipalID}]; !ok {
		return errs.New(errs.InvalidKey, "storetest.Record.Store", "principal %q not found", r.PrincipalID)
	}

	k := spaceKey{r.SpaceID, recordKey(r.PrincipalID, r.ResourceType, r.ResourceID)}
	existing, ok := b.records[k]
	if ok {
		r.Rev = existing.Rev + 1
	} else {
		r.Rev = 0
	}
	cp := *r
	b.records[k] = &cp
	return nil
}

func (b *Backend) discardRecord(ctx context.Context, spaceID string, key record.Key) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := spaceKey{spaceID, recordKey(key.PrincipalID, key.ResourceType, key.ResourceID)}
	delete(b.records, k)
	return nil
}

func (b *Backend) lookupRecord(ctx context.Context, spaceID string, key record.Key) (*record.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := spaceKey{spaceID, recordKey(key.PrincipalID, key.ResourceType, key.ResourceID)}
	r, ok := b.records[k]
	if !ok {
		return nil, errs.New(errs.NotFound, "storetest.Record.Lookup", "record not found")
	}
	cp := *r
	return &cp, nil
}

func (b *Backend) listByPrincipal(ctx context.Context, spaceID, principalID, resourceType, lastID string, limit int) ([]*record.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*record.Record
	for _, r := range b.records {
		if r.SpaceID != spaceID || r.PrincipalID != principalID {
			continue
		}
		if resourceType != "" && r.ResourceType != resourceType {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ResourceType != out[j].ResourceType {
			return out[i].ResourceType > out[j].ResourceType
		}
		return out[i].ResourceID > out[j].ResourceID
	})
	if lastID != "" {
		filtered := out[:0]
		for _, r := range out {
			if r.ResourceID < lastID {
				filtered = append(filtered, r)
			}
		}
		out = filtered
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (b *Backend) listByResource(ctx context.Context, spaceID, resourceType, resourceID, lastID string, limit int) ([]*record.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*record.Record
	for _, r := range b.records {
		if r.SpaceID == spaceID && r.ResourceType == resourceType && r.ResourceID == resourceID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PrincipalID > out[j].PrincipalID })
	if lastID != "" {
		filtered := out[:0]
		for _, r := range out {
			if r.PrincipalID < lastID {
				filtered = append(filtered, r)
			}
		}
		out = filtered
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
