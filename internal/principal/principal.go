// Package principal implements the principal lifecycle (spec.md §3
// Principal, §4.3 C3): identity, optional hierarchical parent reference,
// JSON attrs, revision-guarded updates, logical space partitioning.
package principal

import (
	"context"

	"github.com/ruek-io/ruek/internal/idgen"
)

// Principal is an identity that can be the subject of a record or an
// endpoint of a tuple (spec.md GLOSSARY).
type Principal struct {
	ID       string
	SpaceID  string
	Rev      int
	ParentID string // empty when absent
	Segment  string // free string, must be non-empty if set
	Attrs    map[string]any
}

// Segment carries no value semantics beyond "opaque string, non-empty if
// present" (spec.md §9 Open Questions); Go's empty string already doubles
// as "absent," so there is nothing further to validate at this layer.

// Store is the C3 principal store contract (spec.md §4.3).
type Store interface {
	// Store is a revision-guarded upsert. New principals (ID == "") are
	// assigned a sortable id and created at rev 0. Existing principals
	// must supply the caller's last-known Rev; a stale Rev yields
	// errs.RevisionMismatch. An invalid ParentID yields
	// errs.InvalidParentId; non-object Attrs yields errs.InvalidData.
	Store(ctx context.Context, p *Principal) error

	// Retrieve fetches a principal by id, or errs.NotFound.
	Retrieve(ctx context.Context, spaceID, id string) (*Principal, error)

	// Discard deletes a principal by id, returning whether it existed.
	// Fails with errs.InvalidKey if other rows still reference it.
	Discard(ctx context.Context, spaceID, id string) (bool, error)

	// ListChildren lists principals whose ParentID == id, ordered by id,
	// paginated.
	ListChildren(ctx context.Context, spaceID, parentID string, lastID string, limit int) ([]*Principal, error)
}

// New builds a principal with a fresh id and rev 0.
func New(spaceID string, parentID, segment string, attrs map[string]any) *Principal {
	return &Principal{
		ID:       idgen.Next(),
		SpaceID:  spaceID,
		Rev:      0,
		ParentID: parentID,
		Segment:  segment,
		Attrs:    attrs,
	}
}
