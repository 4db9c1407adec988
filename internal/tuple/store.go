package tuple

import (
	"context"

	"github.com/ruek-io/ruek/internal/errs"
)

// Tuplet is the one-sided traversal projection of spec.md §3: a view row
// produced by listing tuples from one fixed endpoint, carrying only what
// the evaluators need to walk the graph.
type Tuplet struct {
	ID       string
	Hash     int64 // far-side hash
	Relation string
	Strand   string
}

// ListFilter narrows a ListLeft/ListRight/TupletsList call. Relation and
// Strand are optional (nil means "no filter"); spec.md §4.4/§4.8 requires
// both kinds of filter depending on the caller (the set evaluator filters
// by relation, the optimizer's expansion filters by strand, the graph
// evaluator's fanout applies no server-side filter at all).
type ListFilter struct {
	Relation *string
	Strand   *string
	LastID   string // exclusive cursor on the entity id, per spec.md §4.4
	LastHash int64  // exclusive cursor's far-side hash; paired with LastID
	// since ListLeft/ListRight sort by hash DESC, not by id
	Limit int
}

// Store is the C5 tuple store contract (spec.md §4.4). Implementations:
// internal/storepg (Postgres) and internal/storetest (in-memory fixture).
type Store interface {
	// Store upserts by ID; a composite-key collision raises AlreadyExists
	// (not a revision error), per spec.md §3 Tuple invariants.
	Store(ctx context.Context, t *Tuple) error

	// Discard deletes a tuple by id. No-op (no error) if already absent.
	Discard(ctx context.Context, spaceID, id string) error

	// Retrieve fetches a tuple by id, or errs.NotFound.
	Retrieve(ctx context.Context, spaceID, id string) (*Tuple, error)

	// Lookup performs an exact composite match, returning at most one
	// tuple. relation/strand nil means "unfiltered on that field."
	Lookup(ctx context.Context, spaceID string, left, right Entity, relation, strand *string) (*Tuple, error)

	// ListLeft returns tuples whose right endpoint equals `right`,
	// ordered by _l_hash DESC (tiebreak by left entity id ASC), paginated
	// by a (LastHash, LastID) cursor on that same (hash, id) pair.
	ListLeft(ctx context.Context, spaceID string, right Entity, f ListFilter) ([]*Tuple, error)

	// ListRight mirrors ListLeft from the left endpoint, ordered by
	// _r_hash DESC.
	ListRight(ctx context.Context, spaceID string, left Entity, f ListFilter) ([]*Tuple, error)

	// TupletsList returns the Tuplet projection from the side opposite
	// whichever of left/right is non-nil; exactly one of left/right must
	// be set or errs.InvalidListArgs is raised.
	TupletsList(ctx context.Context, spaceID string, left, right *Entity, f ListFilter) ([]Tuplet, error)
}

// ValidateListArgs enforces spec.md §4.4's tupletsList contract: exactly
// one of left/right, never zero or two. Shared by every Store
// implementation so the error is consistent.
func ValidateListArgs(left, right *Entity) error {
	if (left == nil) == (right == nil) {
		return errs.New(errs.InvalidListArgs, "tuple.TupletsList", "exactly one of left or right must be set")
	}
	return nil
}
