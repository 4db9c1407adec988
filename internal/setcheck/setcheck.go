// Package setcheck implements the two-pointer ordered-merge evaluator
// (spec.md §4.7, C8): a linear intersection of the query left's fan-out
// and the query right's fan-in, finding exactly the depth-1 composition.
package setcheck

import (
	"context"

	"github.com/ruek-io/ruek/internal/tuple"
)

// TupleLister is the subset of tuple.Store the set evaluator needs.
type TupleLister interface {
	ListLeft(ctx context.Context, spaceID string, right tuple.Entity, f tuple.ListFilter) ([]*tuple.Tuple, error)
	ListRight(ctx context.Context, spaceID string, left tuple.Entity, f tuple.ListFilter) ([]*tuple.Tuple, error)
}

// Result mirrors graph.Result's shape for the set strategy: Found with the
// single composed Tuple, or not found with the cost consumed (negated on
// budget exhaustion, spec.md §4.5).
type Result struct {
	Found bool
	Cost  int
	Tuple *tuple.Tuple
}

// Check performs the merge of spec.md §4.7: t1 fans out from `left`
// (ordered by _r_hash DESC), t2 fans into `right` filtered by `relation`
// (ordered by _l_hash DESC). Matching far-side ids with t1.Relation ==
// t2.Strand and matching types yields the composed tuple.
func Check(ctx context.Context, lister TupleLister, spaceID string, left tuple.Entity, relation string, right tuple.Entity, costLimit int) (Result, error) {
	t1, err := lister.ListRight(ctx, spaceID, left, tuple.ListFilter{Limit: costLimit})
	if err != nil {
		return Result{}, err
	}

	rel := relation
	t2, err := lister.ListLeft(ctx, spaceID, right, tuple.ListFilter{Relation: &rel, Limit: costLimit})
	if err != nil {
		return Result{}, err
	}

	i, j := 0, 0
	cost := 0

	for i < len(t1) && j < len(t2) {
		if cost >= costLimit {
			return Result{Found: false, Cost: -cost}, nil
		}
		cost++

		a, b := t1[i], t2[j]
		ha, hb := a.RHash(), b.LHash()

		switch {
		case ha == hb:
			if a.Right() == b.Left() && a.Relation == b.Strand {
				composed := tuple.Compose(spaceID, a, b)
				return Result{Found: true, Cost: cost, Tuple: composed}, nil
			}
			// Same hash, different (type, id) pair (a hash collision) or
			// strand mismatch: neither pointer can find a better match at
			// this hash value walking in one direction, so advance both.
			i++
			j++
		case ha > hb:
			i++
		default:
			j++
		}
	}

	return Result{Found: false, Cost: cost}, nil
}
