// Package graph implements the cost-bounded BFS evaluator (spec.md §4.6,
// C7): a breadth-first search over the reversed relation graph, fanning in
// on left endpoints from the query's right side until the query's left
// endpoint is reached or the cost budget is exhausted.
package graph

import (
	"context"

	"github.com/ruek-io/ruek/internal/tuple"
)

// TupleLister is the subset of tuple.Store the evaluator needs. Both
// internal/storepg.TupleStore and internal/storetest.TupleStore satisfy it,
// and tests can supply a narrower fake.
type TupleLister interface {
	ListLeft(ctx context.Context, spaceID string, right tuple.Entity, f tuple.ListFilter) ([]*tuple.Tuple, error)
}

// Result is the outcome of Check: Found with the composing Path (left to
// right, spec.md §4.6), or not found with the cost consumed. Cost is
// negated when the budget was exhausted before a decision (spec.md §4.5).
type Result struct {
	Found bool
	Cost  int
	Path  []*tuple.Tuple // t1..tn, t1.Left == query left, tn.Right == query right
}

type vertexKey struct {
	strand string
	entity tuple.Entity
}

type vertex struct {
	entity tuple.Entity
	strand string
	path   []*tuple.Tuple // tuples collected so far, left to right (the seed tuple last)
}

// Check performs the BFS of spec.md §4.6. Seed vertices are the tuples
// whose right endpoint is `right` and whose relation is `relation`; each
// step fans out via ListLeft on the popped vertex's entity, accepting a
// neighbor tuple only when the vertex's strand matches the neighbor's
// relation (the strand-join rule of spec.md §4.9).
func Check(ctx context.Context, lister TupleLister, spaceID string, left tuple.Entity, relation string, right tuple.Entity, costLimit int) (Result, error) {
	rel := relation
	seeds, err := lister.ListLeft(ctx, spaceID, right, tuple.ListFilter{Relation: &rel, Limit: costLimit})
	if err != nil {
		return Result{}, err
	}

	// Seeds enter the queue like any other vertex; an exact match still
	// costs one (cost is incremented once per vertex popped, spec.md §4.6),
	// so there is no zero-cost fast path here.
	queue := make([]vertex, 0, len(seeds))
	for _, t := range seeds {
		queue = append(queue, vertex{
			entity: t.Left(),
			strand: t.Strand,
			path:   []*tuple.Tuple{t},
		})
	}

	visited := make(map[vertexKey]bool)
	cost := 0

	for len(queue) > 0 {
		if cost >= costLimit {
			return Result{Found: false, Cost: -cost}, nil
		}

		v := queue[0]
		queue = queue[1:]

		vk := vertexKey{strand: v.strand, entity: v.entity}
		if visited[vk] {
			continue
		}
		visited[vk] = true
		cost++

		if v.entity == left {
			return Result{Found: true, Cost: cost, Path: v.path}, nil
		}

		if v.strand == "" {
			// A leaf vertex (no strand) cannot compose further.
			continue
		}

		neighbors, err := lister.ListLeft(ctx, spaceID, v.entity, tuple.ListFilter{Limit: costLimit})
		if err != nil {
			return Result{}, err
		}

		for _, n := range neighbors {
			if v.strand != n.Relation {
				continue
			}

			newPath := make([]*tuple.Tuple, 0, len(v.path)+1)
			newPath = append(newPath, n)
			newPath = append(newPath, v.path...)

			if n.Left() == left {
				return Result{Found: true, Cost: cost, Path: newPath}, nil
			}

			nk := vertexKey{strand: n.Strand, entity: n.Left()}
			if visited[nk] {
				continue
			}
			queue = append(queue, vertex{entity: n.Left(), strand: n.Strand, path: newPath})
		}
	}

	return Result{Found: false, Cost: cost}, nil
}
