// Package optimize implements the tuple composer (spec.md §4.8, C9): on
// writing a tuple, it optionally materializes the tuples transitively
// reachable through it so that later checks hit the direct path at cost 1
// instead of re-running a graph or set evaluation.
package optimize

import (
	"context"

	"github.com/ruek-io/ruek/internal/errs"
	"github.com/ruek-io/ruek/internal/tuple"
)

// Strategy selects how aggressively Create materializes derived tuples.
type Strategy string

const (
	// StrategyGraph stores only the primary tuple; future checks for
	// multi-hop compositions through it fall back to the graph evaluator.
	StrategyGraph Strategy = "graph"

	// StrategyDirect materializes both left- and right-expansions
	// regardless of whether either endpoint is a principal.
	StrategyDirect Strategy = "direct"

	// StrategySet materializes expansions the same way the set evaluator
	// would compose them: only through principal endpoints.
	StrategySet Strategy = "set"
)

// DefaultStrategy is used when the caller supplies the zero value.
const DefaultStrategy = StrategyGraph

// Result reports the cost the write consumed. Cost is negated when the
// expansion exceeded costLimit (spec.md §4.8 step 6); in that case no
// candidate tuple was materialized, only the primary.
type Result struct {
	Cost int
}

// Create implements spec.md §4.8's six-step algorithm.
func Create(ctx context.Context, store tuple.Store, spaceID string, t *tuple.Tuple, strategy Strategy, costLimit int) (Result, error) {
	if strategy == "" {
		strategy = DefaultStrategy
	}
	switch strategy {
	case StrategyGraph, StrategyDirect, StrategySet:
	default:
		return Result{}, errs.New(errs.InvalidStrategy, "optimize.Create", "unknown strategy %q", strategy)
	}

	if err := store.Store(ctx, t); err != nil {
		return Result{}, err
	}

	if strategy == StrategyGraph {
		return Result{Cost: 1}, nil
	}

	var candidates []*tuple.Tuple
	cost := 0

	// Step 3: left-expand accumulates unconditionally.
	if t.Strand != "" && (strategy == StrategyDirect || t.IsRightPrincipal()) {
		strand := t.Strand
		rs, err := store.ListLeft(ctx, spaceID, t.Left(), tuple.ListFilter{Strand: &strand, Limit: costLimit})
		if err != nil {
			return Result{}, err
		}
		for _, r := range rs {
			if strategy == StrategySet && !r.IsLeftPrincipal() {
				continue
			}
			candidates = append(candidates, tuple.Compose(spaceID, r, t))
		}
		cost += len(rs)
	}

	// Step 4: right-expand is guarded by the budget left after step 3, using
	// that same pre-primary cost (not yet incremented for the primary insert).
	if cost < costLimit && t.Relation != "" && (strategy == StrategyDirect || t.IsLeftPrincipal()) {
		rs, err := store.ListRight(ctx, spaceID, t.Right(), tuple.ListFilter{Limit: costLimit - cost})
		if err != nil {
			return Result{}, err
		}
		for _, r := range rs {
			if r.Strand != t.Relation {
				continue
			}
			if strategy == StrategySet && !r.IsRightPrincipal() {
				continue
			}
			candidates = append(candidates, tuple.Compose(spaceID, t, r))
		}
		cost += len(rs)
	}

	// Step 5: the primary's own contribution is added once, after both
	// expansions, immediately before the final budget check (step 6).
	cost++

	if cost > costLimit {
		return Result{Cost: -cost}, nil
	}

	for _, c := range candidates {
		if err := store.Store(ctx, c); err != nil {
			if errs.Is(err, errs.AlreadyExists) {
				continue
			}
			return Result{}, err
		}
	}

	return Result{Cost: cost}, nil
}
