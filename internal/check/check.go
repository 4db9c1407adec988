// Package check implements the evaluator dispatch of spec.md §4.5: a
// direct composite lookup first, then a strategy-selected fallback across
// the graph (C7) and set (C8) evaluators.
package check

import (
	"context"

	"github.com/ruek-io/ruek/internal/errs"
	"github.com/ruek-io/ruek/internal/graph"
	"github.com/ruek-io/ruek/internal/setcheck"
	"github.com/ruek-io/ruek/internal/tuple"
)

// Strategy selects the fallback evaluator run after a failed direct
// lookup.
type Strategy string

const (
	StrategyDirect Strategy = "direct"
	StrategyGraph  Strategy = "graph"
	StrategySet    Strategy = "set"
)

// DefaultCostLimit is the compile-time default (spec.md §4.5).
const DefaultCostLimit = 1000

// MaxCostLimit bounds any caller-supplied cost_limit.
const MaxCostLimit = 65535

// Result is the outcome reported back across the RPC surface. Exactly one
// of Tuple/Path is set when Found is true, depending on which evaluator
// decided it: a direct or set hit carries Tuple, a graph hit carries Path.
type Result struct {
	Found bool
	Cost  int
	Tuple *tuple.Tuple
	Path  []*tuple.Tuple
}

// Store is the subset of tuple.Store the dispatcher and its evaluators
// need.
type Store interface {
	graph.TupleLister
	setcheck.TupleLister
	Lookup(ctx context.Context, spaceID string, left, right tuple.Entity, relation, strand *string) (*tuple.Tuple, error)
}

// Check implements the public contract of spec.md §4.5.
func Check(ctx context.Context, store Store, spaceID string, left tuple.Entity, relation string, right tuple.Entity, strategy Strategy, costLimit int) (Result, error) {
	switch strategy {
	case "", StrategyDirect, StrategyGraph, StrategySet:
	default:
		return Result{}, errs.New(errs.InvalidStrategy, "check.Check", "unknown strategy %q", strategy)
	}
	if strategy == "" {
		strategy = StrategyGraph
	}
	if costLimit <= 0 {
		costLimit = DefaultCostLimit
	}
	if costLimit > MaxCostLimit {
		costLimit = MaxCostLimit
	}

	rel := relation
	direct, err := store.Lookup(ctx, spaceID, left, right, &rel, nil)
	if err != nil && errs.Code(err) != errs.NotFound {
		return Result{}, err
	}
	if direct != nil {
		return Result{Found: true, Cost: 1, Tuple: direct}, nil
	}

	if costLimit <= 1 {
		return Result{Found: false, Cost: 1}, nil
	}

	switch strategy {
	case StrategyDirect:
		return Result{Found: false, Cost: 1}, nil

	case StrategyGraph:
		res, err := graph.Check(ctx, store, spaceID, left, relation, right, costLimit)
		if err != nil {
			return Result{}, err
		}
		return Result{Found: res.Found, Cost: res.Cost, Path: res.Path}, nil

	case StrategySet:
		res, err := setcheck.Check(ctx, store, spaceID, left, relation, right, costLimit)
		if err != nil {
			return Result{}, err
		}
		return Result{Found: res.Found, Cost: res.Cost, Tuple: res.Tuple}, nil
	}

	return Result{Found: false, Cost: 1}, nil
}
