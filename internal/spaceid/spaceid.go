// Package spaceid carries the per-call space id (logical tenant partition,
// spec.md §3/§4.11) on a context.Context, the way the teacher threads
// request-scoped values without a global mutable map.
package spaceid

import "context"

type ctxKey struct{}

// Default is the space id used when a call carries none (spec.md §4.11:
// "missing space-id => empty string").
const Default = ""

// With returns a context carrying id as the active space id.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From extracts the space id from ctx, returning Default if none was set.
func From(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}
