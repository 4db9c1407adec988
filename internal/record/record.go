// Package record implements the authorization record store (spec.md §3
// Record, §4.3 C4): principal -> (resource_type, resource_id) grants with
// JSON attributes, listed in either direction with stable pagination.
package record

import "context"

// Record links a principal to a resource it was granted access to
// (spec.md GLOSSARY).
type Record struct {
	PrincipalID  string
	ResourceType string
	ResourceID   string
	SpaceID      string
	Rev          int
	Attrs        map[string]any
}

// Key is the composite identity of a record (spec.md §3).
type Key struct {
	PrincipalID  string
	ResourceType string
	ResourceID   string
}

// Store is the C4 record store contract (spec.md §4.3).
type Store interface {
	// Store upserts a record keyed by its composite key. Attrs is always
	// overwritten and Rev incremented on conflict. PrincipalID must
	// reference an existing principal (errs.InvalidKey otherwise);
	// non-object Attrs yields errs.InvalidData.
	Store(ctx context.Context, r *Record) error

	// Discard revokes a record by its composite key.
	Discard(ctx context.Context, spaceID string, key Key) error

	// Lookup fetches a record by composite key, or errs.NotFound.
	Lookup(ctx context.Context, spaceID string, key Key) (*Record, error)

	// ListByPrincipal lists a principal's records ordered by
	// (resource_type, resource_id), paginated by LastID (the resource id).
	ListByPrincipal(ctx context.Context, spaceID, principalID string, resourceType, lastID string, limit int) ([]*Record, error)

	// ListByResource lists the principals granted a given resource,
	// ordered by principal id, paginated by LastID (the principal id).
	ListByResource(ctx context.Context, spaceID, resourceType, resourceID, lastID string, limit int) ([]*Record, error)
}
