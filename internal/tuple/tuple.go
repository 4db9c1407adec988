// Package tuple implements the relationship tuple store (spec.md §3 Tuple,
// §4.4 C5) and the tuplet projection used by the graph/set evaluators
// (spec.md §3 Tuplet, §4.4 tupletsList).
package tuple

import (
	"hash/fnv"

	"github.com/ruek-io/ruek/internal/idgen"
)

// PrincipalEntityType is the canonical entity type substituted on an
// endpoint whenever its principal id is set, per spec.md §3's tuple
// invariant: "when a principal id is set, the corresponding entity type is
// fixed to a canonical principal-entity constant and the entity id equals
// the principal id."
const PrincipalEntityType = "_principal"

// Entity is an addressable (type, id) pair (spec.md GLOSSARY).
type Entity struct {
	Type string
	ID   string
}

// Hash returns the stable far-side hash used for _l_hash/_r_hash and for
// tuplet comparisons. It must agree on (type, id) regardless of whether
// the entity originated from a principal or an entity endpoint.
func (e Entity) Hash() int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(e.Type))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(e.ID))
	return int64(h.Sum64())
}

// PrincipalEntity builds the canonical entity for a principal endpoint.
func PrincipalEntity(principalID string) Entity {
	return Entity{Type: PrincipalEntityType, ID: principalID}
}

// Tuple is a directed, typed relationship (spec.md §3 Tuple).
type Tuple struct {
	ID      string
	Rev     int
	SpaceID string
	Strand  string

	LEntityType  string
	LEntityID    string
	LPrincipalID string // empty when the left endpoint is an entity

	Relation string

	REntityType  string
	REntityID    string
	RPrincipalID string // empty when the right endpoint is an entity

	Attrs map[string]any

	RidL string // back-reference to the left source tuple (optimizer-composed)
	RidR string // back-reference to the right source tuple (optimizer-composed)
}

// New constructs a tuple with a fresh id, rev 0, and sanitised endpoints.
func New(spaceID, strand string, left Entity, leftPrincipalID string, relation string, right Entity, rightPrincipalID string) *Tuple {
	t := &Tuple{
		ID:           idgen.Next(),
		SpaceID:      spaceID,
		Strand:       strand,
		LEntityType:  left.Type,
		LEntityID:    left.ID,
		LPrincipalID: leftPrincipalID,
		Relation:     relation,
		REntityType:  right.Type,
		REntityID:    right.ID,
		RPrincipalID: rightPrincipalID,
	}
	t.Sanitise()
	return t
}

// Sanitise enforces the tuple invariant from spec.md §3: a principal
// endpoint and an entity endpoint are mutually exclusive on a given side;
// when a principal id is set, the entity type/id on that side are
// overwritten to the canonical principal form. Must hold after every
// mutation (called by New and Compose, and by each Store implementation
// before it writes a tuple).
func (t *Tuple) Sanitise() {
	if t.LPrincipalID != "" {
		t.LEntityType = PrincipalEntityType
		t.LEntityID = t.LPrincipalID
	}
	if t.RPrincipalID != "" {
		t.REntityType = PrincipalEntityType
		t.REntityID = t.RPrincipalID
	}
}

// Left returns the tuple's left endpoint as an Entity.
func (t *Tuple) Left() Entity { return Entity{Type: t.LEntityType, ID: t.LEntityID} }

// Right returns the tuple's right endpoint as an Entity.
func (t *Tuple) Right() Entity { return Entity{Type: t.REntityType, ID: t.REntityID} }

// LHash is the derived left-side hash (spec.md §3 "Derived: hashes").
func (t *Tuple) LHash() int64 { return t.Left().Hash() }

// RHash is the derived right-side hash.
func (t *Tuple) RHash() int64 { return t.Right().Hash() }

// IsRightPrincipal reports whether the tuple's right endpoint is a
// principal (used by the optimizer's expansion guards, spec.md §4.8).
func (t *Tuple) IsRightPrincipal() bool { return t.RPrincipalID != "" }

// IsLeftPrincipal reports whether the tuple's left endpoint is a
// principal.
func (t *Tuple) IsLeftPrincipal() bool { return t.LPrincipalID != "" }

// Compose builds the composed tuple spec.md §4.7/§4.8 describe as
// Tuple(t1, t2): left from t1, right from t2, relation from t2, strand
// from t2 (so composed tuples remain themselves composable), carrying
// back-references to both source tuples.
func Compose(spaceID string, t1, t2 *Tuple) *Tuple {
	c := &Tuple{
		ID:           idgen.Next(),
		SpaceID:      spaceID,
		Strand:       t2.Strand,
		LEntityType:  t1.LEntityType,
		LEntityID:    t1.LEntityID,
		LPrincipalID: t1.LPrincipalID,
		Relation:     t2.Relation,
		REntityType:  t2.REntityType,
		REntityID:    t2.REntityID,
		RPrincipalID: t2.RPrincipalID,
		RidL:         t1.ID,
		RidR:         t2.ID,
	}
	c.Sanitise()
	return c
}
