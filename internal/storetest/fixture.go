package storetest

import (
	"github.com/ruek-io/ruek/internal/principal"
	"github.com/ruek-io/ruek/internal/record"
	"github.com/ruek-io/ruek/internal/tuple"
)

// Fixture bundles the three store adapters over a single shared Backend,
// matching how a real process would construct one connection pool and
// hand each repository a view of it.
type Fixture struct {
	Backend    *Backend
	Principals principal.Store
	Records    record.Store
	Tuples     tuple.Store
}

// NewFixture builds a ready-to-use in-memory fixture.
func NewFixture() *Fixture {
	b := New()
	return &Fixture{
		Backend:    b,
		Principals: PrincipalStore{B: b},
		Records:    RecordStore{B: b},
		Tuples:     TupleStore{B: b},
	}
}
