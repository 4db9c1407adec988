package storepg

import (
	"encoding/json"

	sq "github.com/Masterminds/squirrel"

	"github.com/ruek-io/ruek/internal/errs"
)

// psql is the shared squirrel statement builder using Postgres's $N
// placeholder style, the idiom grounding this adapter's query construction
// (the retrieved SpiceDB Postgres datastore builds every statement the
// same way: a package-level `psql` aliasing squirrel.Dollar).
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// marshalAttrs encodes attrs for a jsonb column, passing SQL NULL (a nil
// []byte) when attrs is nil rather than the marshaled JSON literal "null":
// the schema's check constraint (pool.go) requires attrs to be either SQL
// NULL or a JSON object, and json.Marshal(nil map) produces the JSON
// scalar null, which fails that constraint with 23514.
func marshalAttrs(op string, attrs map[string]any) ([]byte, error) {
	if attrs == nil {
		return nil, nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, errs.New(errs.InvalidData, op, "marshal attrs: %v", err)
	}
	return b, nil
}
