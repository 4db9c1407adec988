package storepg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ruek-io/ruek/internal/errs"
	"github.com/ruek-io/ruek/internal/idgen"
	"github.com/ruek-io/ruek/internal/tuple"
)

// TupleStore implements tuple.Store against the tuples table (spec.md
// §4.4 C5), its upsert grounded directly on
// original_source/src/db/tuples.cpp's Tuple::store() statement and its
// listing queries on tuplets.cpp's TupletsList hash/strand projection.
type TupleStore struct {
	Pool *Pool
}

var _ tuple.Store = TupleStore{}

func (s TupleStore) Store(ctx context.Context, t *tuple.Tuple) error {
	t.Sanitise()
	if t.ID == "" {
		t.ID = idgen.Next()
	}
	attrs, err := marshalAttrs("storepg.Tuple.Store", t.Attrs)
	if err != nil {
		return err
	}

	return s.Pool.withConn(ctx, "tuple.store", func(pool *pgxpool.Pool) error {
		row := pool.QueryRow(ctx, `
			insert into tuples as t (
				_id, _rev, space_id, strand,
				l_entity_type, l_entity_id, l_principal_id,
				relation,
				r_entity_type, r_entity_id, r_principal_id,
				attrs, rid_l, rid_r, _l_hash, _r_hash
			) values (
				$1, $2, $3, $4,
				$5, $6, $7,
				$8,
				$9, $10, $11,
				$12, $13, $14, $15, $16
			)
			on conflict (_id) do update
				set (attrs, _rev) = ($12, excluded._rev + 1)
				where t._rev = $2
			returning _rev
		`,
			t.ID, t.Rev, t.SpaceID, t.Strand,
			t.LEntityType, t.LEntityID, nullString(t.LPrincipalID),
			t.Relation,
			t.REntityType, t.REntityID, nullString(t.RPrincipalID),
			attrs, nullString(t.RidL), nullString(t.RidR), t.LHash(), t.RHash(),
		)

		var newRev int
		if err := row.Scan(&newRev); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.New(errs.RevisionMismatch, "storepg.Tuple.Store", "stale revision %d", t.Rev)
			}
			return wrapErr("storepg.Tuple.Store", err)
		}
		t.Rev = newRev
		return nil
	})
}

func (s TupleStore) Discard(ctx context.Context, spaceID, id string) error {
	err := s.Pool.withConn(ctx, "tuple.discard", func(pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, `delete from tuples where _id = $1 and space_id = $2`, id, spaceID)
		return err
	})
	if err != nil {
		return wrapErr("storepg.Tuple.Discard", err)
	}
	return nil
}

func scanTuple(row interface{ Scan(...any) error }) (*tuple.Tuple, error) {
	var t tuple.Tuple
	var lPrincipalID, rPrincipalID, ridL, ridR sql.NullString
	var attrs []byte

	if err := row.Scan(
		&t.ID, &t.Rev, &t.SpaceID, &t.Strand,
		&t.LEntityType, &t.LEntityID, &lPrincipalID,
		&t.Relation,
		&t.REntityType, &t.REntityID, &rPrincipalID,
		&attrs, &ridL, &ridR,
	); err != nil {
		return nil, err
	}

	t.LPrincipalID = lPrincipalID.String
	t.RPrincipalID = rPrincipalID.String
	t.RidL = ridL.String
	t.RidR = ridR.String
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &t.Attrs); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

const tupleColumns = "_id, _rev, space_id, strand, l_entity_type, l_entity_id, l_principal_id, relation, r_entity_type, r_entity_id, r_principal_id, attrs, rid_l, rid_r"

func (s TupleStore) Retrieve(ctx context.Context, spaceID, id string) (*tuple.Tuple, error) {
	var t *tuple.Tuple
	err := s.Pool.withConn(ctx, "tuple.retrieve", func(pool *pgxpool.Pool) error {
		row := pool.QueryRow(ctx, "select "+tupleColumns+" from tuples where _id = $1 and space_id = $2", id, spaceID)
		var err error
		t, err = scanTuple(row)
		return err
	})
	if err != nil {
		return nil, wrapErr("storepg.Tuple.Retrieve", err)
	}
	return t, nil
}

func (s TupleStore) Lookup(ctx context.Context, spaceID string, left, right tuple.Entity, relation, strand *string) (*tuple.Tuple, error) {
	q := psql.Select(splitCols(tupleColumns)...).From("tuples").
		Where(sq.Eq{
			"space_id":      spaceID,
			"l_entity_type": left.Type, "l_entity_id": left.ID,
			"r_entity_type": right.Type, "r_entity_id": right.ID,
		}).
		Limit(1)
	if relation != nil {
		q = q.Where(sq.Eq{"relation": *relation})
	}
	if strand != nil {
		q = q.Where(sq.Eq{"strand": *strand})
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var t *tuple.Tuple
	err = s.Pool.withConn(ctx, "tuple.lookup", func(pool *pgxpool.Pool) error {
		row := pool.QueryRow(ctx, sqlStr, args...)
		var err error
		t, err = scanTuple(row)
		return err
	})
	if err != nil {
		return nil, wrapErr("storepg.Tuple.Lookup", err)
	}
	return t, nil
}

func (s TupleStore) ListLeft(ctx context.Context, spaceID string, right tuple.Entity, f tuple.ListFilter) ([]*tuple.Tuple, error) {
	q := psql.Select(splitCols(tupleColumns)...).From("tuples").
		Where(sq.Eq{"space_id": spaceID, "r_entity_type": right.Type, "r_entity_id": right.ID}).
		OrderBy("_l_hash desc", "l_entity_id asc").
		Limit(uint64(f.Limit))
	q = applyListFilter(q, f, "_l_hash", "l_entity_id")
	return s.queryTuples(ctx, "tuple.list_left", q)
}

func (s TupleStore) ListRight(ctx context.Context, spaceID string, left tuple.Entity, f tuple.ListFilter) ([]*tuple.Tuple, error) {
	q := psql.Select(splitCols(tupleColumns)...).From("tuples").
		Where(sq.Eq{"space_id": spaceID, "l_entity_type": left.Type, "l_entity_id": left.ID}).
		OrderBy("_r_hash desc", "r_entity_id asc").
		Limit(uint64(f.Limit))
	q = applyListFilter(q, f, "_r_hash", "r_entity_id")
	return s.queryTuples(ctx, "tuple.list_right", q)
}

// applyListFilter adds the optional relation/strand equality filters and,
// when a cursor is present, a compound keyset predicate. The listing is
// sorted by (hashColumn DESC, idColumn ASC), and since the entity id (a
// sortable id, per spec.md §4.1) is uncorrelated with its FNV-1a hash, a
// cursor on idColumn alone would skip or duplicate rows across pages
// (spec.md §8's "page size 1 covers the same set as one large page").
// The correct "strictly after" predicate for this sort order is:
//
//	hashColumn < lastHash OR (hashColumn = lastHash AND idColumn > lastID)
func applyListFilter(q sq.SelectBuilder, f tuple.ListFilter, hashColumn, idColumn string) sq.SelectBuilder {
	if f.Relation != nil {
		q = q.Where(sq.Eq{"relation": *f.Relation})
	}
	if f.Strand != nil {
		q = q.Where(sq.Eq{"strand": *f.Strand})
	}
	if f.LastID != "" {
		q = q.Where(
			fmt.Sprintf("(%s < ? or (%s = ? and %s > ?))", hashColumn, hashColumn, idColumn),
			f.LastHash, f.LastHash, f.LastID,
		)
	}
	return q
}

func (s TupleStore) queryTuples(ctx context.Context, op string, q sq.SelectBuilder) ([]*tuple.Tuple, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var out []*tuple.Tuple
	err = s.Pool.withConn(ctx, op, func(pool *pgxpool.Pool) error {
		rows, err := pool.Query(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			t, err := scanTuple(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return out, nil
}

// TupletsList mirrors tuplets.cpp's TupletsList: when left is given, the
// projection's hash column is _r_hash and strand is not carried (the
// fan-out direction has no meaningful strand); when right is given, hash
// is _l_hash and strand is carried through.
func (s TupleStore) TupletsList(ctx context.Context, spaceID string, left, right *tuple.Entity, f tuple.ListFilter) ([]tuple.Tuplet, error) {
	if err := tuple.ValidateListArgs(left, right); err != nil {
		return nil, err
	}

	var hashCol, strandExpr string
	var whereType, whereID string
	var entity tuple.Entity
	if left != nil {
		hashCol, strandExpr = "_r_hash", "''"
		whereType, whereID = "l_entity_type", "l_entity_id"
		entity = *left
	} else {
		hashCol, strandExpr = "_l_hash", "strand"
		whereType, whereID = "r_entity_type", "r_entity_id"
		entity = *right
	}

	q := psql.Select("_id", hashCol+" as hash", "relation", strandExpr+" as strand").
		From("tuples").
		Where(sq.Eq{"space_id": spaceID, whereType: entity.Type, whereID: entity.ID}).
		OrderBy("hash desc").
		Limit(uint64(f.Limit))
	if f.Relation != nil {
		q = q.Where(sq.Eq{"relation": *f.Relation})
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var out []tuple.Tuplet
	err = s.Pool.withConn(ctx, "tuple.tuplets_list", func(pool *pgxpool.Pool) error {
		rows, err := pool.Query(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var tl tuple.Tuplet
			if err := rows.Scan(&tl.ID, &tl.Hash, &tl.Relation, &tl.Strand); err != nil {
				return err
			}
			out = append(out, tl)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrapErr("storepg.Tuple.TupletsList", err)
	}
	return out, nil
}

func splitCols(cols string) []string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
