package storepg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ruek-io/ruek/internal/errs"
	"github.com/ruek-io/ruek/internal/idgen"
	"github.com/ruek-io/ruek/internal/principal"
)

// PrincipalStore implements principal.Store against the principals table
// (spec.md §4.3 C3), grounded on original_source/src/db/principals.cpp's
// revision-guarded upsert statement.
type PrincipalStore struct {
	Pool *Pool
}

var _ principal.Store = PrincipalStore{}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func (s PrincipalStore) Store(ctx context.Context, p *principal.Principal) error {
	if p.ID == "" {
		p.ID = idgen.Next()
	}
	attrs, err := marshalAttrs("storepg.Principal.Store", p.Attrs)
	if err != nil {
		return err
	}

	return s.Pool.withConn(ctx, "principal.store", func(pool *pgxpool.Pool) error {
		row := pool.QueryRow(ctx, `
			insert into principals as t (_rev, id, space_id, parent_id, segment, attrs)
			values ($1, $2, $3, $4, $5, $6)
			on conflict (id) do update
				set (_rev, parent_id, segment, attrs) = (excluded._rev + 1, $4, $5, $6)
				where t._rev = $1
			returning _rev
		`, p.Rev, p.ID, p.SpaceID, nullString(p.ParentID), p.Segment, attrs)

		var newRev int
		if err := row.Scan(&newRev); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.New(errs.RevisionMismatch, "storepg.Principal.Store", "stale revision %d", p.Rev)
			}
			return wrapErr("storepg.Principal.Store", err)
		}
		p.Rev = newRev
		return nil
	})
}

func (s PrincipalStore) Retrieve(ctx context.Context, spaceID, id string) (*principal.Principal, error) {
	var p principal.Principal
	var parentID sql.NullString
	var attrs []byte

	err := s.Pool.withConn(ctx, "principal.retrieve", func(pool *pgxpool.Pool) error {
		row := pool.QueryRow(ctx, `
			select id, space_id, parent_id, segment, attrs, _rev
			from principals
			where id = $1 and space_id = $2
		`, id, spaceID)
		return row.Scan(&p.ID, &p.SpaceID, &parentID, &p.Segment, &attrs, &p.Rev)
	})
	if err != nil {
		return nil, wrapErr("storepg.Principal.Retrieve", err)
	}

	p.ParentID = parentID.String
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &p.Attrs); err != nil {
			return nil, errs.New(errs.InvalidData, "storepg.Principal.Retrieve", "unmarshal attrs: %v", err)
		}
	}
	return &p, nil
}

func (s PrincipalStore) Discard(ctx context.Context, spaceID, id string) (bool, error) {
	var existed bool
	err := s.Pool.withConn(ctx, "principal.discard", func(pool *pgxpool.Pool) error {
		tag, err := pool.Exec(ctx, `delete from principals where id = $1 and space_id = $2`, id, spaceID)
		if err != nil {
			return err
		}
		existed = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		werr := wrapErr("storepg.Principal.Discard", err)
		if errs.Is(werr, errs.InvalidParentId) {
			// A child principal still references this one: any remaining
			// reference refuses the delete with InvalidKey.
			return false, errs.Wrap(errs.InvalidKey, "storepg.Principal.Discard", err)
		}
		return false, werr
	}
	return existed, nil
}

func (s PrincipalStore) ListChildren(ctx context.Context, spaceID, parentID string, lastID string, limit int) ([]*principal.Principal, error) {
	q := psql.Select("id", "space_id", "parent_id", "segment", "attrs", "_rev").
		From("principals").
		Where("space_id = ? and parent_id = ?", spaceID, parentID).
		OrderBy("id asc").
		Limit(uint64(limit))
	if lastID != "" {
		q = q.Where("id > ?", lastID)
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var out []*principal.Principal
	err = s.Pool.withConn(ctx, "principal.list_children", func(pool *pgxpool.Pool) error {
		rows, err := pool.Query(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p principal.Principal
			var parentID sql.NullString
			var attrs []byte
			if err := rows.Scan(&p.ID, &p.SpaceID, &parentID, &p.Segment, &attrs, &p.Rev); err != nil {
				return err
			}
			p.ParentID = parentID.String
			if len(attrs) > 0 {
				if err := json.Unmarshal(attrs, &p.Attrs); err != nil {
					return err
				}
			}
			out = append(out, &p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrapErr("storepg.Principal.ListChildren", err)
	}
	return out, nil
}
