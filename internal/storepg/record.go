package storepg

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ruek-io/ruek/internal/errs"
	"github.com/ruek-io/ruek/internal/record"
)

// RecordStore implements record.Store against the records table (spec.md
// §4.3 C4).
type RecordStore struct {
	Pool *Pool
}

var _ record.Store = RecordStore{}

func (s RecordStore) Store(ctx context.Context, r *record.Record) error {
	attrs, err := marshalAttrs("storepg.Record.Store", r.Attrs)
	if err != nil {
		return err
	}

	return s.Pool.withConn(ctx, "record.store", func(pool *pgxpool.Pool) error {
		row := pool.QueryRow(ctx, `
			insert into records (principal_id, resource_type, resource_id, space_id, attrs, _rev)
			values ($1, $2, $3, $4, $5, 0)
			on conflict (principal_id, resource_type, resource_id) do update
				set (attrs, _rev) = ($5, records._rev + 1)
			returning _rev
		`, r.PrincipalID, r.ResourceType, r.ResourceID, r.SpaceID, attrs)

		if err := row.Scan(&r.Rev); err != nil {
			return wrapErr("storepg.Record.Store", err)
		}
		return nil
	})
}

func (s RecordStore) Discard(ctx context.Context, spaceID string, key record.Key) error {
	err := s.Pool.withConn(ctx, "record.discard", func(pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, `
			delete from records
			where principal_id = $1 and resource_type = $2 and resource_id = $3 and space_id = $4
		`, key.PrincipalID, key.ResourceType, key.ResourceID, spaceID)
		return err
	})
	if err != nil {
		return wrapErr("storepg.Record.Discard", err)
	}
	return nil
}

func (s RecordStore) Lookup(ctx context.Context, spaceID string, key record.Key) (*record.Record, error) {
	var r record.Record
	var attrs []byte

	err := s.Pool.withConn(ctx, "record.lookup", func(pool *pgxpool.Pool) error {
		row := pool.QueryRow(ctx, `
			select principal_id, resource_type, resource_id, space_id, attrs, _rev
			from records
			where principal_id = $1 and resource_type = $2 and resource_id = $3 and space_id = $4
		`, key.PrincipalID, key.ResourceType, key.ResourceID, spaceID)
		return row.Scan(&r.PrincipalID, &r.ResourceType, &r.ResourceID, &r.SpaceID, &attrs, &r.Rev)
	})
	if err != nil {
		return nil, wrapErr("storepg.Record.Lookup", err)
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &r.Attrs); err != nil {
			return nil, errs.New(errs.InvalidData, "storepg.Record.Lookup", "unmarshal attrs: %v", err)
		}
	}
	return &r, nil
}

func (s RecordStore) ListByPrincipal(ctx context.Context, spaceID, principalID string, resourceType, lastID string, limit int) ([]*record.Record, error) {
	q := psql.Select("principal_id", "resource_type", "resource_id", "space_id", "attrs", "_rev").
		From("records").
		Where("space_id = ? and principal_id = ?", spaceID, principalID).
		OrderBy("resource_type desc", "resource_id desc").
		Limit(uint64(limit))
	if resourceType != "" {
		q = q.Where("resource_type = ?", resourceType)
	}
	if lastID != "" {
		q = q.Where("resource_id < ?", lastID)
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var out []*record.Record
	err = s.Pool.withConn(ctx, "record.list_by_principal", func(pool *pgxpool.Pool) error {
		rows, err := pool.Query(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r record.Record
			var attrs []byte
			if err := rows.Scan(&r.PrincipalID, &r.ResourceType, &r.ResourceID, &r.SpaceID, &attrs, &r.Rev); err != nil {
				return err
			}
			if len(attrs) > 0 {
				if err := json.Unmarshal(attrs, &r.Attrs); err != nil {
					return err
				}
			}
			out = append(out, &r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrapErr("storepg.Record.ListByPrincipal", err)
	}
	return out, nil
}

func (s RecordStore) ListByResource(ctx context.Context, spaceID, resourceType, resourceID, lastID string, limit int) ([]*record.Record, error) {
	q := psql.Select("principal_id", "resource_type", "resource_id", "space_id", "attrs", "_rev").
		From("records").
		Where("space_id = ? and resource_type = ? and resource_id = ?", spaceID, resourceType, resourceID).
		OrderBy("principal_id desc").
		Limit(uint64(limit))
	if lastID != "" {
		q = q.Where("principal_id < ?", lastID)
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var out []*record.Record
	err = s.Pool.withConn(ctx, "record.list_by_resource", func(pool *pgxpool.Pool) error {
		rows, err := pool.Query(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r record.Record
			var attrs []byte
			if err := rows.Scan(&r.PrincipalID, &r.ResourceType, &r.ResourceID, &r.SpaceID, &attrs, &r.Rev); err != nil {
				return err
			}
			if len(attrs) > 0 {
				if err := json.Unmarshal(attrs, &r.Attrs); err != nil {
					return err
				}
			}
			out = append(out, &r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrapErr("storepg.Record.ListByResource", err)
	}
	return out, nil
}
