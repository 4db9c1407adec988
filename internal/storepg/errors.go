package storepg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ruek-io/ruek/internal/errs"
)

// Postgres error codes this adapter distinguishes, generalizing the
// teacher's wrapDBError (internal/storage/sqlite/errors.go) from sql.ErrNoRows
// to pgx's pgconn.PgError class codes.
const (
	pgCodeUniqueViolation     = "23505"
	pgCodeForeignKeyViolation = "23503"
	pgCodeCheckViolation      = "23514"
)

// wrapErr converts a pgx/pgconn error into the typed errs.Kind taxonomy,
// the generalized form of the teacher's wrapDBErrorf.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errs.Code(err) != "" {
		// Already typed (e.g. Timeout from Pool.acquire): keep its kind.
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.New(errs.NotFound, op, "not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeUniqueViolation:
			return errs.New(errs.AlreadyExists, op, "%s", pgErr.Message)
		case pgCodeForeignKeyViolation:
			return errs.Wrap(foreignKeyKind(pgErr), op, err)
		case pgCodeCheckViolation:
			return errs.New(errs.InvalidData, op, "%s", pgErr.Message)
		}
	}

	return errs.Wrap(errs.ConnectionUnavailable, op, err)
}

// foreignKeyKind distinguishes a principal-parent violation (principals
// table self-reference) from a tuple-endpoint violation (tuples
// referencing principals), per spec.md §7's InvalidParentId vs InvalidKey
// split. Both point at the same Postgres error class, so the distinction
// is made by which constraint fired.
func foreignKeyKind(pgErr *pgconn.PgError) errs.Kind {
	switch pgErr.ConstraintName {
	case "principals_parent_id_fkey":
		return errs.InvalidParentId
	default:
		return errs.InvalidKey
	}
}
