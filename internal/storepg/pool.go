// Package storepg implements the C2 storage adapter (spec.md §4.2, §5): a
// *pgxpool.Pool guarded by a timed mutex acquire, reconnecting once on a
// broken-connection signal before surfacing errs.ConnectionUnavailable.
// This generalizes the teacher's sync.RWMutex-guarded DoltStore
// (internal/storage/dolt/store.go) to pgx's pool-native connection model,
// keeping the teacher's exponential-backoff reconnect idiom.
package storepg

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/semaphore"

	"github.com/ruek-io/ruek/internal/errs"
)

// reconnectMaxElapsed bounds the one-shot pool reopen the teacher applies
// to dolt server-mode reconnects (internal/storage/dolt/store.go's
// serverRetryMaxElapsed), scaled down since storepg reopens once, not on
// every retryable query.
const reconnectMaxElapsed = 10 * time.Second

var meter = otel.Meter("github.com/ruek-io/ruek/internal/storepg")

var (
	opDuration, _ = meter.Float64Histogram(
		"ruek_storepg_op_duration_ms",
		metric.WithDescription("storage operation duration in milliseconds"),
	)
	opErrors, _ = meter.Int64Counter(
		"ruek_storepg_op_errors_total",
		metric.WithDescription("count of storage operations that returned an error"),
	)
)

// Pool wraps a pgxpool.Pool with the timed-acquire mutex of spec.md §5:
// "each operation acquires a timed mutex on the shared connection
// resource... On timeout, the operation fails with Timeout."
type Pool struct {
	dsn  string
	pool *pgxpool.Pool
	sem  *semaphore.Weighted

	// AcquireTimeout is the per-process mutex timeout (spec.md §5 default
	// 1 second).
	AcquireTimeout time.Duration
}

// Option configures a Pool at Open time.
type Option func(*Pool)

// WithAcquireTimeout overrides the default 1-second acquire timeout
// (spec.md §4.2/§5, RUEK_OP_TIMEOUT in SPEC_FULL.md's external
// interfaces).
func WithAcquireTimeout(d time.Duration) Option {
	return func(p *Pool) { p.AcquireTimeout = d }
}

// Open connects to dsn and verifies connectivity before returning.
func Open(ctx context.Context, dsn string, opts ...Option) (*Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.New(errs.ConnectionUnavailable, "storepg.Open", "connect: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.New(errs.ConnectionUnavailable, "storepg.Open", "ping: %v", err)
	}
	p := &Pool{dsn: dsn, pool: pool, sem: semaphore.NewWeighted(1), AcquireTimeout: time.Second}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Close releases the underlying pool.
func (p *Pool) Close() { p.pool.Close() }

// SchemaDDL is the relational schema from SPEC_FULL.md §3: the
// principals/records/tuples tables and indexes every query in this
// package assumes exist. Shared by cmd/ruekd's migrate subcommand and
// the integration test suite's ephemeral containers.
const SchemaDDL = `
create table if not exists principals (
    id         text primary key,
    space_id   text not null default '',
    parent_id  text references principals(id),
    segment    text,
    attrs      jsonb check (attrs is null or jsonb_typeof(attrs) = 'object'),
    _rev       integer not null default 0
);
create unique index if not exists principals_id_space_idx on principals(id, space_id);
create index if not exists principals_parent_idx on principals(space_id, parent_id);

create table if not exists records (
    principal_id  text not null references principals(id),
    resource_type text not null,
    resource_id   text not null,
    space_id      text not null default '',
    attrs         jsonb check (attrs is null or jsonb_typeof(attrs) = 'object'),
    _rev          integer not null default 0,
    primary key (principal_id, resource_type, resource_id)
);

create table if not exists tuples (
    _id            text primary key,
    _rev           integer not null default 0,
    space_id       text not null default '',
    strand         text not null default '',
    l_entity_type  text not null,
    l_entity_id    text not null,
    l_principal_id text references principals(id),
    relation       text not null,
    r_entity_type  text not null,
    r_entity_id    text not null,
    r_principal_id text references principals(id),
    attrs          jsonb check (attrs is null or jsonb_typeof(attrs) = 'object'),
    rid_l          text references tuples(_id),
    rid_r          text references tuples(_id),
    _l_hash        bigint not null,
    _r_hash        bigint not null
);
create unique index if not exists tuples_composite_idx
    on tuples(space_id, strand, l_entity_type, l_entity_id, relation, r_entity_type, r_entity_id);
create index if not exists tuples_l_hash_idx on tuples(space_id, _l_hash desc);
create index if not exists tuples_r_hash_idx on tuples(space_id, _r_hash desc);
`

// Exec runs sql (e.g. schema DDL) through the same guarded acquire/
// reconnect path as every store adapter, for callers outside this package
// that need direct access (cmd/ruekd's migrate subcommand).
func (p *Pool) Exec(ctx context.Context, sql string, args ...any) error {
	return p.withConn(ctx, "pool.exec", func(pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, sql, args...)
		return err
	})
}

// acquire blocks for at most AcquireTimeout waiting for the single
// connection slot, then hands back the live pool and a release func.
func (p *Pool) acquire(ctx context.Context) (*pgxpool.Pool, func(), error) {
	actx, cancel := context.WithTimeout(ctx, p.AcquireTimeout)
	defer cancel()

	if err := p.sem.Acquire(actx, 1); err != nil {
		return nil, nil, errs.New(errs.Timeout, "storepg.acquire", "timed out waiting for connection slot")
	}
	return p.pool, func() { p.sem.Release(1) }, nil
}

// reopen closes the pool and reconnects it, retrying the dial with the
// teacher's exponential-backoff idiom for up to reconnectMaxElapsed.
// withConn calls it at most once per operation, not per query retry.
func (p *Pool) reopen(ctx context.Context) error {
	p.pool.Close()

	op := func() error {
		pool, err := pgxpool.New(ctx, p.dsn)
		if err != nil {
			return err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return err
		}
		p.pool = pool
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = reconnectMaxElapsed
	if err := backoff.Retry(op, bo); err != nil {
		return errs.New(errs.ConnectionUnavailable, "storepg.reopen", "reconnect failed: %v", err)
	}
	return nil
}

// isBrokenConnection reports whether err signals a dead connection that
// warrants the one-shot pool reopen (spec.md §4.2's C2 note: pgconn class
// 08 "connection exception" codes, or a pool that refuses new work).
func isBrokenConnection(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "08") {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "closed pool") || strings.Contains(msg, "conn closed") || strings.Contains(msg, "broken pipe")
}

// withConn runs fn with an acquired connection slot, instrumenting the
// call and transparently reopening the pool once if fn's error looks like
// a broken connection.
func (p *Pool) withConn(ctx context.Context, op string, fn func(*pgxpool.Pool) error) error {
	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("op", op))

	runOnce := func() error {
		pool, release, err := p.acquire(ctx)
		if err != nil {
			return err
		}
		defer release()
		return fn(pool)
	}

	err := runOnce()
	if err != nil && isBrokenConnection(err) {
		if reopenErr := p.reopen(ctx); reopenErr != nil {
			err = reopenErr
		} else {
			err = runOnce()
		}
	}

	opDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	if err != nil {
		opErrors.Add(ctx, 1, attrs)
	}
	return err
}
