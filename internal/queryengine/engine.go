package queryengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Canceller reports whether the monitor's cooperative cancel flag has
// tripped. Accepting the narrow interface here (rather than importing the
// monitor package) keeps the query boundary decoupled from the watchdog
// that drives it.
type Canceller interface {
	Cancelled() bool
}

type noCanceller struct{}

func (noCanceller) Cancelled() bool { return false }

// Engine is the sole SQL execution boundary. It never receives
// string-concatenated user values: callers pass parameterized SQL text and
// a matching args slice.
type Engine struct {
	db        *sql.DB
	canceller Canceller
	// StatementTimeout bounds each individual query; zero disables it.
	StatementTimeout time.Duration
}

// New builds an Engine over an already-opened *sql.DB. canceller may be nil,
// in which case queries are never cooperatively cancelled early.
func New(db *sql.DB, canceller Canceller, statementTimeout time.Duration) *Engine {
	if canceller == nil {
		canceller = noCanceller{}
	}
	return &Engine{db: db, canceller: canceller, StatementTimeout: statementTimeout}
}

func (e *Engine) checkCancel(op, sqlText string) error {
	if e.canceller.Cancelled() {
		return &Error{Kind: KindTimeout, Op: op, SQL: sqlText, Err: errors.New("cancelled before dispatch")}
	}
	return nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.StatementTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.StatementTimeout)
}

// Count executes "SELECT COUNT(*) ..." (or any single-row, single-column
// aggregate query) and returns the unsigned result.
func (e *Engine) Count(ctx context.Context, sqlText string, args []any) (uint64, error) {
	if err := e.checkCancel("count", sqlText); err != nil {
		return 0, err
	}
	qctx, cancel := e.withTimeout(ctx)
	defer cancel()

	var n int64
	err := e.db.QueryRowContext(qctx, sqlText, args...).Scan(&n)
	if err != nil {
		return 0, classify("count", sqlText, err)
	}
	if n < 0 {
		n = 0
	}
	return uint64(n), nil
}

// CountDistinct executes "SELECT COUNT(DISTINCT expr, ...) ...". exprList
// is informational (used for cache keys / logging) since the projection is
// already baked into sqlText by the validator's SQL compiler.
func (e *Engine) CountDistinct(ctx context.Context, exprList []string, sqlText string, args []any) (uint64, error) {
	return e.Count(ctx, sqlText, args)
}

// SampleValues streams up to n value hashes from relation.column, used by
// the catalog to build the reservoir for cross-column overlap estimation.
// It closes the returned channel when done or on error. Only a failure to
// start the query is reported through the returned error; a scan error
// while streaming ends the stream early and is not reported.
func (e *Engine) SampleValues(ctx context.Context, relation, column string, n int) (<-chan uint64, error) {
	sqlText := fmt.Sprintf(`SELECT %s FROM %s WHERE %s IS NOT NULL LIMIT %d`,
		quoteIdent(column), quoteIdent(relation), quoteIdent(column), n)
	if err := e.checkCancel("sample_values", sqlText); err != nil {
		return nil, err
	}
	qctx, cancel := e.withTimeout(ctx)

	rows, err := e.db.QueryContext(qctx, sqlText)
	if err != nil {
		cancel()
		return nil, classify("sample_values", sqlText, err)
	}

	out := make(chan uint64)
	go func() {
		defer cancel()
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			var v any
			if err := rows.Scan(&v); err != nil {
				return
			}
			h := xxhash.Sum64String(fmt.Sprintf("%v", v))
			select {
			case out <- h:
			case <-qctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

func classify(op, sqlText string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, SQL: sqlText, Err: err}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Kind: KindSchema, Op: op, SQL: sqlText, Err: err}
	}
	return &Error{Kind: KindDriver, Op: op, SQL: sqlText, Err: err}
}
