package journal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rustyeddy/goldtracker/ledger"
	"github.com/rustyeddy/goldtracker/metrics"
	"github.com/rustyeddy/goldtracker/pkg/errs"
)

const (
	defaultConnectTimeout = 10 * time.Second
	pgUniqueViolation     = "23505"
)

// Postgres stores records in a PostgreSQL database through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgres connects to connURL and applies the schema.
func NewPostgres(ctx context.Context, connURL string) (*Postgres, error) {
	if strings.TrimSpace(connURL) == "" {
		return nil, errs.Invalid("database_url", "empty connection string")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.Unavailable("connect", err)
	}

	p := &Postgres{pool: pool, now: time.Now}
	if err := p.applySchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return p, nil
}

func (p *Postgres) applySchema(ctx context.Context) error {
	for _, stmt := range strings.Split(postgresSchema, ";") {
		sql := strings.TrimSpace(stmt)
		if sql == "" {
			continue
		}
		if _, err := p.pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, sessionID string) ([]ledger.TradeRecord, error) {
	start := time.Now()
	defer func() { metrics.ObserveStoreLatency(metrics.BackendPostgres, "list", time.Since(start)) }()

	rows, err := p.pool.Query(ctx,
		`SELECT `+columns+` FROM trades WHERE session_id = $1 ORDER BY level DESC`, sessionID)
	if err != nil {
		return nil, classifyPG("list", err, errs.QueryFailed)
	}
	defer rows.Close()

	now := p.now()
	var out []ledger.TradeRecord
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, errs.QueryFailed("list", err)
		}
		out = append(out, r.record(now))
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPG("list", err, errs.QueryFailed)
	}
	return out, nil
}

func (p *Postgres) Append(ctx context.Context, sessionID string, rec ledger.TradeRecord) error {
	metrics.IncStoreAppendAttempts(metrics.BackendPostgres)
	start := time.Now()
	err := p.append(ctx, sessionID, rec)
	metrics.ObserveStoreLatency(metrics.BackendPostgres, "append", time.Since(start))
	if err != nil {
		metrics.IncStoreAppendFailures(metrics.BackendPostgres)
	}
	return err
}

func (p *Postgres) append(ctx context.Context, sessionID string, rec ledger.TradeRecord) error {
	args := append([]any{sessionID}, toRow(rec).args()...)
	_, err := p.pool.Exec(ctx, `
		INSERT INTO trades (session_id, `+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`, args...)
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return classifyPG("append", err, errs.WriteFailed)
	}

	stored, err := p.get(ctx, sessionID, rec.Level)
	if err != nil {
		return errs.WriteFailed("append", fmt.Errorf("level %d conflicts: %w", rec.Level, err))
	}
	if !stored.SameContent(rec) {
		return errs.WriteFailed("append", fmt.Errorf("level %d already stored with different content", rec.Level))
	}
	metrics.IncStoreDuplicates(metrics.BackendPostgres)
	return nil
}

func (p *Postgres) get(ctx context.Context, sessionID string, level int) (ledger.TradeRecord, error) {
	r, err := scanRow(p.pool.QueryRow(ctx,
		`SELECT `+columns+` FROM trades WHERE session_id = $1 AND level = $2`, sessionID, level))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.TradeRecord{}, fmt.Errorf("level %d not found", level)
		}
		return ledger.TradeRecord{}, err
	}
	return r.record(p.now()), nil
}

func (p *Postgres) Purge(ctx context.Context, sessionID string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM trades WHERE session_id = $1`, sessionID); err != nil {
		return classifyPG("purge", err, errs.WriteFailed)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// classifyPG reports connection-level failures as unavailable. Errors the
// server answered with keep the given kind.
func classifyPG(op string, err error, kind func(string, error) error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return kind(op, err)
	}
	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errs.Unavailable(op, err)
	case errors.As(err, &connErr), errors.As(err, &netErr), pgconn.Timeout(err), pgconn.SafeToRetry(err):
		return errs.Unavailable(op, err)
	}
	return kind(op, err)
}
