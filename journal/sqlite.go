package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/goldtracker/ledger"
	"github.com/rustyeddy/goldtracker/metrics"
	"github.com/rustyeddy/goldtracker/pkg/errs"
)

// SQLite stores records in a local SQLite file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (or creates) the database at path and applies the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.Unavailable("open", err)
	}
	// One connection keeps ":memory:" databases whole and writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errs.Unavailable("schema", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) List(ctx context.Context, sessionID string) ([]ledger.TradeRecord, error) {
	start := time.Now()
	defer func() { metrics.ObserveStoreLatency(metrics.BackendSQLite, "list", time.Since(start)) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM trades WHERE session_id = ? ORDER BY level DESC`, sessionID)
	if err != nil {
		return nil, classifySQLite("list", err, errs.QueryFailed)
	}
	defer rows.Close()

	now := s.now()
	var out []ledger.TradeRecord
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, errs.QueryFailed("list", err)
		}
		out = append(out, r.record(now))
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQLite("list", err, errs.QueryFailed)
	}
	return out, nil
}

func (s *SQLite) Append(ctx context.Context, sessionID string, rec ledger.TradeRecord) error {
	metrics.IncStoreAppendAttempts(metrics.BackendSQLite)
	start := time.Now()
	err := s.append(ctx, sessionID, rec)
	metrics.ObserveStoreLatency(metrics.BackendSQLite, "append", time.Since(start))
	if err != nil {
		metrics.IncStoreAppendFailures(metrics.BackendSQLite)
	}
	return err
}

func (s *SQLite) append(ctx context.Context, sessionID string, rec ledger.TradeRecord) error {
	args := append([]any{sessionID}, toRow(rec).args()...)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (session_id, `+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err == nil {
		return nil
	}
	if !isSQLiteDuplicate(err) {
		return classifySQLite("append", err, errs.WriteFailed)
	}

	stored, err := s.get(ctx, sessionID, rec.Level)
	if err != nil {
		return errs.WriteFailed("append", fmt.Errorf("level %d conflicts: %w", rec.Level, err))
	}
	if !stored.SameContent(rec) {
		return errs.WriteFailed("append", fmt.Errorf("level %d already stored with different content", rec.Level))
	}
	metrics.IncStoreDuplicates(metrics.BackendSQLite)
	return nil
}

func (s *SQLite) get(ctx context.Context, sessionID string, level int) (ledger.TradeRecord, error) {
	r, err := scanRow(s.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM trades WHERE session_id = ? AND level = ?`, sessionID, level))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.TradeRecord{}, fmt.Errorf("level %d not found", level)
		}
		return ledger.TradeRecord{}, err
	}
	return r.record(s.now()), nil
}

func (s *SQLite) Purge(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM trades WHERE session_id = ?`, sessionID); err != nil {
		return classifySQLite("purge", err, errs.WriteFailed)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func isSQLiteDuplicate(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// classifySQLite reports a locked or unreachable database as unavailable and
// everything else with the given kind.
func classifySQLite(op string, err error, kind func(string, error) error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errs.Unavailable(op, err)
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen:
			return errs.Unavailable(op, err)
		}
	}
	return kind(op, err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (row, error) {
	var r row
	err := sc.Scan(
		&r.ID,
		&r.Level,
		&r.StartingBalance,
		&r.RiskPercentage,
		&r.RiskAmount,
		&r.ProfitGoal,
		&r.Pips,
		&r.LotSize,
		&r.Result,
		&r.WinAmount,
		&r.LossAmount,
		&r.RewardRatio,
		&r.CreatedAt,
		&r.EndingBalance,
	)
	return r, err
}

// args lists the row values in column order.
func (r row) args() []any {
	return []any{
		r.ID,
		r.Level,
		r.StartingBalance,
		r.RiskPercentage,
		r.RiskAmount,
		r.ProfitGoal,
		r.Pips,
		r.LotSize,
		r.Result,
		r.WinAmount,
		r.LossAmount,
		r.RewardRatio,
		r.CreatedAt,
		r.EndingBalance,
	}
}
