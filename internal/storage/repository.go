package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrInvalidSymbol rejects blank symbols.
	ErrInvalidSymbol = errors.New("storage: symbol must not be empty")
)

const (
	ensureSchemaSQL = `CREATE TABLE IF NOT EXISTS watchlist (
        symbol   TEXT PRIMARY KEY,
        note     TEXT NOT NULL DEFAULT '',
        added_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	upsertWatchedSQL = `INSERT INTO watchlist (symbol, note)
    VALUES ($1, $2)
    ON CONFLICT (symbol) DO UPDATE
    SET note = EXCLUDED.note
    RETURNING symbol, note, added_at;`

	listWatchlistSQL = `SELECT symbol, note, added_at
    FROM watchlist
    ORDER BY symbol;`

	deleteWatchedSQL = `DELETE FROM watchlist WHERE symbol = $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// WatchlistStore defines operations over the tracked symbol list.
type WatchlistStore interface {
	ListWatchlist(ctx context.Context) ([]WatchedSymbol, error)
	AddToWatchlist(ctx context.Context, symbol, note string) (WatchedSymbol, error)
	RemoveFromWatchlist(ctx context.Context, symbol string) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store is the Postgres-backed watchlist.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// EnsureSchema creates the watchlist table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, ensureSchemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// The lock dies with the session anyway, so a failed unlock is not fatal.
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

// ListWatchlist lists tracked symbols in alphabetical order.
func (s *Store) ListWatchlist(ctx context.Context) ([]WatchedSymbol, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listWatchlistSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list watchlist: %w", queryErr)
	}
	defer rows.Close()

	symbols := make([]WatchedSymbol, 0)
	for rows.Next() {
		w, scanErr := scanWatched(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		symbols = append(symbols, w)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return symbols, nil
}

// AddToWatchlist inserts a symbol or updates its note.
func (s *Store) AddToWatchlist(ctx context.Context, symbol, note string) (WatchedSymbol, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return WatchedSymbol{}, err
	}
	pool, err := s.getPool()
	if err != nil {
		return WatchedSymbol{}, err
	}

	w, scanErr := scanWatched(pool.QueryRow(ctx, upsertWatchedSQL, symbol, note))
	if scanErr != nil {
		return WatchedSymbol{}, fmt.Errorf("add to watchlist: %w", scanErr)
	}
	return w, nil
}

// RemoveFromWatchlist deletes a symbol; pgx.ErrNoRows when it was not tracked.
func (s *Store) RemoveFromWatchlist(ctx context.Context, symbol string) error {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return err
	}
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	cmdTag, execErr := pool.Exec(ctx, deleteWatchedSQL, symbol)
	if execErr != nil {
		return fmt.Errorf("remove from watchlist: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", ErrInvalidSymbol
	}
	return symbol, nil
}

func scanWatched(row pgx.Row) (WatchedSymbol, error) {
	var w WatchedSymbol
	if err := row.Scan(&w.Symbol, &w.Note, &w.AddedAt); err != nil {
		return WatchedSymbol{}, err
	}
	return w, nil
}

var (
	_ WatchlistStore = (*Store)(nil)
	_ AdvisoryLocker = (*Store)(nil)
)
