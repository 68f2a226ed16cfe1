// Package pgconfig is the Postgres-backed domain.ConfigStore: the set of
// symbols to collect, loaded in one bulk query rather than per exchange, so
// Daemon.Start never issues N roundtrips for N exchanges.
package pgconfig

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ingmarAvocado/fullon-ticker-service/internal/domain"
)

// Store wraps a *sql.DB opened with the pgx stdlib driver.
type Store struct {
	db *sql.DB
}

// Open dials Postgres via the pgx stdlib driver and ensures the schema this
// store depends on exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already-open *sql.DB, useful for tests against a
// pre-provisioned schema.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS exchanges (
  id   INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS symbols (
  exchange_id INTEGER NOT NULL REFERENCES exchanges(id),
  symbol      TEXT NOT NULL,
  only_ticker BOOLEAN NOT NULL DEFAULT false,
  PRIMARY KEY (exchange_id, symbol)
);
`)
	if err != nil {
		return fmt.Errorf("migrate config schema: %w", err)
	}
	return nil
}

// ListAllSymbols loads every configured symbol across every exchange in one
// query: a single join, not one query per exchange. That shape matters —
// Daemon.Start calls this once per cold start and expects a consistent,
// atomic view of the whole symbol set.
func (s *Store) ListAllSymbols(ctx context.Context) ([]domain.SymbolRef, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT e.id, e.name, sy.symbol
FROM symbols sy
JOIN exchanges e ON e.id = sy.exchange_id
ORDER BY e.name, sy.symbol
`)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	defer rows.Close()

	var refs []domain.SymbolRef
	for rows.Next() {
		var ref domain.SymbolRef
		if err := rows.Scan(&ref.ExchangeID, &ref.ExchangeName, &ref.Symbol); err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbol rows: %w", err)
	}
	return refs, nil
}
