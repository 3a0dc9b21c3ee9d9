package enumerator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/postgres"
)

// Postgres stores the mapping in a table (id, value) shared by every process
// using the same namespace. New ids are assigned under a table lock so they
// stay dense.
type Postgres struct {
	db      *postgres.Client
	table   string
	role    string
	metrics *metrics.Metrics
	flights flights

	mu    sync.RWMutex
	local cache
}

// NewPostgres creates table if needed. table must be a plain identifier.
func NewPostgres(ctx context.Context, db *postgres.Client, table, role string, m *metrics.Metrics) (*Postgres, error) {
	_, err := db.DB.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			id    INTEGER PRIMARY KEY,
			value TEXT NOT NULL UNIQUE
		)`, table))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating enumerator table %s: %w", table, err)
	}
	return &Postgres{db: db, table: table, role: role, metrics: m, local: newCache()}, nil
}

func (e *Postgres) IDOf(s string) (int32, error) {
	e.mu.RLock()
	id, ok := e.local.ids[s]
	e.mu.RUnlock()
	if ok {
		return id, nil
	}
	id, err := e.flights.id(s, func() (int32, error) {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		id, err := e.intern(ctx, s)
		if err != nil {
			return 0, err
		}
		e.mu.Lock()
		e.local.put(s, id)
		e.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return 0, fmt.Errorf("interning %s %q: %w", e.role, s, err)
	}
	return id, nil
}

func (e *Postgres) intern(ctx context.Context, s string) (int32, error) {
	var id int32
	err := e.db.DB.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE value = $1`, e.table), s,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("querying id: %w", err)
	}
	err = e.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`LOCK TABLE %s IN SHARE ROW EXCLUSIVE MODE`, e.table)); err != nil {
			return fmt.Errorf("locking enumerator table: %w", err)
		}
		_, err := tx.ExecContext(ctx, fmt.Sprintf(
			`INSERT INTO %s (id, value)
			 SELECT COALESCE(MAX(id) + 1, 0), $1 FROM %s
			 ON CONFLICT (value) DO NOTHING`, e.table, e.table), s)
		if err != nil {
			return fmt.Errorf("inserting value: %w", err)
		}
		return tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT id FROM %s WHERE value = $1`, e.table), s,
		).Scan(&id)
	})
	return id, err
}

func (e *Postgres) ValueOf(id int32) (string, error) {
	e.mu.RLock()
	s, ok := e.local.values[id]
	e.mu.RUnlock()
	if ok {
		return s, nil
	}
	return e.flights.value(id, func() (string, error) {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		var s string
		err := e.db.DB.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT value FROM %s WHERE id = $1`, e.table), id,
		).Scan(&s)
		if errors.Is(err, sql.ErrNoRows) {
			return "", notFound(e.role, id)
		}
		if err != nil {
			return "", fmt.Errorf("querying value of %s id %d: %w", e.role, id, err)
		}
		e.mu.Lock()
		e.local.put(s, id)
		e.mu.Unlock()
		return s, nil
	})
}

func (e *Postgres) Len() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	var n int
	if err := e.db.DB.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, e.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", e.role, err)
	}
	return n, nil
}

// Save records the size; rows are committed as they are assigned.
func (e *Postgres) Save() error {
	n, err := e.Len()
	if err != nil {
		return err
	}
	e.metrics.SetEnumeratorSize(e.role, n)
	return nil
}

func (e *Postgres) Close() error {
	return e.db.Close()
}
