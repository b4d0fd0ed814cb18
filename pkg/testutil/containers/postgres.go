//go:build integration

// Package containers manages shared test containers. Containers are started
// once per test binary and reused across suites; Ryuk reaps them when the
// run ends.
package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema mirrors the production migrations. The partial unique index backs
// the one-open-register rule enforced by the cash session store.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS cash_sessions (
	id              UUID PRIMARY KEY,
	kind            TEXT NOT NULL,
	description     TEXT NOT NULL,
	opening_balance NUMERIC(19,4) NOT NULL,
	total_balance   NUMERIC(19,4) NOT NULL,
	bank_agency     TEXT,
	bank_account    TEXT,
	opened_by       UUID NOT NULL,
	opened_at       TIMESTAMPTZ NOT NULL,
	closed_at       TIMESTAMPTZ,
	closing_balance NUMERIC(19,4)
);

CREATE UNIQUE INDEX IF NOT EXISTS one_open_register
	ON cash_sessions (kind)
	WHERE kind = 'REGISTER' AND closed_at IS NULL;

CREATE TABLE IF NOT EXISTS ledger_entries (
	id          UUID PRIMARY KEY,
	session_id  UUID NOT NULL REFERENCES cash_sessions (id),
	amount      NUMERIC(19,4) NOT NULL,
	description TEXT NOT NULL,
	recorded_by UUID NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS payable_installments (
	id               UUID PRIMARY KEY,
	invoice_id       UUID NOT NULL,
	original_amount  NUMERIC(19,4) NOT NULL,
	remaining_amount NUMERIC(19,4) NOT NULL,
	paid_amount      NUMERIC(19,4) NOT NULL,
	settled          BOOLEAN NOT NULL,
	due_date         TIMESTAMPTZ NOT NULL
);
`

// PostgresContainer wraps a testcontainers Postgres instance with the schema
// applied and an open connection pool.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// Manager shares containers across test suites in one binary.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
}

var manager = &Manager{}

func GetManager() *Manager {
	return manager
}

// GetPostgres returns the shared Postgres container, starting it on first use.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.postgres == nil {
		m.postgres = newPostgresContainer(t)
	}
	return m.postgres
}

func newPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("tillbook_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Container is shared across suites; Ryuk handles teardown.
	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateTables empties the given tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	_, err := p.DB.ExecContext(ctx, query)
	return err
}
