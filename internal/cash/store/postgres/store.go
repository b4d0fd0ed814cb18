// Package postgres persists cash sessions and ledger entries in PostgreSQL.
// Pure I/O; all business rules live in the service layer. The one-open-
// register invariant is backed by a partial unique index so the existence
// check and the insert are a single atomic unit:
//
//	CREATE UNIQUE INDEX cash_sessions_one_open_register
//	    ON cash_sessions (kind) WHERE kind = 'REGISTER' AND closed_at IS NULL;
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"tillbook/internal/cash/models"
	"tillbook/pkg/platform/sentinel"
	"tillbook/pkg/platform/tx"
)

const sessionColumns = `id, kind, description, opening_balance, total_balance,
	bank_agency, bank_account, opened_by, opened_at, closed_at, closing_balance`

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new session. The partial unique index rejects a second
// open REGISTER; that constraint violation surfaces as sentinel.ErrConflict.
func (s *Store) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO cash_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, query,
		session.ID, session.Kind, session.Description,
		session.OpeningBalance, session.TotalBalance,
		nullString(session.BankAgency), nullString(session.BankAccount),
		session.OpenedBy, session.OpenedAt, session.ClosedAt, session.ClosingBalance,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create cash session: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM cash_sessions WHERE id = $1`
	return s.scanOne(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, id), "find cash session")
}

func (s *Store) FindOpenRegister(ctx context.Context) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM cash_sessions
		WHERE kind = $1 AND closed_at IS NULL
		LIMIT 1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, models.KindRegister), "find open register")
}

func (s *Store) FindOpenByUser(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM cash_sessions
		WHERE opened_by = $1 AND closed_at IS NULL
		ORDER BY opened_at DESC
		LIMIT 1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, userID), "find open session by user")
}

// Execute runs validate-then-mutate on one session inside a transaction,
// holding a row lock across both steps.
func (s *Store) Execute(ctx context.Context, id uuid.UUID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin session tx: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	query := `SELECT ` + sessionColumns + ` FROM cash_sessions WHERE id = $1 FOR UPDATE`
	session, err := s.scanOne(dbTx.QueryRowContext(ctx, query, id), "lock cash session")
	if err != nil {
		return nil, err
	}

	if err := validate(session); err != nil {
		return nil, err
	}
	mutate(session)

	update := `
		UPDATE cash_sessions
		SET description = $2, total_balance = $3, closed_at = $4, closing_balance = $5
		WHERE id = $1
	`
	if _, err := dbTx.ExecContext(ctx, update,
		session.ID, session.Description, session.TotalBalance,
		session.ClosedAt, session.ClosingBalance,
	); err != nil {
		return nil, fmt.Errorf("update cash session: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cash session: %w", err)
	}
	return session, nil
}

func (s *Store) ListAll(ctx context.Context) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM cash_sessions ORDER BY opened_at`
	return s.list(ctx, query)
}

func (s *Store) ListOpen(ctx context.Context) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM cash_sessions WHERE closed_at IS NULL ORDER BY opened_at`
	return s.list(ctx, query)
}

func (s *Store) ListByOpenedDate(ctx context.Context, day time.Time) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM cash_sessions
		WHERE opened_at::date = $1::date
		ORDER BY opened_at
	`
	return s.list(ctx, query, day)
}

func (s *Store) ListOpenByKind(ctx context.Context, kind models.Kind) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM cash_sessions
		WHERE kind = $1 AND closed_at IS NULL
		ORDER BY opened_at
	`
	return s.list(ctx, query, kind)
}

func (s *Store) ListByKindAndDate(ctx context.Context, kind models.Kind, day time.Time) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM cash_sessions
		WHERE kind = $1 AND opened_at::date = $2::date
		ORDER BY opened_at
	`
	return s.list(ctx, query, kind, day)
}

// InsertEntry applies the entry's amount to the owning session's balance and
// inserts the entry in one transaction. A missing session yields
// sentinel.ErrNotFound and nothing is written.
func (s *Store) InsertEntry(ctx context.Context, entry models.Entry) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	update := `
		UPDATE cash_sessions
		SET total_balance = total_balance + $2
		WHERE id = $1
		RETURNING id
	`
	var sessionID uuid.UUID
	err = dbTx.QueryRowContext(ctx, update, entry.SessionID, entry.Amount).Scan(&sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("apply entry to balance: %w", err)
	}

	insert := `
		INSERT INTO ledger_entries (id, session_id, amount, description, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := dbTx.ExecContext(ctx, insert,
		entry.ID, entry.SessionID, entry.Amount, entry.Description, entry.RecordedBy, entry.RecordedAt,
	); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit ledger entry: %w", err)
	}
	return nil
}

func (s *Store) EntriesBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Entry, error) {
	query := `
		SELECT id, session_id, amount, description, recorded_by, recorded_at
		FROM ledger_entries
		WHERE session_id = $1
		ORDER BY recorded_at
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var out []models.Entry
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Amount, &e.Description, &e.RecordedBy, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanOne(row rowScanner, op string) (*models.Session, error) {
	var (
		session    models.Session
		agency     sql.NullString
		account    sql.NullString
		closedAt   sql.NullTime
		closingBal decimal.NullDecimal
	)
	err := row.Scan(
		&session.ID, &session.Kind, &session.Description,
		&session.OpeningBalance, &session.TotalBalance,
		&agency, &account,
		&session.OpenedBy, &session.OpenedAt, &closedAt, &closingBal,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session.BankAgency = agency.String
	session.BankAccount = account.String
	if closedAt.Valid {
		t := closedAt.Time
		session.ClosedAt = &t
	}
	if closingBal.Valid {
		bal := closingBal.Decimal
		session.ClosingBalance = &bal
	}
	return &session, nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cash sessions: %w", err)
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		session, err := s.scanOne(rows, "scan cash session")
		if err != nil {
			return nil, err
		}
		out = append(out, *session)
	}
	return out, rows.Err()
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
