// Package postgres persists payable installments in PostgreSQL. Pure I/O;
// settlement arithmetic belongs to the service and the model.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tillbook/internal/payable/models"
	"tillbook/pkg/platform/sentinel"
	"tillbook/pkg/platform/tx"
)

const installmentColumns = `id, invoice_id, original_amount, remaining_amount, paid_amount, settled, due_date`

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Save(ctx context.Context, i *models.Installment) error {
	query := `
		INSERT INTO payable_installments (` + installmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			remaining_amount = EXCLUDED.remaining_amount,
			paid_amount = EXCLUDED.paid_amount,
			settled = EXCLUDED.settled
	`
	_, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, query,
		i.ID, i.InvoiceID, i.OriginalAmount, i.RemainingAmount, i.PaidAmount, i.Settled, i.DueDate,
	)
	if err != nil {
		return fmt.Errorf("save installment: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM payable_installments WHERE id = $1`
	return scanInstallment(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, id), "find installment")
}

// Execute runs validate-then-mutate on one installment inside a transaction,
// holding a row lock across both steps to serialize concurrent settlements.
func (s *Store) Execute(ctx context.Context, id uuid.UUID, validate func(*models.Installment) error, mutate func(*models.Installment)) (*models.Installment, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin installment tx: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	query := `SELECT ` + installmentColumns + ` FROM payable_installments WHERE id = $1 FOR UPDATE`
	installment, err := scanInstallment(dbTx.QueryRowContext(ctx, query, id), "lock installment")
	if err != nil {
		return nil, err
	}

	if err := validate(installment); err != nil {
		return nil, err
	}
	mutate(installment)

	update := `
		UPDATE payable_installments
		SET remaining_amount = $2, paid_amount = $3, settled = $4
		WHERE id = $1
	`
	if _, err := dbTx.ExecContext(ctx, update,
		installment.ID, installment.RemainingAmount, installment.PaidAmount, installment.Settled,
	); err != nil {
		return nil, fmt.Errorf("update installment: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit installment: %w", err)
	}
	return installment, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstallment(row rowScanner, op string) (*models.Installment, error) {
	var i models.Installment
	err := row.Scan(&i.ID, &i.InvoiceID, &i.OriginalAmount, &i.RemainingAmount, &i.PaidAmount, &i.Settled, &i.DueDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &i, nil
}
