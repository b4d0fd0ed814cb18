//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"tillbook/internal/payable/models"
	"tillbook/internal/payable/store/postgres"
	"tillbook/pkg/platform/sentinel"
	"tillbook/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "payable_installments")
	s.Require().NoError(err)
}

func newTestInstallment(amount int64) *models.Installment {
	return &models.Installment{
		ID:              uuid.New(),
		InvoiceID:       uuid.New(),
		OriginalAmount:  decimal.NewFromInt(amount),
		RemainingAmount: decimal.NewFromInt(amount),
		PaidAmount:      decimal.Zero,
		DueDate:         time.Now().UTC().AddDate(0, 1, 0),
	}
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	installment := newTestInstallment(100)
	s.Require().NoError(s.store.Save(ctx, installment))

	got, err := s.store.FindByID(ctx, installment.ID)
	s.Require().NoError(err)
	s.True(got.RemainingAmount.Equal(decimal.NewFromInt(100)))
	s.False(got.Settled)

	_, err = s.store.FindByID(ctx, uuid.New())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentSettlements verifies that Execute serializes payments per
// installment: with 100 remaining and ten concurrent payments of 20, exactly
// five may succeed.
func (s *PostgresStoreSuite) TestConcurrentSettlements() {
	ctx := context.Background()
	installment := newTestInstallment(100)
	s.Require().NoError(s.store.Save(ctx, installment))

	payment := decimal.NewFromInt(20)
	const goroutines = 10

	var wg sync.WaitGroup
	var successCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := s.store.Execute(ctx, installment.ID,
				func(i *models.Installment) error { return i.CanApplyPayment(payment, decimal.Zero) },
				func(i *models.Installment) { i.ApplyPayment(payment, decimal.Zero, decimal.Zero) },
			)
			if err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(5), successCount.Load(), "only five payments of 20 fit in 100")

	got, err := s.store.FindByID(ctx, installment.ID)
	s.Require().NoError(err)
	s.True(got.RemainingAmount.IsZero(), "remaining %s", got.RemainingAmount)
	s.True(got.PaidAmount.Equal(decimal.NewFromInt(100)))
	s.True(got.Settled)
}
