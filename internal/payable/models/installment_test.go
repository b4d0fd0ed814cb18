package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/pkg/domainerrors"
)

func newInstallment(remaining float64) *Installment {
	amount := decimal.NewFromFloat(remaining)
	return &Installment{
		ID:              uuid.New(),
		InvoiceID:       uuid.New(),
		OriginalAmount:  amount,
		RemainingAmount: amount,
		PaidAmount:      decimal.Zero,
		DueDate:         time.Now(),
	}
}

func TestCanApplyPayment(t *testing.T) {
	i := newInstallment(100)

	assert.NoError(t, i.CanApplyPayment(decimal.NewFromFloat(100), decimal.Zero))
	assert.NoError(t, i.CanApplyPayment(decimal.NewFromFloat(50), decimal.NewFromFloat(5)))

	err := i.CanApplyPayment(decimal.NewFromFloat(150), decimal.Zero)
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeValidation))
}

func TestApplyFullPaymentSettles(t *testing.T) {
	i := newInstallment(100)

	collected := i.ApplyPayment(decimal.NewFromFloat(100), decimal.Zero, decimal.Zero)

	assert.True(t, collected.Equal(decimal.NewFromFloat(100)))
	assert.True(t, i.RemainingAmount.IsZero())
	assert.True(t, i.Settled)
}

func TestApplyPartialPaymentWithDiscountAndSurcharge(t *testing.T) {
	i := newInstallment(100)

	collected := i.ApplyPayment(decimal.NewFromFloat(50), decimal.NewFromFloat(5), decimal.NewFromFloat(2))

	// The discount reduces the debt but is never collected; the surcharge is
	// collected but never reduces the debt.
	assert.True(t, collected.Equal(decimal.NewFromFloat(52)))
	assert.True(t, i.RemainingAmount.Equal(decimal.NewFromFloat(45)))
	assert.True(t, i.PaidAmount.Equal(decimal.NewFromFloat(52)))
	assert.False(t, i.Settled)
}

func TestRemainingIsMonotonicallyNonIncreasing(t *testing.T) {
	i := newInstallment(100)

	i.ApplyPayment(decimal.NewFromFloat(30), decimal.Zero, decimal.Zero)
	first := i.RemainingAmount
	i.ApplyPayment(decimal.NewFromFloat(30), decimal.Zero, decimal.Zero)

	assert.True(t, i.RemainingAmount.LessThan(first))
}
