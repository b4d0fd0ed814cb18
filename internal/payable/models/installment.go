package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tillbook/pkg/domainerrors"
	"tillbook/pkg/money"
)

// Installment is one scheduled portion of a payable invoice.
//
// Invariants:
//   - RemainingAmount is monotonically non-increasing
//   - Settled is true iff RemainingAmount has been driven to zero or below
//
// Installments are created with their invoice and mutated only through
// settlement; they are never deleted.
type Installment struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	Settled         bool            `json:"settled"`
	DueDate         time.Time       `json:"due_date"`
}

// CanApplyPayment checks that payment plus discount does not exceed the
// remaining debt. The comparison tolerates float noise from boundary input
// within money.Epsilon.
func (i *Installment) CanApplyPayment(payment, discount decimal.Decimal) error {
	projected := i.RemainingAmount.Sub(payment).Sub(discount)
	if projected.LessThan(money.Epsilon.Neg()) {
		return domainerrors.New(domainerrors.CodeValidation, "invalid payment amount")
	}
	return nil
}

// ApplyPayment reduces the debt by payment plus discount and accumulates the
// collected amount. The surcharge is money actually collected into the till
// but never reduces the principal; the discount reduces the principal but is
// never collected. Returns the amount to post to the ledger.
func (i *Installment) ApplyPayment(payment, discount, surcharge decimal.Decimal) decimal.Decimal {
	i.RemainingAmount = i.RemainingAmount.Sub(payment).Sub(discount)
	collected := payment.Add(surcharge)
	i.PaidAmount = i.PaidAmount.Add(collected)
	i.Settled = money.Settled(i.RemainingAmount)
	return collected
}
