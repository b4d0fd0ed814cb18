package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tillbook/pkg/domainerrors"
	platformstrings "tillbook/pkg/platform/strings"
)

// Kind classifies a cash session by the physical or virtual holding point
// it tracks.
type Kind string

const (
	KindRegister Kind = "REGISTER"
	KindSafe     Kind = "SAFE"
	KindBank     Kind = "BANK"
)

// Valid reports whether the kind is one of the three known holding points.
func (k Kind) Valid() bool {
	switch k {
	case KindRegister, KindSafe, KindBank:
		return true
	}
	return false
}

// DefaultDescription is the description substituted when a session is opened
// with a blank one.
func (k Kind) DefaultDescription() string {
	switch k {
	case KindRegister:
		return "Daily Register"
	case KindSafe:
		return "Safe"
	case KindBank:
		return "Bank"
	}
	return ""
}

// Session is a cash holding point: a till, a safe, or a bank account.
//
// Invariants:
//   - OpeningBalance >= 0
//   - ClosedAt nil <=> the session is open
//   - At most one REGISTER-kind session is open system-wide at any time
//     (enforced by SessionStore.Create, not here)
//   - Once ClosedAt is set the session is terminal; no further mutation
//
// TotalBalance is the running balance. It changes only through ledger entry
// recording, which applies each entry's amount atomically with the insert.
type Session struct {
	ID             uuid.UUID        `json:"id"`
	Kind           Kind             `json:"kind"`
	Description    string           `json:"description"`
	OpeningBalance decimal.Decimal  `json:"opening_balance"`
	TotalBalance   decimal.Decimal  `json:"total_balance"`
	BankAgency     string           `json:"bank_agency,omitempty"`
	BankAccount    string           `json:"bank_account,omitempty"`
	OpenedBy       uuid.UUID        `json:"opened_by"`
	OpenedAt       time.Time        `json:"opened_at"`
	ClosedAt       *time.Time       `json:"closed_at,omitempty"`
	ClosingBalance *decimal.Decimal `json:"closing_balance,omitempty"`
}

// SessionDraft carries caller input for opening a session. A nil
// OpeningBalance means "absent" and is coerced to zero.
type SessionDraft struct {
	Kind           Kind
	Description    string
	OpeningBalance *decimal.Decimal
	BankAgency     string
	BankAccount    string
}

// NewSession validates a draft and builds the session in its opened state.
// Blank descriptions get the kind default; BANK agency/account keep decimal
// digits only. TotalBalance starts equal to OpeningBalance.
func NewSession(id uuid.UUID, draft SessionDraft, openedBy uuid.UUID, now time.Time) (*Session, error) {
	if !draft.Kind.Valid() {
		return nil, domainerrors.New(domainerrors.CodeValidation, "unknown session kind")
	}

	opening := decimal.Zero
	if draft.OpeningBalance != nil {
		if draft.OpeningBalance.IsNegative() {
			return nil, domainerrors.New(domainerrors.CodeValidation, "negative opening balance")
		}
		opening = *draft.OpeningBalance
	}

	description := strings.TrimSpace(draft.Description)
	if description == "" {
		description = draft.Kind.DefaultDescription()
	}

	s := &Session{
		ID:             id,
		Kind:           draft.Kind,
		Description:    description,
		OpeningBalance: opening,
		TotalBalance:   opening,
		OpenedBy:       openedBy,
		OpenedAt:       now,
	}

	if draft.Kind == KindBank {
		s.BankAgency = platformstrings.Digits(draft.BankAgency)
		s.BankAccount = platformstrings.Digits(draft.BankAccount)
	}

	return s, nil
}

// IsOpen reports whether the session is still accepting entries.
func (s *Session) IsOpen() bool {
	return s.ClosedAt == nil
}

// CanClose checks that the session is still open.
// Use with ApplyClose inside the store's atomic unit.
func (s *Session) CanClose() error {
	if s.ClosedAt != nil {
		return domainerrors.New(domainerrors.CodeValidation, "already closed")
	}
	return nil
}

// ApplyClose makes the session terminal. The closing balance snapshots the
// running total at close time.
func (s *Session) ApplyClose(now time.Time) {
	closing := s.TotalBalance
	s.ClosedAt = &now
	s.ClosingBalance = &closing
}

// ApplyEntry folds a ledger entry amount into the running balance.
func (s *Session) ApplyEntry(amount decimal.Decimal) {
	s.TotalBalance = s.TotalBalance.Add(amount)
}
