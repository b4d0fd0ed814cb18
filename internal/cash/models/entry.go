package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is one immutable money movement against a cash session. Entries are
// never updated or deleted; corrections post a new entry with the inverse
// amount.
type Entry struct {
	ID          uuid.UUID       `json:"id"`
	SessionID   uuid.UUID       `json:"session_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	RecordedBy  uuid.UUID       `json:"recorded_by"`
	RecordedAt  time.Time       `json:"recorded_at"`
}

// EntryDraft carries caller input for recording an entry. The amount is
// signed; direction legality is the caller's responsibility.
type EntryDraft struct {
	SessionID   uuid.UUID
	Amount      decimal.Decimal
	Description string
	RecordedBy  uuid.UUID
}
