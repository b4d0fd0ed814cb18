// Package audit defines the event trail emitted from cash operations. Events
// are transport-agnostic so sinks (kafka, memory in tests) can fan out.
// Emission is best-effort: a failed emit never fails the business operation.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Action names a cash event.
type Action string

const (
	ActionSessionOpened  Action = "cash_session_opened"
	ActionSessionClosed  Action = "cash_session_closed"
	ActionPaymentSettled Action = "payment_settled"
)

// Event captures one cash operation for the downstream trail.
type Event struct {
	Action    Action          `json:"action"`
	SessionID uuid.UUID       `json:"session_id"`
	Username  string          `json:"username,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// Emitter delivers events to a sink.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
