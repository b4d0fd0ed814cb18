package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the minimal back-office account the cash ledger needs: an identity
// to attribute sessions and entries to, and a credential hash for the
// password-gated close.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
