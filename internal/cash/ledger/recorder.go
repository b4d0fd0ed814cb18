// Package ledger appends immutable entries to cash sessions. The recorder
// never mutates or deletes entries; every insert adjusts the owning
// session's running balance atomically with the entry, through the store.
package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"tillbook/internal/cash/metrics"
	"tillbook/internal/cash/models"
	"tillbook/pkg/domainerrors"
	"tillbook/pkg/platform/sentinel"
	"tillbook/pkg/requestcontext"
)

// Store is the persistence contract the recorder writes through. InsertEntry
// must apply the balance delta and the entry insert as one atomic unit per
// session.
type Store interface {
	InsertEntry(ctx context.Context, entry models.Entry) error
}

// Recorder posts ledger entries on behalf of the session and settlement
// services. It performs no sign validation; direction legality is the
// caller's responsibility.
type Recorder struct {
	store   Store
	metrics *metrics.Metrics
}

type Option func(*Recorder)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record persists one entry and returns its identifier. A missing session
// surfaces as a not-found domain error; store failures propagate as
// internal errors with no partial effects.
func (r *Recorder) Record(ctx context.Context, draft models.EntryDraft) (uuid.UUID, error) {
	entry := models.Entry{
		ID:          uuid.New(),
		SessionID:   draft.SessionID,
		Amount:      draft.Amount,
		Description: draft.Description,
		RecordedBy:  draft.RecordedBy,
		RecordedAt:  requestcontext.Now(ctx),
	}

	if err := r.store.InsertEntry(ctx, entry); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return uuid.Nil, domainerrors.New(domainerrors.CodeNotFound, "cash session not found")
		}
		return uuid.Nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "record ledger entry")
	}
	if r.metrics != nil {
		r.metrics.EntriesRecorded.Inc()
	}
	return entry.ID, nil
}
