// Package service owns the cash session lifecycle: opening holding points,
// password-gated closing, and the query surface over sessions.
package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tillbook/internal/audit"
	"tillbook/internal/cash/metrics"
	"tillbook/internal/cash/models"
	usermodels "tillbook/internal/user/models"
)

// SessionStore is the persistence contract for cash sessions. Create must
// perform the open-register existence check and the insert as one atomic
// unit for REGISTER kind, returning sentinel.ErrConflict when a register is
// already open. Execute must hold a lock (mutex or FOR UPDATE) across both
// callbacks.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	FindOpenRegister(ctx context.Context) (*models.Session, error)
	FindOpenByUser(ctx context.Context, userID uuid.UUID) (*models.Session, error)
	Execute(ctx context.Context, id uuid.UUID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error)
	ListAll(ctx context.Context) ([]models.Session, error)
	ListOpen(ctx context.Context) ([]models.Session, error)
	ListByOpenedDate(ctx context.Context, day time.Time) ([]models.Session, error)
	ListOpenByKind(ctx context.Context, kind models.Kind) ([]models.Session, error)
	ListByKindAndDate(ctx context.Context, kind models.Kind, day time.Time) ([]models.Session, error)
	EntriesBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Entry, error)
}

// EntryRecorder posts ledger entries. Satisfied by *ledger.Recorder.
type EntryRecorder interface {
	Record(ctx context.Context, draft models.EntryDraft) (uuid.UUID, error)
}

// UserDirectory resolves acting users and verifies close passwords.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (*usermodels.User, error)
	VerifyPassword(plaintext, hash string) bool
}

// Service orchestrates the cash session lifecycle.
type Service struct {
	sessions SessionStore
	recorder EntryRecorder
	users    UserDirectory
	logger   *slog.Logger
	metrics  *metrics.Metrics
	emitter  audit.Emitter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditEmitter(e audit.Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

func New(sessions SessionStore, recorder EntryRecorder, users UserDirectory, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		recorder: recorder,
		users:    users,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// emit delivers an audit event without letting sink failures surface.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Warn("audit emit failed",
			slog.String("action", string(event.Action)),
			slog.String("session_id", event.SessionID.String()),
			slog.Any("error", err),
		)
	}
}
