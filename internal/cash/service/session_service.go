package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"tillbook/internal/audit"
	"tillbook/internal/cash/models"
	"tillbook/pkg/domainerrors"
	"tillbook/pkg/platform/sentinel"
	"tillbook/pkg/requestcontext"
)

// ClosedMessage is returned on a successful close.
const ClosedMessage = "session closed successfully"

// Open validates the draft and persists a new session attributed to the
// acting user. An opening balance above zero posts one "opening deposit"
// ledger entry; zero posts none. For REGISTER kind the store rejects a
// second open register atomically with the insert.
func (s *Service) Open(ctx context.Context, draft models.SessionDraft) (uuid.UUID, error) {
	start := time.Now()

	actor, err := s.actingUser(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	session, err := models.NewSession(uuid.New(), draft, actor.ID, requestcontext.Now(ctx))
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return uuid.Nil, domainerrors.New(domainerrors.CodeConflict, "register already open")
		}
		return uuid.Nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "save cash session")
	}

	if session.OpeningBalance.IsPositive() {
		if _, err := s.recorder.Record(ctx, models.EntryDraft{
			SessionID:   session.ID,
			Amount:      session.OpeningBalance,
			Description: "opening deposit",
			RecordedBy:  actor.ID,
		}); err != nil {
			return uuid.Nil, err
		}
	}

	s.logger.Info("cash session opened",
		"session_id", session.ID.String(),
		"kind", string(session.Kind),
		"opened_by", actor.Username,
	)
	if s.metrics != nil {
		s.metrics.ObserveOpen(string(session.Kind), start)
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionSessionOpened,
		SessionID: session.ID,
		Username:  actor.Username,
		Amount:    session.OpeningBalance,
		Timestamp: requestcontext.Now(ctx),
	})

	return session.ID, nil
}

// Close makes a session terminal after verifying the acting user's password.
// Blank and incorrect passwords come back as credential failures carrying
// the user-facing prompt; neither touches the session. The closing balance
// snapshots the running total.
func (s *Service) Close(ctx context.Context, sessionID uuid.UUID, password string) (string, error) {
	start := time.Now()

	if strings.TrimSpace(password) == "" {
		return "", domainerrors.New(domainerrors.CodeCredential, "password required")
	}

	actor, err := s.actingUser(ctx)
	if err != nil {
		return "", err
	}
	if !s.users.VerifyPassword(password, actor.PasswordHash) {
		return "", domainerrors.New(domainerrors.CodeCredential, "incorrect password")
	}

	now := requestcontext.Now(ctx)
	session, err := s.sessions.Execute(ctx, sessionID,
		func(sess *models.Session) error { return sess.CanClose() },
		func(sess *models.Session) { sess.ApplyClose(now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", domainerrors.New(domainerrors.CodeNotFound, "cash session not found")
		}
		var de *domainerrors.Error
		if errors.As(err, &de) {
			return "", err
		}
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "close cash session")
	}

	s.logger.Info("cash session closed",
		"session_id", session.ID.String(),
		"closing_balance", session.TotalBalance.String(),
		"closed_by", actor.Username,
	)
	if s.metrics != nil {
		s.metrics.ObserveClose(start)
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionSessionClosed,
		SessionID: session.ID,
		Username:  actor.Username,
		Amount:    session.TotalBalance,
		Timestamp: now,
	})

	return ClosedMessage, nil
}

// IsRegisterOpen reports whether any REGISTER-kind session is currently
// open. Safes and bank accounts never count; this mirrors the asymmetric
// check Open performs.
func (s *Service) IsRegisterOpen(ctx context.Context) (bool, error) {
	_, err := s.sessions.FindOpenRegister(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, domainerrors.Wrap(err, domainerrors.CodeInternal, "check open register")
	}
	return true, nil
}

// ListAll returns every session, open or closed.
func (s *Service) ListAll(ctx context.Context) ([]models.Session, error) {
	sessions, err := s.sessions.ListAll(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list cash sessions")
	}
	return sessions, nil
}

// ListOpen returns only sessions with no close timestamp.
func (s *Service) ListOpen(ctx context.Context) ([]models.Session, error) {
	sessions, err := s.sessions.ListOpen(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list open cash sessions")
	}
	return sessions, nil
}

// ListByDate returns sessions opened on the given day, open or closed.
// A nil date means "currently open sessions only".
func (s *Service) ListByDate(ctx context.Context, day *time.Time) ([]models.Session, error) {
	if day == nil {
		return s.ListOpen(ctx)
	}
	sessions, err := s.sessions.ListByOpenedDate(ctx, *day)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list cash sessions by date")
	}
	return sessions, nil
}

// ListByKind scopes the same date branching to one kind: nil date lists only
// the currently open sessions of the kind, a date lists that opening day's
// sessions open or closed.
func (s *Service) ListByKind(ctx context.Context, kind models.Kind, day *time.Time) ([]models.Session, error) {
	if !kind.Valid() {
		return nil, domainerrors.New(domainerrors.CodeValidation, "unknown session kind")
	}
	var (
		sessions []models.Session
		err      error
	)
	if day == nil {
		sessions, err = s.sessions.ListOpenByKind(ctx, kind)
	} else {
		sessions, err = s.sessions.ListByKindAndDate(ctx, kind, *day)
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list cash sessions by kind")
	}
	return sessions, nil
}

// FindByID resolves one session.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "cash session not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "find cash session")
	}
	return session, nil
}

// Entries returns the ledger entries of one session in recorded order.
func (s *Service) Entries(ctx context.Context, sessionID uuid.UUID) ([]models.Entry, error) {
	if _, err := s.FindByID(ctx, sessionID); err != nil {
		return nil, err
	}
	entries, err := s.sessions.EntriesBySession(ctx, sessionID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list ledger entries")
	}
	return entries, nil
}

// FindOpenForUser resolves the user by login and returns their open session.
// No open session for the user is an empty result, not an error.
func (s *Service) FindOpenForUser(ctx context.Context, username string) (*models.Session, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.FindOpenByUser(ctx, u.ID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "find open session for user")
	}
	return session, nil
}

// actingUser resolves the request's acting user from context.
func (s *Service) actingUser(ctx context.Context) (*actingUser, error) {
	username := requestcontext.Username(ctx)
	if username == "" {
		return nil, domainerrors.New(domainerrors.CodeValidation, "acting user not set")
	}
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &actingUser{ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash}, nil
}

type actingUser struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
}
