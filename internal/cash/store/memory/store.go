// Package memory provides the map-backed cash store used by tests and
// single-process runs. Sessions and ledger entries live behind one lock so
// entry inserts and balance updates are a single atomic unit, the same
// guarantee the postgres store gets from a transaction.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tillbook/internal/cash/models"
	"tillbook/pkg/platform/sentinel"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.Session
	entries  []models.Entry
}

func New() *Store {
	return &Store{sessions: make(map[uuid.UUID]*models.Session)}
}

// Create persists a new session. For REGISTER kind the open-register check
// and the insert happen under the same lock; a second open register yields
// sentinel.ErrConflict and nothing is stored.
func (s *Store) Create(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.Kind == models.KindRegister {
		for _, existing := range s.sessions {
			if existing.Kind == models.KindRegister && existing.IsOpen() {
				return sentinel.ErrConflict
			}
		}
	}

	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneSession(session), nil
}

func (s *Store) FindOpenRegister(ctx context.Context) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.sessions {
		if session.Kind == models.KindRegister && session.IsOpen() {
			return cloneSession(session), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) FindOpenByUser(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.sessions {
		if session.OpenedBy == userID && session.IsOpen() {
			return cloneSession(session), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Execute runs validate-then-mutate on one session while holding the store
// lock, so the closed-at check and the terminal write cannot interleave with
// another close.
func (s *Store) Execute(ctx context.Context, id uuid.UUID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(session); err != nil {
		return nil, err
	}
	mutate(session)
	return cloneSession(session), nil
}

func (s *Store) ListAll(ctx context.Context) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*models.Session) bool { return true }), nil
}

func (s *Store) ListOpen(ctx context.Context) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(session *models.Session) bool { return session.IsOpen() }), nil
}

func (s *Store) ListByOpenedDate(ctx context.Context, day time.Time) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(session *models.Session) bool { return sameDay(session.OpenedAt, day) }), nil
}

func (s *Store) ListOpenByKind(ctx context.Context, kind models.Kind) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(session *models.Session) bool {
		return session.Kind == kind && session.IsOpen()
	}), nil
}

func (s *Store) ListByKindAndDate(ctx context.Context, kind models.Kind, day time.Time) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(session *models.Session) bool {
		return session.Kind == kind && sameDay(session.OpenedAt, day)
	}), nil
}

// InsertEntry appends an immutable ledger entry and folds its amount into
// the owning session's running balance under one lock acquisition.
func (s *Store) InsertEntry(ctx context.Context, entry models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[entry.SessionID]
	if !ok {
		return sentinel.ErrNotFound
	}

	s.entries = append(s.entries, entry)
	session.ApplyEntry(entry.Amount)
	return nil
}

func (s *Store) EntriesBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Entry
	for _, e := range s.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) collect(keep func(*models.Session) bool) []models.Session {
	var out []models.Session
	for _, session := range s.sessions {
		if keep(session) {
			out = append(out, *cloneSession(session))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out
}

func cloneSession(s *models.Session) *models.Session {
	copied := *s
	if s.ClosedAt != nil {
		t := *s.ClosedAt
		copied.ClosedAt = &t
	}
	if s.ClosingBalance != nil {
		b := *s.ClosingBalance
		copied.ClosingBalance = &b
	}
	return &copied
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
