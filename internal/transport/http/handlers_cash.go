package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cashmodels "tillbook/internal/cash/models"
	"tillbook/internal/transport/http/shared"
	"tillbook/pkg/domainerrors"
	"tillbook/pkg/requestcontext"
)

// CashService is the session surface the handler delegates to.
type CashService interface {
	Open(ctx context.Context, draft cashmodels.SessionDraft) (uuid.UUID, error)
	Close(ctx context.Context, sessionID uuid.UUID, password string) (string, error)
	IsRegisterOpen(ctx context.Context) (bool, error)
	ListAll(ctx context.Context) ([]cashmodels.Session, error)
	ListOpen(ctx context.Context) ([]cashmodels.Session, error)
	ListByDate(ctx context.Context, day *time.Time) ([]cashmodels.Session, error)
	ListByKind(ctx context.Context, kind cashmodels.Kind, day *time.Time) ([]cashmodels.Session, error)
	FindByID(ctx context.Context, id uuid.UUID) (*cashmodels.Session, error)
	FindOpenForUser(ctx context.Context, username string) (*cashmodels.Session, error)
	Entries(ctx context.Context, sessionID uuid.UUID) ([]cashmodels.Entry, error)
}

// CashHandler exposes the cash session lifecycle over HTTP.
type CashHandler struct {
	cash   CashService
	logger *slog.Logger
}

func NewCashHandler(cash CashService, logger *slog.Logger) *CashHandler {
	return &CashHandler{cash: cash, logger: logger}
}

func (h *CashHandler) Register(r chi.Router) {
	r.Post("/cash/sessions", h.handleOpen)
	r.Post("/cash/sessions/{id}/close", h.handleClose)
	r.Get("/cash/sessions", h.handleList)
	r.Get("/cash/sessions/register/status", h.handleRegisterStatus)
	r.Get("/cash/sessions/mine", h.handleMine)
	r.Get("/cash/sessions/{id}", h.handleGet)
	r.Get("/cash/sessions/{id}/entries", h.handleEntries)
}

type openSessionRequest struct {
	Kind           string   `json:"kind"`
	Description    string   `json:"description"`
	OpeningBalance *float64 `json:"opening_balance"`
	BankAgency     string   `json:"bank_agency"`
	BankAccount    string   `json:"bank_account"`
}

func (h *CashHandler) handleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeValidation, "invalid request body"))
		return
	}

	draft := cashmodels.SessionDraft{
		Kind:        cashmodels.Kind(req.Kind),
		Description: req.Description,
		BankAgency:  req.BankAgency,
		BankAccount: req.BankAccount,
	}
	if req.OpeningBalance != nil {
		balance := decimal.NewFromFloat(*req.OpeningBalance)
		draft.OpeningBalance = &balance
	}

	id, err := h.cash.Open(ctx, draft)
	if err != nil {
		h.logger.WarnContext(ctx, "open session failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

type closeSessionRequest struct {
	Password string `json:"password"`
}

func (h *CashHandler) handleClose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	// An absent body means no password was supplied; let the service answer
	// with its credential prompt instead of a decode error.
	var req closeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeValidation, "invalid request body"))
		return
	}

	message, err := h.cash.Close(ctx, id, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "close session failed",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", id.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

// handleList filters sessions by kind, opening day and open state. The kind
// filter takes precedence; without it `open=true` narrows to open sessions
// and `date` selects an opening day.
func (h *CashHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var day *time.Time
	if raw := q.Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			shared.WriteError(w, domainerrors.New(domainerrors.CodeValidation, "invalid date filter"))
			return
		}
		day = &parsed
	}

	var (
		sessions []cashmodels.Session
		err      error
	)
	switch {
	case q.Get("kind") != "":
		sessions, err = h.cash.ListByKind(ctx, cashmodels.Kind(q.Get("kind")), day)
	case q.Get("open") == "true":
		sessions, err = h.cash.ListOpen(ctx)
	case day != nil:
		sessions, err = h.cash.ListByDate(ctx, day)
	default:
		sessions, err = h.cash.ListAll(ctx)
	}
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *CashHandler) handleRegisterStatus(w http.ResponseWriter, r *http.Request) {
	open, err := h.cash.IsRegisterOpen(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"open": open})
}

func (h *CashHandler) handleMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := h.cash.FindOpenForUser(ctx, requestcontext.Username(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if session == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	shared.WriteJSON(w, http.StatusOK, session)
}

func (h *CashHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.cash.FindByID(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, session)
}

func (h *CashHandler) handleEntries(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	entries, err := h.cash.Entries(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *CashHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeValidation, "invalid session id"))
		return uuid.Nil, false
	}
	return id, true
}
