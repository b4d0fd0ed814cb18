package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tillbook/internal/payable/models"
	"tillbook/internal/transport/http/shared"
	"tillbook/pkg/domainerrors"
	"tillbook/pkg/requestcontext"
)

// SettlementService is the settlement surface the handler delegates to.
type SettlementService interface {
	Settle(ctx context.Context, installmentID uuid.UUID, payment, discount, surcharge decimal.Decimal, sessionID uuid.UUID) (string, error)
	FindInstallment(ctx context.Context, id uuid.UUID) (*models.Installment, error)
}

// SettlementHandler exposes installment settlement over HTTP.
type SettlementHandler struct {
	settlements SettlementService
	logger      *slog.Logger
}

func NewSettlementHandler(settlements SettlementService, logger *slog.Logger) *SettlementHandler {
	return &SettlementHandler{settlements: settlements, logger: logger}
}

func (h *SettlementHandler) Register(r chi.Router) {
	r.Post("/payables/installments/{id}/settle", h.handleSettle)
	r.Get("/payables/installments/{id}", h.handleGet)
}

type settleRequest struct {
	Payment   float64 `json:"payment"`
	Discount  float64 `json:"discount"`
	Surcharge float64 `json:"surcharge"`
	SessionID string  `json:"session_id"`
}

func (h *SettlementHandler) handleSettle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	installmentID, ok := h.installmentID(w, r)
	if !ok {
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeValidation, "invalid request body"))
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeValidation, "invalid session id"))
		return
	}

	message, err := h.settlements.Settle(ctx, installmentID,
		decimal.NewFromFloat(req.Payment),
		decimal.NewFromFloat(req.Discount),
		decimal.NewFromFloat(req.Surcharge),
		sessionID,
	)
	if err != nil {
		h.logger.WarnContext(ctx, "settle failed",
			"request_id", requestcontext.RequestID(ctx),
			"installment_id", installmentID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (h *SettlementHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.installmentID(w, r)
	if !ok {
		return
	}

	installment, err := h.settlements.FindInstallment(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, installment)
}

func (h *SettlementHandler) installmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeValidation, "invalid installment id"))
		return uuid.Nil, false
	}
	return id, true
}
