package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tillbook/internal/cash/ledger"
	cashservice "tillbook/internal/cash/service"
	cashmemory "tillbook/internal/cash/store/memory"
	paymodels "tillbook/internal/payable/models"
	payservice "tillbook/internal/payable/service"
	paymemory "tillbook/internal/payable/store/memory"
	"tillbook/internal/user"
	usermodels "tillbook/internal/user/models"
	userstore "tillbook/internal/user/store"
)

type fixture struct {
	router       http.Handler
	installments *paymemory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := userstore.NewInMemory()
	hash, err := user.HashPassword("123")
	require.NoError(t, err)
	require.NoError(t, users.Save(context.Background(), usermodels.User{
		ID: uuid.New(), Username: "operator", PasswordHash: hash, CreatedAt: time.Now(),
	}))
	directory := user.NewDirectory(users)

	sessions := cashmemory.New()
	recorder := ledger.NewRecorder(sessions)
	cash := cashservice.New(sessions, recorder, directory)

	installments := paymemory.New()
	settlements := payservice.New(installments, cash, recorder, directory)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(
		NewCashHandler(cash, logger),
		NewSettlementHandler(settlements, logger),
		logger,
	)
	return &fixture{router: router, installments: installments}
}

func (f *fixture) do(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Operator", "operator")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) openRegister(t *testing.T, balance float64) uuid.UUID {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/cash/sessions", map[string]any{
		"kind":            "REGISTER",
		"opening_balance": balance,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEqual(t, uuid.Nil, resp.ID)
	return resp.ID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestOperatorHeaderRequired(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/cash/sessions", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthzSkipsOperatorHeader(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestOpenSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	id := f.openRegister(t, 100)

	rec := f.do(t, http.MethodGet, "/cash/sessions/"+id.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var session struct {
		Kind         string          `json:"kind"`
		Description  string          `json:"description"`
		TotalBalance decimal.Decimal `json:"total_balance"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
	require.Equal(t, "REGISTER", session.Kind)
	require.Equal(t, "Daily Register", session.Description)
	require.True(t, session.TotalBalance.Equal(decimal.NewFromInt(100)))

	statusRec := f.do(t, http.MethodGet, "/cash/sessions/register/status", nil)
	require.Equal(t, http.StatusOK, statusRec.Code)
	var status struct {
		Open bool `json:"open"`
	}
	require.NoError(t, json.NewDecoder(statusRec.Body).Decode(&status))
	require.True(t, status.Open)
}

func TestOpenSecondRegisterConflicts(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t, 100)

	rec := f.do(t, http.MethodPost, "/cash/sessions", map[string]any{"kind": "REGISTER"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "register already open", decodeError(t, rec)["message"])
}

func TestOpenNegativeBalanceRejected(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/cash/sessions", map[string]any{
		"kind":            "REGISTER",
		"opening_balance": -5,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "negative opening balance", decodeError(t, rec)["message"])
}

func TestCloseSession(t *testing.T) {
	f := newFixture(t)
	id := f.openRegister(t, 100)

	wrong := f.do(t, http.MethodPost, "/cash/sessions/"+id.String()+"/close", map[string]string{"password": "nope"})
	require.Equal(t, http.StatusUnprocessableEntity, wrong.Code)
	require.Equal(t, "incorrect password", decodeError(t, wrong)["message"])

	blank := f.do(t, http.MethodPost, "/cash/sessions/"+id.String()+"/close", map[string]string{})
	require.Equal(t, http.StatusUnprocessableEntity, blank.Code)
	require.Equal(t, "password required", decodeError(t, blank)["message"])

	noBody := f.do(t, http.MethodPost, "/cash/sessions/"+id.String()+"/close", nil)
	require.Equal(t, http.StatusUnprocessableEntity, noBody.Code)
	require.Equal(t, "password required", decodeError(t, noBody)["message"])

	ok := f.do(t, http.MethodPost, "/cash/sessions/"+id.String()+"/close", map[string]string{"password": "123"})
	require.Equal(t, http.StatusOK, ok.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(ok.Body).Decode(&resp))
	require.Equal(t, cashservice.ClosedMessage, resp["message"])

	again := f.do(t, http.MethodPost, "/cash/sessions/"+id.String()+"/close", map[string]string{"password": "123"})
	require.Equal(t, http.StatusBadRequest, again.Code)
	require.Equal(t, "already closed", decodeError(t, again)["message"])
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t, 100)
	safe := f.do(t, http.MethodPost, "/cash/sessions", map[string]any{"kind": "SAFE"})
	require.Equal(t, http.StatusCreated, safe.Code)

	type listResponse struct {
		Sessions []struct {
			Kind string `json:"kind"`
		} `json:"sessions"`
	}

	all := f.do(t, http.MethodGet, "/cash/sessions", nil)
	require.Equal(t, http.StatusOK, all.Code)
	var allResp listResponse
	require.NoError(t, json.NewDecoder(all.Body).Decode(&allResp))
	require.Len(t, allResp.Sessions, 2)

	byKind := f.do(t, http.MethodGet, "/cash/sessions?kind=SAFE", nil)
	require.Equal(t, http.StatusOK, byKind.Code)
	var kindResp listResponse
	require.NoError(t, json.NewDecoder(byKind.Body).Decode(&kindResp))
	require.Len(t, kindResp.Sessions, 1)
	require.Equal(t, "SAFE", kindResp.Sessions[0].Kind)

	badKind := f.do(t, http.MethodGet, "/cash/sessions?kind=DRAWER", nil)
	require.Equal(t, http.StatusBadRequest, badKind.Code)

	today := time.Now().Format("2006-01-02")
	byDate := f.do(t, http.MethodGet, "/cash/sessions?date="+today, nil)
	require.Equal(t, http.StatusOK, byDate.Code)
	var dateResp listResponse
	require.NoError(t, json.NewDecoder(byDate.Body).Decode(&dateResp))
	require.Len(t, dateResp.Sessions, 2)

	badDate := f.do(t, http.MethodGet, "/cash/sessions?date=01-02-2026", nil)
	require.Equal(t, http.StatusBadRequest, badDate.Code)
}

func TestGetUnknownSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/cash/sessions/"+uuid.New().String(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	bad := f.do(t, http.MethodGet, "/cash/sessions/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestMineReturnsNoContentWithoutOpenSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/cash/sessions/mine", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	f.openRegister(t, 100)
	after := f.do(t, http.MethodGet, "/cash/sessions/mine", nil)
	require.Equal(t, http.StatusOK, after.Code)
}

func TestSettleInstallment(t *testing.T) {
	f := newFixture(t)
	sessionID := f.openRegister(t, 100)

	installment := &paymodels.Installment{
		ID:              uuid.New(),
		InvoiceID:       uuid.New(),
		OriginalAmount:  decimal.NewFromInt(100),
		RemainingAmount: decimal.NewFromInt(100),
		DueDate:         time.Now().AddDate(0, 1, 0),
	}
	require.NoError(t, f.installments.Save(context.Background(), installment))

	rec := f.do(t, http.MethodPost, "/payables/installments/"+installment.ID.String()+"/settle", map[string]any{
		"payment":    50,
		"discount":   5,
		"surcharge":  2,
		"session_id": sessionID.String(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, payservice.CompletedMessage, resp["message"])

	get := f.do(t, http.MethodGet, "/payables/installments/"+installment.ID.String(), nil)
	require.Equal(t, http.StatusOK, get.Code)
	var got struct {
		RemainingAmount decimal.Decimal `json:"remaining_amount"`
		PaidAmount      decimal.Decimal `json:"paid_amount"`
		Settled         bool            `json:"settled"`
	}
	require.NoError(t, json.NewDecoder(get.Body).Decode(&got))
	require.True(t, got.RemainingAmount.Equal(decimal.NewFromInt(45)))
	require.True(t, got.PaidAmount.Equal(decimal.NewFromInt(52)))
	require.False(t, got.Settled)

	entries := f.do(t, http.MethodGet, "/cash/sessions/"+sessionID.String()+"/entries", nil)
	require.Equal(t, http.StatusOK, entries.Code)
	var entriesResp struct {
		Entries []struct {
			Amount decimal.Decimal `json:"amount"`
		} `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(entries.Body).Decode(&entriesResp))
	require.Len(t, entriesResp.Entries, 2)
	require.True(t, entriesResp.Entries[1].Amount.Equal(decimal.NewFromInt(52)))
}

func TestSettleOverpaymentRejected(t *testing.T) {
	f := newFixture(t)
	sessionID := f.openRegister(t, 0)

	installment := &paymodels.Installment{
		ID:              uuid.New(),
		InvoiceID:       uuid.New(),
		OriginalAmount:  decimal.NewFromInt(100),
		RemainingAmount: decimal.NewFromInt(100),
		DueDate:         time.Now().AddDate(0, 1, 0),
	}
	require.NoError(t, f.installments.Save(context.Background(), installment))

	rec := f.do(t, http.MethodPost, "/payables/installments/"+installment.ID.String()+"/settle", map[string]any{
		"payment":    150,
		"session_id": sessionID.String(),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid payment amount", decodeError(t, rec)["message"])
}

func TestSettleUnknownInstallment(t *testing.T) {
	f := newFixture(t)
	sessionID := f.openRegister(t, 0)

	rec := f.do(t, http.MethodPost, "/payables/installments/"+uuid.New().String()+"/settle", map[string]any{
		"payment":    10,
		"session_id": sessionID.String(),
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "installment not found", decodeError(t, rec)["message"])
}
