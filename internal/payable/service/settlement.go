// Package service settles payable installments against an open cash
// session: the debt shrinks by payment plus discount, the till collects
// payment plus surcharge, and the collected amount lands in the ledger.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tillbook/internal/audit"
	cashmodels "tillbook/internal/cash/models"
	"tillbook/internal/payable/metrics"
	"tillbook/internal/payable/models"
	usermodels "tillbook/internal/user/models"
	"tillbook/pkg/domainerrors"
	"tillbook/pkg/platform/sentinel"
	"tillbook/pkg/requestcontext"
)

// CompletedMessage is returned on a successful settlement.
const CompletedMessage = "payment completed"

// InstallmentStore is the persistence contract for installments. Execute
// must serialize concurrent calls against the same installment so two
// settlements cannot both read the pre-payment remaining amount.
type InstallmentStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Installment, error)
	Save(ctx context.Context, i *models.Installment) error
	Execute(ctx context.Context, id uuid.UUID, validate func(*models.Installment) error, mutate func(*models.Installment)) (*models.Installment, error)
}

// SessionFinder locates the cash session receiving the collected amount.
// Satisfied by the cash service.
type SessionFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*cashmodels.Session, error)
}

// EntryRecorder posts the collected amount to the session ledger.
type EntryRecorder interface {
	Record(ctx context.Context, draft cashmodels.EntryDraft) (uuid.UUID, error)
}

// UserDirectory resolves the acting user for entry attribution.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (*usermodels.User, error)
}

// Processor settles installments.
type Processor struct {
	installments InstallmentStore
	sessions     SessionFinder
	recorder     EntryRecorder
	users        UserDirectory
	logger       *slog.Logger
	metrics      *metrics.Metrics
	emitter      audit.Emitter
}

type Option func(*Processor)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

func WithAuditEmitter(e audit.Emitter) Option {
	return func(p *Processor) { p.emitter = e }
}

func New(installments InstallmentStore, sessions SessionFinder, recorder EntryRecorder, users UserDirectory, opts ...Option) *Processor {
	p := &Processor{
		installments: installments,
		sessions:     sessions,
		recorder:     recorder,
		users:        users,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Settle applies a payment to an installment and records the collected
// amount against the cash session. Payment plus discount above the
// remaining debt fails validation with no mutation and no ledger entry.
// The surcharge never reduces the debt; the discount is never collected.
func (p *Processor) Settle(ctx context.Context, installmentID uuid.UUID, payment, discount, surcharge decimal.Decimal, sessionID uuid.UUID) (string, error) {
	start := time.Now()

	var collected decimal.Decimal
	installment, err := p.installments.Execute(ctx, installmentID,
		func(i *models.Installment) error { return i.CanApplyPayment(payment, discount) },
		func(i *models.Installment) { collected = i.ApplyPayment(payment, discount, surcharge) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", domainerrors.New(domainerrors.CodeNotFound, "installment not found")
		}
		var de *domainerrors.Error
		if errors.As(err, &de) {
			if p.metrics != nil && de.Code == domainerrors.CodeValidation {
				p.metrics.SettlementsRejected.Inc()
			}
			return "", err
		}
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "settle installment")
	}

	actor, err := p.actingUser(ctx)
	if err != nil {
		return "", err
	}

	session, err := p.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return "", err
	}

	if _, err := p.recorder.Record(ctx, cashmodels.EntryDraft{
		SessionID:   session.ID,
		Amount:      collected,
		Description: "installment settlement",
		RecordedBy:  actor.ID,
	}); err != nil {
		return "", err
	}

	p.logger.Info("installment settled",
		"installment_id", installment.ID.String(),
		"session_id", session.ID.String(),
		"collected", collected.String(),
		"remaining", installment.RemainingAmount.String(),
		"settled", installment.Settled,
	)
	if p.metrics != nil {
		p.metrics.ObserveSettle(start)
	}
	if p.emitter != nil {
		event := audit.Event{
			Action:    audit.ActionPaymentSettled,
			SessionID: session.ID,
			Username:  actor.Username,
			Amount:    collected,
			Timestamp: requestcontext.Now(ctx),
		}
		if err := p.emitter.Emit(ctx, event); err != nil {
			p.logger.Warn("audit emit failed", "action", string(event.Action), "error", err)
		}
	}

	return CompletedMessage, nil
}

// FindInstallment resolves one installment.
func (p *Processor) FindInstallment(ctx context.Context, id uuid.UUID) (*models.Installment, error) {
	installment, err := p.installments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "installment not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "find installment")
	}
	return installment, nil
}

func (p *Processor) actingUser(ctx context.Context) (*usermodels.User, error) {
	username := requestcontext.Username(ctx)
	if username == "" {
		return nil, domainerrors.New(domainerrors.CodeValidation, "acting user not set")
	}
	return p.users.FindByUsername(ctx, username)
}
