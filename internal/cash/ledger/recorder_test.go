package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/internal/cash/metrics"
	"tillbook/internal/cash/models"
	"tillbook/internal/cash/store/memory"
	"tillbook/pkg/domainerrors"
	"tillbook/pkg/requestcontext"
)

func TestRecordAppliesAmountToSession(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	recorder := NewRecorder(store)

	opening := decimal.NewFromFloat(100)
	session, err := models.NewSession(uuid.New(), models.SessionDraft{
		Kind:           models.KindRegister,
		OpeningBalance: &opening,
	}, uuid.New(), time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, session))

	fixed := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	id, err := recorder.Record(requestcontext.WithTime(ctx, fixed), models.EntryDraft{
		SessionID:   session.ID,
		Amount:      decimal.NewFromFloat(52),
		Description: "installment payment",
		RecordedBy:  session.OpenedBy,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	got, err := store.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalBalance.Equal(decimal.NewFromFloat(152)))

	entries, err := store.EntriesBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fixed, entries[0].RecordedAt)
	assert.Equal(t, "installment payment", entries[0].Description)
}

func TestRecordNegativeAmountIsNotValidated(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	recorder := NewRecorder(store)

	session, err := models.NewSession(uuid.New(), models.SessionDraft{Kind: models.KindSafe}, uuid.New(), time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, session))

	_, err = recorder.Record(ctx, models.EntryDraft{
		SessionID: session.ID,
		Amount:    decimal.NewFromFloat(-30),
	})
	require.NoError(t, err)

	got, err := store.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalBalance.Equal(decimal.NewFromFloat(-30)))
}

func TestRecordUnknownSession(t *testing.T) {
	recorder := NewRecorder(memory.New())

	_, err := recorder.Record(context.Background(), models.EntryDraft{
		SessionID: uuid.New(),
		Amount:    decimal.NewFromFloat(10),
	})
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))
}

func TestRecordIncrementsEntriesCounter(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	m := metrics.New()
	recorder := NewRecorder(store, WithMetrics(m))

	session, err := models.NewSession(uuid.New(), models.SessionDraft{Kind: models.KindSafe}, uuid.New(), time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, session))

	for i := 0; i < 2; i++ {
		_, err := recorder.Record(ctx, models.EntryDraft{
			SessionID: session.ID,
			Amount:    decimal.NewFromFloat(10),
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.EntriesRecorded))

	_, err = recorder.Record(ctx, models.EntryDraft{
		SessionID: uuid.New(),
		Amount:    decimal.NewFromFloat(10),
	})
	require.Error(t, err)
	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.EntriesRecorded), "failed records do not count")
}
