//go:build integration

package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgermodels "fiscus/internal/ledger/models"
	ledgerpostgres "fiscus/internal/ledger/store/postgres"
	"fiscus/internal/request/models"
	"fiscus/pkg/domain"
	"fiscus/pkg/platform/sentinel"
	"fiscus/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	store := New(pc.DB)
	entities := ledgerpostgres.New(pc.DB)
	ctx := context.Background()

	const health = domain.EntityID("ministry-of-health")
	docHash := domain.DocumentHash(strings.Repeat("cd", 32))

	reset := func(t *testing.T) {
		t.Helper()
		require.NoError(t, pc.TruncateTables(ctx, "entities"))
		require.NoError(t, entities.Insert(ctx, &ledgermodels.Entity{
			ID:           health,
			Name:         "Ministry of Health",
			Active:       true,
			RegisteredAt: time.Now().UTC(),
		}))
	}

	newRequest := func(amount int64) *models.FundRequest {
		return &models.FundRequest{
			EntityID:     health,
			Amount:       amount,
			Reason:       "ambulances",
			DocumentHash: docHash,
			Status:       models.StatusPending,
			SubmittedAt:  time.Now().UTC().Truncate(time.Microsecond),
		}
	}

	t.Run("insert and get round-trip", func(t *testing.T) {
		reset(t)
		id, err := store.Insert(ctx, newRequest(400))
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)

		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.Equal(t, int64(400), got.Amount)
		assert.Equal(t, "ambulances", got.Reason)
	})

	t.Run("get missing request", func(t *testing.T) {
		reset(t)
		_, err := store.Get(ctx, 42)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("status update is one-shot", func(t *testing.T) {
		reset(t)
		id, err := store.Insert(ctx, newRequest(400))
		require.NoError(t, err)

		require.NoError(t, store.UpdateStatus(ctx, id, models.StatusApproved))

		err = store.UpdateStatus(ctx, id, models.StatusRejected)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)

		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, got.Status)
	})

	t.Run("status update on missing request", func(t *testing.T) {
		reset(t)
		err := store.UpdateStatus(ctx, 42, models.StatusApproved)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("page windows in id order", func(t *testing.T) {
		reset(t)
		for i := 0; i < 4; i++ {
			_, err := store.Insert(ctx, newRequest(int64(100 * (i + 1))))
			require.NoError(t, err)
		}

		page, err := store.Page(ctx, 1, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, int64(2), page[0].ID)
		assert.Equal(t, int64(3), page[1].ID)
	})
}
