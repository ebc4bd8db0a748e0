//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscus/internal/audit"
	"fiscus/pkg/domain"
	"fiscus/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	store := New(pc.DB)
	ctx := context.Background()

	newEvent := func(action string, entityID domain.EntityID, at time.Time) audit.Event {
		return audit.Event{
			ID:         uuid.New(),
			Action:     action,
			Actor:      domain.Caller("central-government"),
			EntityID:   entityID,
			Amount:     100,
			OccurredAt: at.UTC().Truncate(time.Microsecond),
		}
	}

	reset := func(t *testing.T) {
		t.Helper()
		require.NoError(t, pc.TruncateTables(ctx, "audit_outbox"))
	}

	t.Run("append and list by entity in time order", func(t *testing.T) {
		reset(t)
		base := time.Now()
		first := newEvent(audit.ActionEntityRegistered, "ministry-of-health", base)
		second := newEvent(audit.ActionFundsIssued, "ministry-of-health", base.Add(time.Second))
		other := newEvent(audit.ActionEntityRegistered, "ministry-of-education", base)
		for _, event := range []audit.Event{second, other, first} {
			require.NoError(t, store.Append(ctx, event))
		}

		events, err := store.ListByEntity(ctx, "ministry-of-health")
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, first.ID, events[0].ID)
		assert.Equal(t, second.ID, events[1].ID)
		assert.Equal(t, domain.Caller("central-government"), events[0].Actor)
	})

	t.Run("unpublished drains oldest first and marking sticks", func(t *testing.T) {
		reset(t)
		base := time.Now()
		events := make([]audit.Event, 3)
		for i := range events {
			events[i] = newEvent(audit.ActionFundsIssued, "ministry-of-health",
				base.Add(time.Duration(i)*time.Second))
			require.NoError(t, store.Append(ctx, events[i]))
		}

		pending, err := store.Unpublished(ctx, 2)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, events[0].ID, pending[0].ID)

		require.NoError(t, store.MarkPublished(ctx, []uuid.UUID{pending[0].ID, pending[1].ID}))

		pending, err = store.Unpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, events[2].ID, pending[0].ID)
	})
}
