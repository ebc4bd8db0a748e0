package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerservice "fiscus/internal/ledger/service"
	ledgermemory "fiscus/internal/ledger/store/memory"
	"fiscus/internal/spending/models"
	"fiscus/internal/spending/store/memory"
	"fiscus/pkg/domain"
	dErrors "fiscus/pkg/domain-errors"
)

const health = domain.EntityID("ministry-of-health")

var docHash = domain.DocumentHash(strings.Repeat("ab", 32))

func newFixture(t *testing.T) (*Service, *ledgerservice.Service) {
	t.Helper()
	ledger := ledgerservice.New(ledgermemory.New())
	svc := New(memory.New(), ledger)
	_, err := ledger.Register(context.Background(), health, "Ministry of Health")
	require.NoError(t, err)
	return svc, ledger
}

func TestAppend(t *testing.T) {
	svc, ledger := newFixture(t)
	ctx := context.Background()

	t.Run("ids start at one and increase", func(t *testing.T) {
		id, err := svc.Append(ctx, health, "equipment", 400, docHash)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)

		id, err = svc.Append(ctx, health, "salaries", 250, docHash)
		require.NoError(t, err)
		assert.Equal(t, int64(2), id)
	})

	t.Run("zero amount is allowed", func(t *testing.T) {
		_, err := svc.Append(ctx, health, "in-kind donation", 0, docHash)
		assert.NoError(t, err)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		_, err := svc.Append(ctx, health, "refund", -1, docHash)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidAmount))
	})

	t.Run("empty purpose rejected", func(t *testing.T) {
		_, err := svc.Append(ctx, health, "", 10, docHash)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("unregistered entity rejected", func(t *testing.T) {
		_, err := svc.Append(ctx, domain.EntityID("ghost"), "equipment", 10, docHash)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})

	t.Run("deactivated entity rejected", func(t *testing.T) {
		require.NoError(t, ledger.Deactivate(ctx, health))
		_, err := svc.Append(ctx, health, "equipment", 10, docHash)
		assert.True(t, dErrors.Is(err, dErrors.CodeInactive))
	})
}

func TestPage(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	const total = 7
	for i := 0; i < total; i++ {
		_, err := svc.Append(ctx, health, fmt.Sprintf("purchase %d", i), int64(i*100), docHash)
		require.NoError(t, err)
	}

	t.Run("rejects invalid ranges", func(t *testing.T) {
		_, err := svc.Page(ctx, -1, 5)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidRange))
		_, err = svc.Page(ctx, 0, 0)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidRange))
	})

	t.Run("offset past the end yields empty page", func(t *testing.T) {
		page, err := svc.Page(ctx, total+10, 5)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("maximal limit returns everything from the offset", func(t *testing.T) {
		page, err := svc.Page(ctx, 2, math.MaxInt)
		require.NoError(t, err)
		assert.Len(t, page, total-2)
	})

	t.Run("ascending id order", func(t *testing.T) {
		page, err := svc.Page(ctx, 0, total)
		require.NoError(t, err)
		require.Len(t, page, total)
		for i := 1; i < len(page); i++ {
			assert.Greater(t, page[i].ID, page[i-1].ID)
		}
	})

	t.Run("concatenation property", func(t *testing.T) {
		// page(0,N) ++ page(N,M) == page(0,N+M) for any non-negative N, M.
		for _, split := range []struct{ n, m int }{{1, 2}, {3, 3}, {5, 10}, {7, 1}} {
			first, err := svc.Page(ctx, 0, split.n)
			require.NoError(t, err)
			second, err := svc.Page(ctx, split.n, split.m)
			require.NoError(t, err)
			combined, err := svc.Page(ctx, 0, split.n+split.m)
			require.NoError(t, err)

			concatenated := append(append([]*models.SpendingRecord{}, first...), second...)
			assert.Equal(t, combined, concatenated, "split %+v", split)
		}
	})
}
