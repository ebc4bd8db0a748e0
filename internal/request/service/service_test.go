package service

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerservice "fiscus/internal/ledger/service"
	ledgermemory "fiscus/internal/ledger/store/memory"
	"fiscus/internal/request/models"
	"fiscus/internal/request/store/memory"
	"fiscus/pkg/domain"
	dErrors "fiscus/pkg/domain-errors"
)

const education = domain.EntityID("ministry-of-education")

var docHash = domain.DocumentHash(strings.Repeat("cd", 32))

func newFixture(t *testing.T) (*Service, *ledgerservice.Service) {
	t.Helper()
	ledger := ledgerservice.New(ledgermemory.New())
	svc := New(memory.New(), ledger)

	ctx := context.Background()
	_, err := ledger.Register(ctx, education, "Ministry of Education")
	require.NoError(t, err)
	require.NoError(t, ledger.AddCustodied(ctx, 1000))
	require.NoError(t, ledger.Credit(ctx, education, 1000))
	return svc, ledger
}

func TestSubmit(t *testing.T) {
	svc, ledger := newFixture(t)
	ctx := context.Background()

	t.Run("ids start at one and increase", func(t *testing.T) {
		id, err := svc.Submit(ctx, education, 400, "school buses", docHash)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)

		id, err = svc.Submit(ctx, education, 100, "textbooks", docHash)
		require.NoError(t, err)
		assert.Equal(t, int64(2), id)

		request, err := svc.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, request.Status)
		assert.Equal(t, int64(400), request.Amount)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		_, err := svc.Submit(ctx, education, 0, "nothing", docHash)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidAmount))
		_, err = svc.Submit(ctx, education, -5, "refund", docHash)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidAmount))
	})

	t.Run("empty reason rejected", func(t *testing.T) {
		_, err := svc.Submit(ctx, education, 100, "", docHash)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("unregistered entity rejected", func(t *testing.T) {
		_, err := svc.Submit(ctx, domain.EntityID("ghost"), 100, "anything", docHash)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})

	t.Run("amount above balance accepted at submission", func(t *testing.T) {
		// Availability is only checked at approval time.
		_, err := svc.Submit(ctx, education, 5000, "stadium", docHash)
		assert.NoError(t, err)
	})

	t.Run("deactivated entity rejected", func(t *testing.T) {
		require.NoError(t, ledger.Deactivate(ctx, education))
		_, err := svc.Submit(ctx, education, 100, "anything", docHash)
		assert.True(t, dErrors.Is(err, dErrors.CodeInactive))
	})
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("releases funds from custody", func(t *testing.T) {
		svc, ledger := newFixture(t)
		id, err := svc.Submit(ctx, education, 400, "school buses", docHash)
		require.NoError(t, err)

		request, err := svc.Approve(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, request.Status)

		balance, err := ledger.BalanceOf(ctx, education)
		require.NoError(t, err)
		assert.Equal(t, int64(600), balance)

		custodied, err := ledger.Custodied(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(600), custodied)
	})

	t.Run("unknown request", func(t *testing.T) {
		svc, _ := newFixture(t)
		_, err := svc.Approve(ctx, 42)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})

	t.Run("second resolution fails and the first outcome stands", func(t *testing.T) {
		svc, _ := newFixture(t)
		id, err := svc.Submit(ctx, education, 400, "school buses", docHash)
		require.NoError(t, err)

		_, err = svc.Approve(ctx, id)
		require.NoError(t, err)

		_, err = svc.Approve(ctx, id)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotPending))
		_, err = svc.Reject(ctx, id)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotPending))

		request, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, request.Status)
	})

	t.Run("insufficient funds leaves the request pending", func(t *testing.T) {
		svc, ledger := newFixture(t)
		id, err := svc.Submit(ctx, education, 5000, "stadium", docHash)
		require.NoError(t, err)

		_, err = svc.Approve(ctx, id)
		assert.True(t, dErrors.Is(err, dErrors.CodeInsufficientFunds))

		request, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, request.Status)

		balance, err := ledger.BalanceOf(ctx, education)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), balance)
	})

	t.Run("entity deactivated after submission leaves the request pending", func(t *testing.T) {
		svc, ledger := newFixture(t)
		id, err := svc.Submit(ctx, education, 400, "school buses", docHash)
		require.NoError(t, err)
		require.NoError(t, ledger.Deactivate(ctx, education))

		_, err = svc.Approve(ctx, id)
		assert.True(t, dErrors.Is(err, dErrors.CodeInactive))

		request, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, request.Status)
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()

	t.Run("moves no balances and is final", func(t *testing.T) {
		svc, ledger := newFixture(t)
		id, err := svc.Submit(ctx, education, 400, "school buses", docHash)
		require.NoError(t, err)

		request, err := svc.Reject(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, request.Status)

		balance, err := ledger.BalanceOf(ctx, education)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), balance)
		custodied, err := ledger.Custodied(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), custodied)

		_, err = svc.Approve(ctx, id)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotPending))
	})

	t.Run("works after the entity is deactivated", func(t *testing.T) {
		// Deactivation blocks approvals, not rejections; otherwise a
		// deactivated entity's pending requests could never be cleared.
		svc, ledger := newFixture(t)
		id, err := svc.Submit(ctx, education, 400, "school buses", docHash)
		require.NoError(t, err)
		require.NoError(t, ledger.Deactivate(ctx, education))

		request, err := svc.Reject(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, request.Status)

		custodied, err := ledger.Custodied(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), custodied)
	})
}

func TestPage(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Submit(ctx, education, 10, "supplies", docHash)
		require.NoError(t, err)
	}

	t.Run("rejects invalid ranges", func(t *testing.T) {
		_, err := svc.Page(ctx, -1, 5)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidRange))
		_, err = svc.Page(ctx, 0, -1)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidRange))
	})

	t.Run("concatenation property", func(t *testing.T) {
		first, err := svc.Page(ctx, 0, 2)
		require.NoError(t, err)
		second, err := svc.Page(ctx, 2, 3)
		require.NoError(t, err)
		combined, err := svc.Page(ctx, 0, 5)
		require.NoError(t, err)
		assert.Equal(t, combined, append(append([]*models.FundRequest{}, first...), second...))
	})

	t.Run("offset past the end yields empty page", func(t *testing.T) {
		page, err := svc.Page(ctx, 100, 5)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("maximal limit returns everything from the offset", func(t *testing.T) {
		page, err := svc.Page(ctx, 1, math.MaxInt)
		require.NoError(t, err)
		assert.Len(t, page, 4)
	})
}
