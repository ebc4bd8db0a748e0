// Package service implements the registry authority: the single privileged
// identity through which every registry mutation flows. The authority owns
// the transactional boundary, the audit trail, and the authorization check;
// the feature services underneath it stay caller-agnostic.
package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"fiscus/internal/audit"
	"fiscus/internal/authority/metrics"
	ledgercache "fiscus/internal/ledger/cache"
	ledgermodels "fiscus/internal/ledger/models"
	ledgerservice "fiscus/internal/ledger/service"
	requestmodels "fiscus/internal/request/models"
	requestservice "fiscus/internal/request/service"
	spendingmodels "fiscus/internal/spending/models"
	spendingservice "fiscus/internal/spending/service"
	"fiscus/pkg/domain"
	dErrors "fiscus/pkg/domain-errors"
	"fiscus/pkg/requestcontext"
)

// Overview is the registry-level summary the dashboard polls.
type Overview struct {
	Custodied      int64 `json:"custodied"`
	EntityCount    int   `json:"entity_count"`
	ActiveEntities int   `json:"active_entities"`
}

type Service struct {
	authority domain.Caller
	tx        Tx
	ledger    *ledgerservice.Service
	spending  *spendingservice.Service
	requests  *requestservice.Service
	audit     *audit.Publisher
	cache     *ledgercache.EntityCache
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New wires the authority over the feature services. cache may be nil when
// Redis is not configured.
func New(
	authority domain.Caller,
	tx Tx,
	ledger *ledgerservice.Service,
	spending *spendingservice.Service,
	requests *requestservice.Service,
	auditPublisher *audit.Publisher,
	cache *ledgercache.EntityCache,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		authority: authority,
		tx:        tx,
		ledger:    ledger,
		spending:  spending,
		requests:  requests,
		audit:     auditPublisher,
		cache:     cache,
		metrics:   m,
		logger:    logger,
	}
}

// RegisterEntity adds a new entity to the ledger with a zero balance.
func (s *Service) RegisterEntity(ctx context.Context, id domain.EntityID, name string) (*ledgermodels.Entity, error) {
	var entity *ledgermodels.Entity
	err := s.mutate(ctx, "register_entity", func(ctx context.Context) error {
		var err error
		entity, err = s.ledger.Register(ctx, id, name)
		if err != nil {
			return err
		}
		return s.emit(ctx, audit.Event{
			Action:   audit.ActionEntityRegistered,
			EntityID: id,
		})
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// DeactivateEntity freezes an entity. Its balance stays on the books and its
// history remains readable; only new activity is blocked.
func (s *Service) DeactivateEntity(ctx context.Context, id domain.EntityID) error {
	err := s.mutate(ctx, "deactivate_entity", func(ctx context.Context) error {
		if err := s.ledger.Deactivate(ctx, id); err != nil {
			return err
		}
		return s.emit(ctx, audit.Event{
			Action:   audit.ActionEntityDeactivated,
			EntityID: id,
		})
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// IssueFunds places new funds in custody for an entity. This is the only
// operation that increases an entity balance; the custodied total moves in
// the same transaction so the books stay balanced.
func (s *Service) IssueFunds(ctx context.Context, id domain.EntityID, amount int64) error {
	err := s.mutate(ctx, "issue_funds", func(ctx context.Context) error {
		if amount <= 0 {
			return dErrors.New(dErrors.CodeInvalidAmount, "issued amount must be positive")
		}
		entity, err := s.ledger.Get(ctx, id)
		if err != nil {
			return err
		}
		if !entity.Active {
			return dErrors.Newf(dErrors.CodeInactive, "entity %s is inactive", id)
		}
		if err := s.ledger.AddCustodied(ctx, amount); err != nil {
			return err
		}
		if err := s.ledger.Credit(ctx, id, amount); err != nil {
			return err
		}
		return s.emit(ctx, audit.Event{
			Action:   audit.ActionFundsIssued,
			EntityID: id,
			Amount:   amount,
		})
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.observeCustodied(ctx)
	return nil
}

// RecordSpending appends a disbursement to the spending log. The log is
// declarative: recording moves no balances, it documents where released
// funds went.
func (s *Service) RecordSpending(ctx context.Context, entityID domain.EntityID, purpose string, amount int64, documentHash domain.DocumentHash) (int64, error) {
	var recordID int64
	err := s.mutate(ctx, "record_spending", func(ctx context.Context) error {
		var err error
		recordID, err = s.spending.Append(ctx, entityID, purpose, amount, documentHash)
		if err != nil {
			return err
		}
		return s.emit(ctx, audit.Event{
			Action:   audit.ActionSpendingRecorded,
			EntityID: entityID,
			RecordID: recordID,
			Amount:   amount,
		})
	})
	if err != nil {
		return 0, err
	}
	return recordID, nil
}

// SubmitRequest files a fund request on behalf of an entity.
func (s *Service) SubmitRequest(ctx context.Context, entityID domain.EntityID, amount int64, reason string, documentHash domain.DocumentHash) (int64, error) {
	var requestID int64
	err := s.mutate(ctx, "submit_request", func(ctx context.Context) error {
		var err error
		requestID, err = s.requests.Submit(ctx, entityID, amount, reason, documentHash)
		if err != nil {
			return err
		}
		return s.emit(ctx, audit.Event{
			Action:    audit.ActionRequestSubmitted,
			EntityID:  entityID,
			RequestID: requestID,
			Amount:    amount,
		})
	})
	if err != nil {
		return 0, err
	}
	return requestID, nil
}

// ApproveRequest releases the requested amount from custody.
func (s *Service) ApproveRequest(ctx context.Context, id int64) (*requestmodels.FundRequest, error) {
	var request *requestmodels.FundRequest
	err := s.mutate(ctx, "approve_request", func(ctx context.Context) error {
		var err error
		request, err = s.requests.Approve(ctx, id)
		if err != nil {
			return err
		}
		return s.emit(ctx, audit.Event{
			Action:    audit.ActionRequestApproved,
			EntityID:  request.EntityID,
			RequestID: request.ID,
			Amount:    request.Amount,
		})
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, request.EntityID)
	s.observeCustodied(ctx)
	return request, nil
}

// RejectRequest closes a pending request without moving balances.
func (s *Service) RejectRequest(ctx context.Context, id int64) (*requestmodels.FundRequest, error) {
	var request *requestmodels.FundRequest
	err := s.mutate(ctx, "reject_request", func(ctx context.Context) error {
		var err error
		request, err = s.requests.Reject(ctx, id)
		if err != nil {
			return err
		}
		return s.emit(ctx, audit.Event{
			Action:    audit.ActionRequestRejected,
			EntityID:  request.EntityID,
			RequestID: request.ID,
			Amount:    request.Amount,
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// EntityDetails serves the open read path, preferring the snapshot cache.
// Cache failures degrade to the store; they never fail the read.
func (s *Service) EntityDetails(ctx context.Context, id domain.EntityID) (*ledgermodels.Entity, error) {
	if s.cache != nil {
		entity, err := s.cache.Get(ctx, id)
		if err == nil {
			return entity, nil
		}
	}
	entity, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, entity); err != nil {
			s.logger.WarnContext(ctx, "entity cache set failed",
				"entity_id", id.String(), "error", err)
		}
	}
	return entity, nil
}

func (s *Service) ListEntities(ctx context.Context) ([]*ledgermodels.Entity, error) {
	return s.ledger.List(ctx)
}

func (s *Service) Custodied(ctx context.Context) (int64, error) {
	return s.ledger.Custodied(ctx)
}

// RegistryOverview aggregates the summary reads in parallel.
func (s *Service) RegistryOverview(ctx context.Context) (*Overview, error) {
	var (
		custodied int64
		entities  []*ledgermodels.Entity
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		custodied, err = s.ledger.Custodied(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		entities, err = s.ledger.List(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	overview := &Overview{Custodied: custodied, EntityCount: len(entities)}
	for _, entity := range entities {
		if entity.Active {
			overview.ActiveEntities++
		}
	}
	return overview, nil
}

func (s *Service) SpendingPage(ctx context.Context, offset, limit int) ([]*spendingmodels.SpendingRecord, error) {
	return s.spending.Page(ctx, offset, limit)
}

func (s *Service) RequestPage(ctx context.Context, offset, limit int) ([]*requestmodels.FundRequest, error) {
	return s.requests.Page(ctx, offset, limit)
}

func (s *Service) GetRequest(ctx context.Context, id int64) (*requestmodels.FundRequest, error) {
	return s.requests.Get(ctx, id)
}

// AuditTrail returns the authority actions recorded against an entity.
func (s *Service) AuditTrail(ctx context.Context, entityID domain.EntityID) ([]audit.Event, error) {
	if _, err := s.ledger.Get(ctx, entityID); err != nil {
		return nil, err
	}
	return s.audit.ListByEntity(ctx, entityID)
}

// mutate runs fn inside the transactional boundary after the authorization
// check. Every mutation goes through here so ordering, audit, and metrics
// cannot be bypassed.
func (s *Service) mutate(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	caller := requestcontext.Caller(ctx)
	if caller != s.authority {
		s.metrics.ObserveMutation(operation, string(dErrors.CodeUnauthorized))
		s.logger.WarnContext(ctx, "mutation rejected: caller is not the authority",
			"operation", operation,
			"caller", caller.String(),
			"request_id", requestcontext.RequestID(ctx))
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the registry authority")
	}

	err := s.tx.RunInTx(ctx, fn)
	if err != nil {
		s.metrics.ObserveMutation(operation, string(dErrors.CodeOf(err)))
		return err
	}
	s.metrics.ObserveMutation(operation, "ok")
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	event.Actor = requestcontext.Caller(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "record audit event")
	}
	return nil
}

// invalidate drops the cached snapshot after a mutation commits.
func (s *Service) invalidate(ctx context.Context, id domain.EntityID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "entity cache invalidation failed",
			"entity_id", id.String(), "error", err)
	}
}

// observeCustodied refreshes the custodied gauge from committed state.
func (s *Service) observeCustodied(ctx context.Context) {
	total, err := s.ledger.Custodied(ctx)
	if err != nil {
		return
	}
	s.metrics.SetCustodied(total)
}
