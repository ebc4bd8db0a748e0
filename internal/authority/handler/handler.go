// Package handler exposes the registry over HTTP. Reads are open; mutations
// sit behind the authority bearer token.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fiscus/internal/audit"
	authorityservice "fiscus/internal/authority/service"
	ledgermodels "fiscus/internal/ledger/models"
	"fiscus/internal/platform/middleware"
	requestmodels "fiscus/internal/request/models"
	spendingmodels "fiscus/internal/spending/models"
	"fiscus/pkg/domain"
	dErrors "fiscus/pkg/domain-errors"
	"fiscus/pkg/platform/httputil"
	"fiscus/pkg/requestcontext"
)

const defaultPageLimit = 50

// Service defines the authority operations the transport needs.
type Service interface {
	RegisterEntity(ctx context.Context, id domain.EntityID, name string) (*ledgermodels.Entity, error)
	DeactivateEntity(ctx context.Context, id domain.EntityID) error
	IssueFunds(ctx context.Context, id domain.EntityID, amount int64) error
	RecordSpending(ctx context.Context, entityID domain.EntityID, purpose string, amount int64, documentHash domain.DocumentHash) (int64, error)
	SubmitRequest(ctx context.Context, entityID domain.EntityID, amount int64, reason string, documentHash domain.DocumentHash) (int64, error)
	ApproveRequest(ctx context.Context, id int64) (*requestmodels.FundRequest, error)
	RejectRequest(ctx context.Context, id int64) (*requestmodels.FundRequest, error)

	EntityDetails(ctx context.Context, id domain.EntityID) (*ledgermodels.Entity, error)
	ListEntities(ctx context.Context) ([]*ledgermodels.Entity, error)
	Custodied(ctx context.Context) (int64, error)
	RegistryOverview(ctx context.Context) (*authorityservice.Overview, error)
	SpendingPage(ctx context.Context, offset, limit int) ([]*spendingmodels.SpendingRecord, error)
	RequestPage(ctx context.Context, offset, limit int) ([]*requestmodels.FundRequest, error)
	GetRequest(ctx context.Context, id int64) (*requestmodels.FundRequest, error)
	AuditTrail(ctx context.Context, entityID domain.EntityID) ([]audit.Event, error)
}

type Handler struct {
	service   Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(service Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{service: service, logger: logger, validator: validator}
}

// Register mounts the registry routes. Mutating routes require the authority
// bearer token; the authorization decision itself lives in the service.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registry", func(r chi.Router) {
		r.Get("/entities", h.handleListEntities)
		r.Get("/entities/{entityID}", h.handleEntityDetails)
		r.Get("/entities/{entityID}/audit", h.handleAuditTrail)
		r.Get("/custodied", h.handleCustodied)
		r.Get("/overview", h.handleOverview)
		r.Get("/spending", h.handleSpendingPage)
		r.Get("/requests", h.handleRequestPage)
		r.Get("/requests/{requestID}", h.handleGetRequest)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.validator, h.logger))
			r.Post("/entities", h.handleRegisterEntity)
			r.Post("/entities/{entityID}/deactivate", h.handleDeactivateEntity)
			r.Post("/entities/{entityID}/funds", h.handleIssueFunds)
			r.Post("/spending", h.handleRecordSpending)
			r.Post("/requests", h.handleSubmitRequest)
			r.Post("/requests/{requestID}/approve", h.handleApproveRequest)
			r.Post("/requests/{requestID}/reject", h.handleRejectRequest)
		})
	})
}

type registerEntityRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) handleRegisterEntity(w http.ResponseWriter, r *http.Request) {
	var req registerEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	id, err := domain.ParseEntityID(req.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entity, err := h.service.RegisterEntity(r.Context(), id, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, entity)
}

func (h *Handler) handleDeactivateEntity(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.DeactivateEntity(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type issueFundsRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) handleIssueFunds(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req issueFundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.service.IssueFunds(r.Context(), id, req.Amount); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recordSpendingRequest struct {
	EntityID     string `json:"entity_id"`
	Purpose      string `json:"purpose"`
	Amount       int64  `json:"amount"`
	DocumentHash string `json:"document_hash"`
}

func (h *Handler) handleRecordSpending(w http.ResponseWriter, r *http.Request) {
	var req recordSpendingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	entityID, err := domain.ParseEntityID(req.EntityID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	documentHash, err := domain.ParseDocumentHash(req.DocumentHash)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	recordID, err := h.service.RecordSpending(r.Context(), entityID, req.Purpose, req.Amount, documentHash)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]int64{"id": recordID})
}

type submitRequestRequest struct {
	EntityID     string `json:"entity_id"`
	Amount       int64  `json:"amount"`
	Reason       string `json:"reason"`
	DocumentHash string `json:"document_hash"`
}

func (h *Handler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req submitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	entityID, err := domain.ParseEntityID(req.EntityID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	documentHash, err := domain.ParseDocumentHash(req.DocumentHash)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	requestID, err := h.service.SubmitRequest(r.Context(), entityID, req.Amount, req.Reason, documentHash)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]int64{"id": requestID})
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, h.service.ApproveRequest)
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, h.service.RejectRequest)
}

func (h *Handler) resolveRequest(w http.ResponseWriter, r *http.Request, resolve func(ctx context.Context, id int64) (*requestmodels.FundRequest, error)) {
	id, err := requestIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	request, err := resolve(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) handleListEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := h.service.ListEntities(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entities)
}

func (h *Handler) handleEntityDetails(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entity, err := h.service.EntityDetails(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entity)
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	trail, err := h.service.AuditTrail(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trail)
}

func (h *Handler) handleCustodied(w http.ResponseWriter, r *http.Request) {
	custodied, err := h.service.Custodied(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"custodied": custodied})
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.RegistryOverview(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, overview)
}

func (h *Handler) handleSpendingPage(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pageParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	records, err := h.service.SpendingPage(r.Context(), offset, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleRequestPage(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pageParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	requests, err := h.service.RequestPage(r.Context(), offset, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, requests)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := requestIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	request, err := h.service.GetRequest(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "request failed",
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(ctx),
			"error", err)
	} else {
		h.logger.WarnContext(ctx, "request rejected",
			"path", r.URL.Path,
			"code", string(code),
			"request_id", requestcontext.RequestID(ctx),
			"error", err)
	}
	httputil.WriteError(w, err)
}

func requestIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "requestID"), 10, 64)
	if err != nil || id < 1 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "request id must be a positive integer")
	}
	return id, nil
}

func pageParams(r *http.Request) (offset, limit int, err error) {
	limit = defaultPageLimit
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, dErrors.New(dErrors.CodeInvalidRange, "offset must be an integer")
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, dErrors.New(dErrors.CodeInvalidRange, "limit must be an integer")
		}
	}
	return offset, limit, nil
}
