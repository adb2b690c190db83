package entitlements

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/recruitkit/billing/pkg/entitlement"
	"github.com/recruitkit/billing/pkg/holder"
	"github.com/recruitkit/billing/pkg/plan"
	"github.com/recruitkit/billing/pkg/reconciler"
	"github.com/recruitkit/billing/pkg/subscription"
)

// ReconcileRunner triggers a reconciliation pass on demand.
type ReconcileRunner interface {
	Run(ctx context.Context) (reconciler.Report, error)
}

type handler struct {
	entitlements entitlement.Service
	subs         subscription.Service
	reconcile    ReconcileRunner
	health       []func(context.Context) error
	logger       *slog.Logger
}

type consumeRequest struct {
	FeatureKey string `json:"feature_key"`
	Amount     int64  `json:"amount"`
}

type consumeResponse struct {
	Allowed   bool           `json:"allowed"`
	Remaining remainingValue `json:"remaining"`
}

type subscribeRequest struct {
	PlanID string `json:"plan_id"`
}

type subscriptionResponse struct {
	ID                 string     `json:"id"`
	PlanID             string     `json:"plan_id"`
	Status             string     `json:"status"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`
}

func toSubscriptionResponse(sub *subscription.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:                 sub.ID.String(),
		PlanID:             sub.PlanID,
		Status:             string(sub.Status),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CanceledAt:         sub.CanceledAt,
	}
}

func (h *handler) holderRef(r *http.Request) (holder.Ref, error) {
	return holder.ParseRef(chi.URLParam(r, "holderKind"), chi.URLParam(r, "holderID"))
}

// resolve returns every effective entitlement for the holder.
func (h *handler) resolve(w http.ResponseWriter, r *http.Request) {
	ref, err := h.holderRef(r)
	if err != nil {
		respondError(w, err)
		return
	}

	ents, err := h.entitlements.Resolve(r.Context(), ref)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, ents)
}

// consume is the admission-control endpoint. Quota exhaustion is a 200 with
// allowed=false, not an error status.
func (h *handler) consume(w http.ResponseWriter, r *http.Request) {
	ref, err := h.holderRef(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req consumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Join(errBadRequestBody, err))
		return
	}
	// Omitted amount means a single unit. Negative amounts still fail
	// validation downstream.
	if req.Amount == 0 {
		req.Amount = 1
	}

	result, err := h.entitlements.TryConsume(r.Context(), ref, plan.FeatureKey(req.FeatureKey), req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}

	respondData(w, consumeResponse{
		Allowed:   result.Allowed,
		Remaining: remainingValue(result.Remaining),
	})
}

func (h *handler) getSubscription(w http.ResponseWriter, r *http.Request) {
	ref, err := h.holderRef(r)
	if err != nil {
		respondError(w, err)
		return
	}

	sub, err := h.subs.Get(r.Context(), ref)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, toSubscriptionResponse(sub))
}

func (h *handler) subscribe(w http.ResponseWriter, r *http.Request) {
	ref, err := h.holderRef(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Join(errBadRequestBody, err))
		return
	}

	sub, err := h.subs.Subscribe(r.Context(), ref, req.PlanID)
	if err != nil {
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "subscription opened",
		slog.String("holder", ref.String()),
		slog.String("plan_id", sub.PlanID))
	respondData(w, toSubscriptionResponse(sub))
}

func (h *handler) changePlan(w http.ResponseWriter, r *http.Request) {
	ref, err := h.holderRef(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Join(errBadRequestBody, err))
		return
	}

	sub, err := h.subs.ChangePlan(r.Context(), ref, req.PlanID)
	if err != nil {
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "subscription plan changed",
		slog.String("holder", ref.String()),
		slog.String("plan_id", sub.PlanID))
	respondData(w, toSubscriptionResponse(sub))
}

func (h *handler) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	ref, err := h.holderRef(r)
	if err != nil {
		respondError(w, err)
		return
	}

	sub, err := h.subs.CancelAtPeriodEnd(r.Context(), ref)
	if err != nil {
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "subscription flagged for cancellation",
		slog.String("holder", ref.String()))
	respondData(w, toSubscriptionResponse(sub))
}

// runReconcile triggers a reconciliation pass immediately. Operational
// recovery endpoint; the scheduler runs the same pass daily.
func (h *handler) runReconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconcile.Run(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, report)
}

func (h *handler) healthcheck(w http.ResponseWriter, r *http.Request) {
	for _, check := range h.health {
		if err := check(r.Context()); err != nil {
			h.logger.ErrorContext(r.Context(), "healthcheck failed",
				slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, JSONResponse{
				Code:  "not_ready",
				Error: &ErrorDetail{Code: "not_ready", Message: "dependency unavailable"},
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, JSONResponse{Code: "ok", Message: "ready"})
}
