package entitlements

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/recruitkit/billing/pkg/entitlement"
	"github.com/recruitkit/billing/pkg/requestid"
	"github.com/recruitkit/billing/pkg/subscription"
)

// RouterOptions wires the module's dependencies. Entitlements and
// Subscriptions are required; Reconcile and Health are optional and their
// endpoints are mounted only when provided.
type RouterOptions struct {
	Entitlements  entitlement.Service
	Subscriptions subscription.Service
	Reconcile     ReconcileRunner
	Health        []func(context.Context) error
	Logger        *slog.Logger
}

// Router creates the entitlements module router.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/", entitlements.Router(entitlements.RouterOptions{
//	    Entitlements: entSvc,
//	    Subscriptions: subSvc,
//	    Reconcile:    rec,
//	    Health:       []func(context.Context) error{pg.Healthcheck(pool)},
//	    Logger:       log,
//	}))
func Router(opts RouterOptions) chi.Router {
	if opts.Entitlements == nil {
		panic("entitlements: entitlement.Service is required")
	}
	if opts.Subscriptions == nil {
		panic("entitlements: subscription.Service is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := &handler{
		entitlements: opts.Entitlements,
		subs:         opts.Subscriptions,
		reconcile:    opts.Reconcile,
		health:       opts.Health,
		logger:       opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)

	r.Route("/entitlements/{holderKind}/{holderID}", func(er chi.Router) {
		er.Get("/", h.resolve)
		er.Post("/consume", h.consume)

		er.Route("/subscription", func(sr chi.Router) {
			sr.Get("/", h.getSubscription)
			sr.Post("/", h.subscribe)
			sr.Put("/", h.changePlan)
			sr.Delete("/", h.cancelSubscription)
		})
	})

	if opts.Reconcile != nil {
		r.Post("/admin/reconcile", h.runReconcile)
	}

	r.Get("/health", h.healthcheck)

	return r
}
