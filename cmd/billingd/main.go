package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/recruitkit/billing/internal/catalog"
	"github.com/recruitkit/billing/internal/store"
	"github.com/recruitkit/billing/modules/entitlements"
	"github.com/recruitkit/billing/pkg/config"
	"github.com/recruitkit/billing/pkg/entitlement"
	"github.com/recruitkit/billing/pkg/holder"
	"github.com/recruitkit/billing/pkg/httpserver"
	"github.com/recruitkit/billing/pkg/logger"
	"github.com/recruitkit/billing/pkg/notification"
	"github.com/recruitkit/billing/pkg/pg"
	"github.com/recruitkit/billing/pkg/reconciler"
	"github.com/recruitkit/billing/pkg/redis"
	"github.com/recruitkit/billing/pkg/requestid"
	"github.com/recruitkit/billing/pkg/schedule"
	"github.com/recruitkit/billing/pkg/subscription"
)

type appConfig struct {
	AppEnv          string        `env:"APP_ENV" envDefault:"development"`
	PlansPath       string        `env:"PLANS_PATH"` // optional YAML catalog; built-in defaults when empty
	CacheEnabled    bool          `env:"ENTITLEMENTS_CACHE_ENABLED" envDefault:"false"`
	CacheTTL        time.Duration `env:"ENTITLEMENTS_CACHE_TTL" envDefault:"30s"`
	ReconcileHour   int           `env:"RECONCILE_HOUR" envDefault:"2"`
	ReconcileMinute int           `env:"RECONCILE_MINUTE" envDefault:"0"`

	AlertsEnabled  bool   `env:"USAGE_ALERTS_ENABLED" envDefault:"false"`
	AlertRecipient string `env:"USAGE_ALERTS_RECIPIENT"` // static recipient until account lookup is wired
	DevEmailDir    string `env:"DEV_EMAIL_DIR" envDefault:"./tmp/outbox"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.AppEnv, "billingd"),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("service stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	var pgCfg pg.Config
	config.MustLoad(&pgCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, store.MigrationsFS, pgCfg, log); err != nil {
		return err
	}

	plans, err := catalog.Load(cfg.PlansPath)
	if err != nil {
		return err
	}

	subStore := store.NewSubscriptionStore(pool)
	ledger := store.NewUsageLedger(pool)

	healthchecks := []func(context.Context) error{pg.Healthcheck(pool)}

	entOpts := []entitlement.Option{}
	var cache entitlement.Cache
	if cfg.CacheEnabled {
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)

		redisClient, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		cache = entitlement.NewRedisCache(redisClient)
		entOpts = append(entOpts, entitlement.WithCache(cache, cfg.CacheTTL))
		healthchecks = append(healthchecks, redis.Healthcheck(redisClient))
	}

	if cfg.AlertsEnabled {
		notifier, err := buildNotifier(cfg, log)
		if err != nil {
			return err
		}
		entOpts = append(entOpts, entitlement.WithNearLimitNotifier(notifier))
	}

	entSvc := entitlement.NewService(subStore, plans, ledger, entOpts...)
	subSvc := subscription.NewService(subStore, plans, ledger)

	recOpts := []reconciler.Option{reconciler.WithLogger(log)}
	if cache != nil {
		recOpts = append(recOpts, reconciler.WithInvalidate(func(ctx context.Context, ref holder.Ref) {
			cache.Delete(ctx, ref.String())
		}))
	}
	rec := reconciler.New(subStore, plans, ledger, recOpts...)

	runner := schedule.NewRunner("billing-period-reconciler",
		schedule.DailyAt(cfg.ReconcileHour, cfg.ReconcileMinute),
		func(ctx context.Context) error {
			_, err := rec.Run(ctx)
			return err
		},
		schedule.WithLogger(log))

	router := entitlements.Router(entitlements.RouterOptions{
		Entitlements:  entSvc,
		Subscriptions: subSvc,
		Reconcile:     rec,
		Health:        healthchecks,
		Logger:        log,
	})

	var httpCfg httpserver.Config
	config.MustLoad(&httpCfg)

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("http server listening", slog.String("addr", httpCfg.Addr))
		}),
		httpserver.WithStopHook(func(l *slog.Logger) {
			l.Info("http server stopped")
		}))

	return serve(ctx, srv, router, runner)
}

// serve runs the HTTP server and the scheduler side by side until either
// stops. The server handles termination signals internally and returns nil,
// which would leave the errgroup context intact and the scheduler loop
// blocked on its ticker forever; canceling on any server exit gives the
// scheduler its shutdown path.
func serve(ctx context.Context, srv *httpserver.Server, handler http.Handler, runner *schedule.Runner) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return srv.Run(ctx, handler)
	})
	g.Go(func() error { return runner.Start(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildNotifier wires the near-limit email path: Postmark when tokens are
// configured, the filesystem sender otherwise. The recipient is a static
// configured address; per-holder contact lookup belongs to the accounts
// service, not this one.
func buildNotifier(cfg appConfig, log *slog.Logger) (*notification.NearLimitNotifier, error) {
	var mailCfg notification.Config
	config.MustLoad(&mailCfg)

	var sender notification.EmailSender
	if mailCfg.PostmarkServerToken != "" {
		var err error
		sender, err = notification.NewPostmarkSender(mailCfg)
		if err != nil {
			return nil, err
		}
	} else {
		sender = notification.NewDevSender(cfg.DevEmailDir)
	}

	resolver := func(context.Context, holder.Ref) (string, error) {
		return cfg.AlertRecipient, nil
	}
	return notification.NewNearLimitNotifier(sender, resolver, log), nil
}
