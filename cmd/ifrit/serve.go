package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/ifrit/internal/ai"
	"github.com/erazemk/ifrit/internal/api"
	"github.com/erazemk/ifrit/internal/approval"
	"github.com/erazemk/ifrit/internal/backup"
	"github.com/erazemk/ifrit/internal/billing"
	"github.com/erazemk/ifrit/internal/inventory"
	"github.com/erazemk/ifrit/internal/metrics"
	"github.com/erazemk/ifrit/internal/notify"
	"github.com/erazemk/ifrit/internal/realtime"
	"github.com/erazemk/ifrit/internal/store"
)

const (
	// chatHistoryTTL expires idle conversations kept in Redis.
	chatHistoryTTL = 24 * time.Hour

	// tokenPurgeInterval is how often expired revocations are dropped.
	tokenPurgeInterval = time.Hour
)

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "listen address")
	f.Bool("metrics.enabled", true, "expose Prometheus metrics on /metrics")
	f.String("ai.provider", "", `AI provider: "openai", "gemini" or empty to disable`)
	f.String("redis.addr", "", "Redis address for chat history (default: in memory)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return err
	}

	deps, cleanup, err := a.buildDeps(ctx, database, jwtSecret)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := a.cfg
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("server started", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		a.purgeTokens(gctx, database)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		deps.Hub.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server forced to shutdown", zap.Error(err))
		}
		return nil
	})

	err = g.Wait()
	a.log.Info("server stopped, closing database")
	return err
}

// buildDeps assembles the services behind the router. Optional services
// are only set up when configured.
func (a *app) buildDeps(ctx context.Context, database *sql.DB, jwtSecret string) (api.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	cfg := a.cfg
	log := a.log

	hub := realtime.NewHub(log.Named("realtime"))
	notes := notify.NewCenter(database, hub, log.Named("notify"))

	// Every collection event goes to the owner's connections and the
	// mutation counter.
	notifier := inventory.NotifierFunc(func(ctx context.Context, owner int64, ev inventory.Event) {
		metrics.CollectionMutationsTotal.WithLabelValues(ev.Type).Inc()
		hub.Notify(ctx, owner, ev)
	})

	var approvals *approval.Service
	registry := inventory.NewRegistry(func(owner int64) inventory.Config {
		c := a.collectionConfig(database, owner, approvals)
		c.Notifier = notifier
		return c
	})
	approvals = approval.New(database, registry, notes, log.Named("approval"))

	completer, err := ai.NewCompleter(ctx, cfg.AI)
	if err != nil {
		return api.Deps{}, cleanup, err
	}
	var history ai.HistoryStore
	if cfg.Redis.Addr != "" {
		client, err := ai.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return api.Deps{}, cleanup, err
		}
		closers = append(closers, func() { client.Close() })
		history = ai.NewRedisHistory(client, chatHistoryTTL)
		log.Info("chat history in redis", zap.String("addr", cfg.Redis.Addr))
	}
	if completer != nil {
		log.Info("AI enabled", zap.String("provider", completer.Name()))
	}
	aiService := ai.NewService(completer, history, log.Named("ai"))

	var objects backup.ObjectStore
	if cfg.Backup.Endpoint != "" {
		m, err := backup.NewMinIO(ctx, cfg.Backup.Endpoint, cfg.Backup.AccessKey, cfg.Backup.SecretKey, cfg.Backup.Bucket, cfg.Backup.UseSSL)
		if err != nil {
			return api.Deps{}, cleanup, err
		}
		objects = m
		log.Info("remote backups enabled", zap.String("endpoint", cfg.Backup.Endpoint), zap.String("bucket", cfg.Backup.Bucket))
	}

	if n, err := approvals.Count(ctx); err == nil {
		metrics.PendingItems.Set(float64(n))
	}

	return api.Deps{
		DB:        database,
		JWTSecret: jwtSecret,
		Log:       log.Named("http"),
		Registry:  registry,
		Approval:  approvals,
		Notes:     notes,
		AI:        aiService,
		Hub:       hub,
		Billing:   billing.NewProcessor(database, cfg.Stripe.WebhookSecret, log.Named("billing")),
		Backup:    backup.New(objects, log.Named("backup")),
		Metrics:   cfg.Metrics.Enabled,
	}, cleanup, nil
}

// purgeTokens drops expired revocations until ctx is done.
func (a *app) purgeTokens(ctx context.Context, database *sql.DB) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PurgeExpiredTokens(ctx, database, now)
			if err != nil {
				a.log.Warn("purging revoked tokens", zap.Error(err))
				continue
			}
			if n > 0 {
				a.log.Debug("purged revoked tokens", zap.Int64("count", n))
			}
		}
	}
}
