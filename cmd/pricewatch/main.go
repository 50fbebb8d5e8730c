package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/pricewatch/engine/internal/aggregate"
	"github.com/pricewatch/engine/internal/alert"
	"github.com/pricewatch/engine/internal/api"
	"github.com/pricewatch/engine/internal/catalog"
	"github.com/pricewatch/engine/internal/config"
	"github.com/pricewatch/engine/internal/engine"
	"github.com/pricewatch/engine/internal/jobs"
	"github.com/pricewatch/engine/internal/ledger"
	"github.com/pricewatch/engine/internal/notifier"
	"github.com/pricewatch/engine/internal/rate"
	"github.com/pricewatch/engine/internal/reputation"
	"github.com/pricewatch/engine/internal/store"
	"github.com/pricewatch/engine/pkg/logger"
	"github.com/pricewatch/engine/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [pricewatch]...")

	// --- Store (Redis + Postgres hybrid, or in-memory fallback) ---
	var st store.Repository
	var rep reputation.Lookup
	var hybrid *store.HybridStore
	if cfg.DatabaseURL != "" && cfg.RedisAddr != "" {
		logg.Info("connecting to DSN: ", utils.MaskDSN(cfg.DatabaseURL))
		var err error
		hybrid, err = store.NewHybrid(cfg.RedisAddr, cfg.RedisDB, cfg.DatabaseURL, cfg.CacheTTL, store.PGPoolConfig{
			MaxConns:          int32(cfg.PGMaxConns),
			MinConns:          int32(cfg.PGMinConns),
			MaxConnLifetime:   cfg.PGMaxConnLifetime,
			MaxConnIdleTime:   cfg.PGMaxConnIdleTime,
			HealthCheckPeriod: cfg.PGHealthCheckPeriod,
		}, logg.Desugar())
		if err != nil {
			logg.Fatalw("failed to init store", "error", err)
		}
		st = hybrid
		rep = reputation.NewRedis(hybrid.Redis(), "", logg.Desugar())
	} else {
		logg.Warn("DATABASE_URL or REDIS_ADDR not configured; using in-memory store")
		st = store.NewMemory()
		rep = reputation.NewStatic(nil)
	}

	// --- Notification delivery channel ---
	var nf notifier.Notifier
	var nc *nats.Conn
	switch cfg.Broker {
	case "nats":
		var err error
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		nf, err = notifier.NewNATS(nc, cfg.NotifySubject, logg.Desugar())
		if err != nil {
			logg.Fatalw("failed to init NATS notifier", "error", err)
		}
	case "amqp":
		var err error
		nf, err = notifier.NewAMQP(cfg.AMQPURL, cfg.AMQPExchange, cfg.NotifySubject, logg.Desugar())
		if err != nil {
			logg.Fatalw("failed to init AMQP notifier", "error", err)
		}
	default:
		logg.Warn("NOTIFY_BROKER not configured; notifications stay in-process")
		nf = notifier.NewMemory()
	}

	// --- Catalogs (seeded by external management services) ---
	cat := catalog.NewMemory()

	// --- Engine ---
	led := ledger.New(ledger.Config{
		VerifyThreshold:   cfg.VerifyThreshold,
		RejectThreshold:   cfg.RejectThreshold,
		TrustedReputation: cfg.TrustedReputation,
		MaxPrice:          cfg.MaxPrice,
	}, st, rep, logg.Desugar())

	agg := aggregate.New(st)
	registry := alert.NewRegistry(st, alert.NewEvaluator(cfg.AlertOneShot, logg.Desugar()), logg.Desugar())
	eng := engine.New(led, agg, registry, cat, rep, nf, logg.Desugar())

	// --- Background trend view refresh (Postgres deployments only) ---
	if hybrid != nil && hybrid.PG != nil {
		var pub jobs.EventPublisher
		if nc != nil {
			pub = nc
		}
		refresher := jobs.NewTrendRefresher(logg.Desugar(), hybrid.PG, pub, cfg.TrendRefreshInterval)
		go refresher.Start(ctx)
		defer refresher.Stop()
	}

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})

	limits := rate.NewManager(rate.Config{PerSecond: cfg.SubmitPerSecond, Burst: cfg.SubmitBurst})
	handler := api.NewHandler(logg.Desugar(), eng, limits, cfg.DefaultRadiusKm, cfg.DefaultTrendDays)
	api.RegisterRoutes(app, st, handler)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[pricewatch] running",
		"env", cfg.Env,
		"broker", cfg.Broker,
		"verify_threshold", cfg.VerifyThreshold,
		"reject_threshold", cfg.RejectThreshold,
	)

	<-ctx.Done()
	logg.Info("shutting down [pricewatch]...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if err := nf.Close(); err != nil {
		logg.Warnw("notifier.close_failed", "error", err)
	}
	if err := st.Close(); err != nil {
		logg.Warnw("store.close_failed", "error", err)
	}
}
