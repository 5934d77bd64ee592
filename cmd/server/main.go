package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"consentkit/internal/audit"
	"consentkit/internal/consent/events"
	consentHandler "consentkit/internal/consent/handler"
	consentMetrics "consentkit/internal/consent/metrics"
	"consentkit/internal/consent/ready"
	"consentkit/internal/consent/service"
	"consentkit/internal/consent/store"
	"consentkit/internal/platform/config"
	"consentkit/internal/platform/health"
	"consentkit/internal/platform/logger"
	"consentkit/internal/platform/metrics"
	"consentkit/internal/tracer"
	httptransport "consentkit/internal/transport/http"
)

const poolStatsInterval = 15 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing consentkit",
		"addr", cfg.Addr,
		"backend", cfg.Consent.Backend,
		"cookie_name", cfg.Consent.CookieName,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	be, err := openBackend(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.Close(); err != nil {
			log.Error("closing backend", "error", err)
		}
	}()

	publisher := audit.NewPublisher(audit.NewInMemoryStore(),
		audit.WithAsyncBuffer(cfg.AuditBufferSize),
		audit.WithPublisherLogger(log),
	)
	defer publisher.Close()

	signalReady := ready.New()
	svc := service.New(be.kv,
		service.WithLogger(log),
		service.WithMetrics(consentMetrics.NewWithRegisterer(reg)),
		service.WithTracer(tracer.NewOTel()),
		service.WithReadySignal(signalReady),
		service.WithMaxAliasDepth(cfg.Consent.MaxAliasDepth),
		service.WithStoreConfig(store.Config{
			Name:   cfg.Consent.CookieName,
			Days:   cfg.Consent.CookieDays,
			Path:   cfg.Consent.CookiePath,
			Domain: cfg.Consent.CookieDomain,
			Secure: cfg.Consent.CookieSecure,
		}),
	)
	svc.Subscribe(events.SetStatus, audit.StatusSubscriber(publisher))

	if err := registerIntegrations(ctx, log, svc); err != nil {
		return fmt.Errorf("register integrations: %w", err)
	}

	healthHandler := health.New(cfg.Environment)
	be.registerChecks(healthHandler)
	healthHandler.RegisterCheck("ready_signal", func(context.Context) error {
		if !signalReady.Fired() {
			return errors.New("not fired")
		}
		return nil
	})

	router := httptransport.NewRouter(log, cfg.RequestTimeout, httptransport.Routes{
		Consent:  consentHandler.New(svc, log),
		Audit:    audit.NewHandler(publisher, log),
		Health:   healthHandler,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Session:  be.session,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}

	// Handlers registered above run their at_ready slots once the listener is bound.
	if err := signalReady.Fire(ctx); err != nil {
		log.Error("ready continuations failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if be.redis != nil {
		g.Go(func() error {
			return be.redis.RunPoolStats(gctx, poolStatsInterval)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
