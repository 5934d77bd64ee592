package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"consentkit/internal/consent/kv"
	"consentkit/internal/consent/store"
	"consentkit/internal/platform/config"
	"consentkit/internal/platform/database"
	"consentkit/internal/platform/health"
	redisclient "consentkit/internal/platform/redis"
	"consentkit/migrations"
)

const redisKeyPrefix = "consent:"

// backend is the persisted-value store selected by CONSENT_BACKEND plus the
// connections it owns. Shared backends are partitioned per browser by the
// subject cookie that session issues.
type backend struct {
	kv      store.KV
	session func(http.Handler) http.Handler
	redis   *redisclient.Client
	db      *database.Pool
}

func subjectAttributes(cfg config.Consent) kv.Attributes {
	return kv.Attributes{
		MaxAge: kv.Days(cfg.CookieDays),
		Path:   cfg.CookiePath,
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
	}
}

func shared(values store.KV, cfg config.Consent) *backend {
	return &backend{
		kv:      kv.NewScoped(values),
		session: kv.SubjectMiddleware(subjectAttributes(cfg)),
	}
}

func openBackend(ctx context.Context, cfg config.Server, reg prometheus.Registerer) (*backend, error) {
	switch cfg.Consent.Backend {
	case config.BackendCookie:
		return &backend{kv: kv.NewCookie(), session: kv.CookieMiddleware}, nil

	case config.BackendMemory:
		return shared(kv.NewMemory(), cfg.Consent), nil

	case config.BackendRedis:
		client, err := redisclient.New(ctx, cfg.Redis, redisclient.NewPoolMetrics(reg))
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		if client == nil {
			return nil, errors.New("REDIS_URL is required for the redis backend")
		}
		b := shared(kv.NewRedis(client.Client, kv.WithKeyPrefix(redisKeyPrefix)), cfg.Consent)
		b.redis = client
		return b, nil

	case config.BackendPostgres:
		pool, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if pool == nil {
			return nil, errors.New("DATABASE_URL is required for the postgres backend")
		}
		if err := migrations.Up(ctx, pool.DB()); err != nil {
			pool.Close() //nolint:errcheck // best-effort cleanup on init failure
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		b := shared(kv.NewPostgres(pool.DB()), cfg.Consent)
		b.db = pool
		return b, nil

	default:
		return nil, fmt.Errorf("unknown consent backend %q", cfg.Consent.Backend)
	}
}

func (b *backend) registerChecks(h *health.Handler) {
	if b.redis != nil {
		h.RegisterCheck("redis", b.redis.Health)
	}
	if b.db != nil {
		h.RegisterCheck("database", b.db.Health)
	}
}

func (b *backend) Close() error {
	var errs []error
	if b.redis != nil {
		errs = append(errs, b.redis.Close())
	}
	if b.db != nil {
		errs = append(errs, b.db.Close())
	}
	return errors.Join(errs...)
}
