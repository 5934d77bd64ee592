package main

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentkit/internal/consent/kv"
	"consentkit/internal/platform/config"
)

func TestOpenBackendScopesSharedStores(t *testing.T) {
	cfg := config.Server{Consent: config.Consent{Backend: config.BackendMemory, CookieDays: 1}}

	be, err := openBackend(context.Background(), cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	defer be.Close()

	assert.IsType(t, &kv.Scoped{}, be.kv)
	assert.NotNil(t, be.session)
}

func TestOpenBackendCookie(t *testing.T) {
	cfg := config.Server{Consent: config.Consent{Backend: config.BackendCookie}}

	be, err := openBackend(context.Background(), cfg, prometheus.NewRegistry())
	require.NoError(t, err)

	assert.IsType(t, &kv.Cookie{}, be.kv)
	assert.NotNil(t, be.session)
}

func TestOpenBackendUnknown(t *testing.T) {
	_, err := openBackend(context.Background(), config.Server{Consent: config.Consent{Backend: "floppy"}}, prometheus.NewRegistry())
	require.Error(t, err)
}
