package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/navigation/internal/config"
	"github.com/smartcity/navigation/internal/repository/postgres"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("GO_ENV", "test")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNewAppServesHealth(t *testing.T) {
	app, navSvc, hub := newApp(testConfig(t), postgres.NewMockRepository(), nil)
	defer hub.Close()
	defer navSvc.WaitBackground()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/navigation/sessions/unknown", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConnectRedis(t *testing.T) {
	cfg := testConfig(t)
	assert.Nil(t, connectRedis(context.Background(), cfg))

	s := miniredis.RunT(t)
	cfg.RedisAddr = s.Addr()
	rdb := connectRedis(context.Background(), cfg)
	require.NotNil(t, rdb)
	defer rdb.Close()

	s.Close()
	assert.Nil(t, connectRedis(context.Background(), cfg))
}

func TestConnectPostgresInvalidURL(t *testing.T) {
	_, err := connectPostgres(context.Background(), "postgres://%zz")
	assert.Error(t, err)
}
