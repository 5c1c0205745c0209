package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/timebank/internal/adapter/http/middleware"
	"github.com/iho/timebank/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/timebank/internal/adapter/repository/postgres"
	"github.com/iho/timebank/internal/infrastructure/config"
	"github.com/iho/timebank/internal/infrastructure/eventpublisher"
	"github.com/iho/timebank/internal/infrastructure/metrics"
)

func testConfig(driver, sink string) *config.Config {
	return &config.Config{
		StorageDriver:    driver,
		EventSink:        sink,
		EventStream:      "timebank:events",
		EventBatchSize:   10,
		RateLimitRPS:     100,
		RateLimitBurst:   100,
		ReciprocityLimit: decimal.NewFromInt(10),
		InitialCredit:    decimal.NewFromInt(5),
	}
}

func TestOpenDependencies_Memory(t *testing.T) {
	cfg := testConfig(config.StorageDriverMemory, config.EventSinkLog)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	deps, err := openDependencies(context.Background(), cfg, m, zerolog.Nop())
	require.NoError(t, err)
	defer deps.Close()

	assert.Nil(t, deps.retrier, "memory driver runs without a retrier")
	assert.IsType(t, &memory.OutboxRepository{}, deps.outbox)
	assert.IsType(t, &memory.IdempotencyStore{}, deps.idempotency)

	app := newApplication(cfg, deps, m, zerolog.Nop())
	assert.NotNil(t, app.publisher)
}

func TestOpenDependencies_NoEventSink(t *testing.T) {
	cfg := testConfig(config.StorageDriverMemory, config.EventSinkNone)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	deps, err := openDependencies(context.Background(), cfg, m, zerolog.Nop())
	require.NoError(t, err)
	defer deps.Close()

	assert.IsType(t, &postgresRepo.NullOutboxRepository{}, deps.outbox)
	assert.Nil(t, newApplication(cfg, deps, m, zerolog.Nop()).publisher)
}

func TestOpenDependencies_RedisSink(t *testing.T) {
	s := miniredis.RunT(t)

	cfg := testConfig(config.StorageDriverMemory, config.EventSinkRedis)
	cfg.RedisURL = "redis://" + s.Addr()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	deps, err := openDependencies(context.Background(), cfg, m, zerolog.Nop())
	require.NoError(t, err)
	defer deps.Close()

	require.NotNil(t, deps.redisClient)
	assert.Contains(t, deps.checks, "redis")
	assert.IsType(t, &eventpublisher.RedisStreamPublisher{}, newPublisher(cfg, deps, zerolog.Nop()))
}

func TestOpenDependencies_RedisUnavailable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	cfg := testConfig(config.StorageDriverMemory, config.EventSinkRedis)
	cfg.RedisURL = "redis://" + addr

	_, err := openDependencies(context.Background(), cfg, metrics.NewWithRegistry(prometheus.NewRegistry()), zerolog.Nop())
	require.Error(t, err)
}

func TestApplicationRouter_OpensAccount(t *testing.T) {
	cfg := testConfig(config.StorageDriverMemory, config.EventSinkNone)
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	deps, err := openDependencies(context.Background(), cfg, m, zerolog.Nop())
	require.NoError(t, err)
	defer deps.Close()

	app := newApplication(cfg, deps, m, zerolog.Nop())
	router := app.router(cfg, middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m), reg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", strings.NewReader(`{"display_name":"Ana"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"balance":"5.00"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
