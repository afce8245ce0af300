package pool

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-peyrard/godi-datasource/datasource/pool/poolconfig"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGXPoolConfig(t *testing.T) {
	nop := zerolog.Nop()

	t.Run("it should map the pool settings", func(t *testing.T) {
		// GIVEN
		cfg := poolconfig.Default("orders")
		cfg.URL = "jdbc:postgresql://db.internal:5432/orders"
		cfg.Username = "app"
		cfg.MaximumPoolSize = 20
		cfg.MinimumIdle = 5
		cfg.KeepaliveTime = 2 * time.Minute
		cfg.ConnectionTimeout = 3 * time.Second
		cfg.Schema = "sales"
		cfg.ConnectionInitSQL = "SET TIME ZONE 'UTC'"

		// WHEN
		poolConfig, err := pgxPoolConfig(cfg, &nop)

		// THEN
		require.NoError(t, err)
		assert.Equal(t, int32(20), poolConfig.MaxConns)
		assert.Equal(t, int32(5), poolConfig.MinConns)
		assert.Equal(t, 30*time.Minute, poolConfig.MaxConnLifetime)
		assert.Equal(t, 10*time.Minute, poolConfig.MaxConnIdleTime)
		assert.Equal(t, 2*time.Minute, poolConfig.HealthCheckPeriod)
		assert.Equal(t, 3*time.Second, poolConfig.ConnConfig.ConnectTimeout)
		assert.Equal(t, "db.internal", poolConfig.ConnConfig.Host)
		assert.Equal(t, "app", poolConfig.ConnConfig.User)
		assert.Equal(t, "orders", poolConfig.ConnConfig.RuntimeParams["application_name"])
		assert.Equal(t, "sales", poolConfig.ConnConfig.RuntimeParams["search_path"])
		assert.NotNil(t, poolConfig.AfterConnect)
		assert.Nil(t, poolConfig.ConnConfig.Tracer)
	})

	t.Run("it should never expire connections when lifetime and idle timeout are disabled", func(t *testing.T) {
		// GIVEN
		cfg := poolconfig.Default("orders")
		cfg.URL = "postgres://localhost/orders"
		cfg.MaxLifetime = 0
		cfg.IdleTimeout = 0

		// WHEN
		poolConfig, err := pgxPoolConfig(cfg, &nop)

		// THEN
		require.NoError(t, err)
		assert.Equal(t, forever, poolConfig.MaxConnLifetime)
		assert.Equal(t, forever, poolConfig.MaxConnIdleTime)
	})

	t.Run("it should trace queries at the configured level", func(t *testing.T) {
		// GIVEN
		cfg := poolconfig.Default("orders")
		cfg.URL = "postgres://localhost/orders"
		cfg.LogLevel = "info"

		// WHEN
		poolConfig, err := pgxPoolConfig(cfg, &nop)

		// THEN
		require.NoError(t, err)
		tracer, ok := poolConfig.ConnConfig.Tracer.(*tracelog.TraceLog)
		require.True(t, ok)
		assert.Equal(t, tracelog.LogLevelInfo, tracer.LogLevel)
	})

	t.Run("it should reject unknown trace levels", func(t *testing.T) {
		// GIVEN
		cfg := poolconfig.Default("orders")
		cfg.URL = "postgres://localhost/orders"
		cfg.LogLevel = "verbose"

		// WHEN
		_, err := pgxPoolConfig(cfg, &nop)

		// THEN
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid logLevel "verbose"`)
	})
}

func TestZerologAdapter(t *testing.T) {
	t.Run("it should log pgx messages with their data at the matching level", func(t *testing.T) {
		// GIVEN
		var logs bytes.Buffer
		logger := zerolog.New(&logs)
		adapter := zerologAdapter(&logger)

		// WHEN
		adapter.Log(context.Background(), tracelog.LogLevelWarn, "Query", map[string]any{"sql": "SELECT 1"})
		adapter.Log(context.Background(), tracelog.LogLevelNone, "ignored", nil)

		// THEN
		assert.JSONEq(t, `{"level":"warn","sql":"SELECT 1","message":"Query"}`, logs.String())
	})
}
