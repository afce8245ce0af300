package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	TestConfig struct {
		Primary *PoolTestConfig
		Replica *PoolTestConfig
	}
	PoolTestConfig struct {
		URL     string `mapstructure:"url"`
		MaxSize int
	}
	MultipleWordsConfig struct {
		FooBar     int
		CustomerId int
	}
)

func (c *PoolTestConfig) ApplyDefault() {
	if c.MaxSize == 0 {
		c.MaxSize = 10
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("it should load nested structs from env vars", func(t *testing.T) {
		// GIVEN
		t.Setenv("TEST_PRIMARY_URL", "postgres://primary/app")
		t.Setenv("TEST_PRIMARY_MAX_SIZE", "23")
		t.Setenv("TEST_REPLICA_URL", "postgres://replica/app")

		// WHEN
		conf, err := Load[TestConfig](WithEnvPrefix("TEST"))

		// THEN
		require.NoError(t, err)
		assert.Equal(t, "postgres://primary/app", conf.Primary.URL)
		assert.Equal(t, 23, conf.Primary.MaxSize)
		assert.Equal(t, "postgres://replica/app", conf.Replica.URL)
	})

	t.Run("it should initialize nested structs and apply defaults", func(t *testing.T) {
		// WHEN
		conf, err := Load[TestConfig](WithEnvPrefix("TEST"))

		// THEN
		require.NoError(t, err)
		require.NotNil(t, conf.Primary)
		assert.Equal(t, "", conf.Primary.URL)
		assert.Equal(t, 10, conf.Primary.MaxSize)
		assert.Equal(t, 10, conf.Replica.MaxSize)
	})

	t.Run("it should bind correctly multiple words variables", func(t *testing.T) {
		// GIVEN
		t.Setenv("TEST_FOO_BAR", "12")
		t.Setenv("TEST_CUSTOMER_ID", "66")

		// WHEN
		conf, err := Load[MultipleWordsConfig](WithEnvPrefix("TEST"))

		// THEN
		require.NoError(t, err)
		assert.Equal(t, 12, conf.FooBar)
		assert.Equal(t, 66, conf.CustomerId)
	})

	t.Run("it should load from a file", func(t *testing.T) {
		// GIVEN
		path := writeFile(t, "app.yaml", "primary:\n  url: postgres://file/app\n  maxsize: 4\n")

		// WHEN
		conf, err := Load[TestConfig](WithFile(path))

		// THEN
		require.NoError(t, err)
		assert.Equal(t, "postgres://file/app", conf.Primary.URL)
		assert.Equal(t, 4, conf.Primary.MaxSize)
	})
}

func TestNew(t *testing.T) {
	t.Run("it should expose file properties with lower-cased keys", func(t *testing.T) {
		// GIVEN
		path := writeFile(t, "app.yaml", `
datasource:
  orders:
    jdbcUrl: postgres://localhost/orders
    maximumPoolSize: 5
`)

		// WHEN
		cfg, err := New(WithFile(path))

		// THEN
		require.NoError(t, err)
		assert.Equal(t, []string{"datasource.orders.jdbcurl", "datasource.orders.maximumpoolsize"}, cfg.SortedKeys())
		assert.Equal(t, "5", cfg.GetString("datasource.orders.maximumPoolSize"))
	})

	t.Run("it should let env vars override file properties", func(t *testing.T) {
		// GIVEN
		path := writeFile(t, "app.yaml", "datasource:\n  orders:\n    password: from-file\n")
		t.Setenv("APP_DATASOURCE_ORDERS_PASSWORD", "from-env")

		// WHEN
		cfg, err := New(WithFile(path), WithEnvPrefix("APP"))

		// THEN
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.GetString("datasource.orders.password"))
	})

	t.Run("it should merge several files", func(t *testing.T) {
		// GIVEN
		base := writeFile(t, "base.yaml", "datasource:\n  orders:\n    url: postgres://base\n    username: app\n")
		override := writeFile(t, "override.json", `{"datasource": {"orders": {"url": "postgres://override"}}}`)

		// WHEN
		cfg, err := New(WithFile(base), WithFile(override))

		// THEN
		require.NoError(t, err)
		assert.Equal(t, "postgres://override", cfg.GetString("datasource.orders.url"))
		assert.Equal(t, "app", cfg.GetString("datasource.orders.username"))
	})

	t.Run("it should apply defaults and flags", func(t *testing.T) {
		// GIVEN
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("serve", "", "")
		require.NoError(t, flags.Parse([]string{"--serve", ":9090"}))

		// WHEN
		cfg, err := New(WithDefaults(map[string]any{"timeout": "5s", "serve": ":8080"}), WithFlags(flags))

		// THEN
		require.NoError(t, err)
		assert.Equal(t, "5s", cfg.GetString("timeout"))
		assert.Equal(t, ":9090", cfg.GetString("serve"))
	})

	t.Run("it should fail on a missing file", func(t *testing.T) {
		// WHEN
		_, err := New(WithFile(filepath.Join(t.TempDir(), "missing.yaml")))

		// THEN
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unable to read config file")
	})
}

func TestConfig_Flatten(t *testing.T) {
	t.Run("it should return properties relative to the prefix", func(t *testing.T) {
		// GIVEN
		cfg, err := New(WithDefaults(map[string]any{
			"datasource.orders.url":     "postgres://orders",
			"datasource.orders.minIdle": 2,
			"datasource.users.url":      "postgres://users",
			"server.port":               8080,
		}))
		require.NoError(t, err)

		// WHEN
		flat := cfg.Flatten("datasource.orders")

		// THEN
		assert.Equal(t, map[string]string{"url": "postgres://orders", "minidle": "2"}, flat)
	})
}
