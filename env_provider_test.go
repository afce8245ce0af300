package godi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvProvider(t *testing.T) {
	t.Run("it should provide environment variables by name", func(t *testing.T) {
		// GIVEN
		t.Setenv("GODI_TEST_ORDERS_URL", "postgres://localhost/orders")
		resolver := New()
		resolver.MustRegister(&EnvProvider{})

		// WHEN
		url, err := ResolveNamed[string](resolver, "GODI_TEST_ORDERS_URL")

		// THEN
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/orders", url)
	})

	t.Run("it should see variables set after the registration", func(t *testing.T) {
		// GIVEN
		provider := &EnvProvider{}
		assert.False(t, provider.CanProvide(NewName("GODI_TEST_LATE_VARIABLE", StringType)))

		// WHEN
		t.Setenv("GODI_TEST_LATE_VARIABLE", "late")

		// THEN
		assert.True(t, provider.CanProvide(NewName("GODI_TEST_LATE_VARIABLE", StringType)))
		assert.Contains(t, provider.ListProvidableNames(), NewName("GODI_TEST_LATE_VARIABLE", StringType))
	})

	t.Run("it should only provide strings", func(t *testing.T) {
		// GIVEN
		t.Setenv("GODI_TEST_POOL_SIZE", "10")
		provider := &EnvProvider{}

		// WHEN & THEN
		assert.False(t, provider.CanProvide(NewName("GODI_TEST_POOL_SIZE", TypeOf[int]())))
	})
}
