package godi

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyProvider(t *testing.T) {
	newSource := func() *viper.Viper {
		v := viper.New()
		v.Set("datasource.orders.jdbcUrl", "jdbc:postgresql://localhost/orders")
		v.Set("datasource.orders.maximumPoolSize", 20)
		v.Set("server.port", "8080")
		return v
	}

	t.Run("it should provide every property as a string component", func(t *testing.T) {
		// GIVEN
		resolver := New()
		resolver.MustRegister(NewPropertyProvider(newSource(), ""))

		// WHEN
		url, err := ResolveNamed[string](resolver, "datasource.orders.jdbcurl")
		require.NoError(t, err)
		maxSize, err := ResolveNamed[string](resolver, "datasource.orders.maximumpoolsize")
		require.NoError(t, err)

		// THEN
		assert.Equal(t, "jdbc:postgresql://localhost/orders", url)
		assert.Equal(t, "20", maxSize)
	})

	t.Run("it should strip the prefix from the provided names", func(t *testing.T) {
		// GIVEN
		provider := NewPropertyProvider(newSource(), "datasource")

		// WHEN
		names := provider.ListProvidableNames()

		// THEN
		assert.ElementsMatch(t, []Name{
			NewName("orders.jdbcurl", StringType),
			NewName("orders.maximumpoolsize", StringType),
		}, names)
		assert.True(t, provider.CanProvide(NewName("orders.jdbcUrl", StringType)))
		assert.False(t, provider.CanProvide(NewName("server.port", StringType)))
		assert.False(t, provider.CanProvide(NewName("orders.jdbcurl", TypeOf[int]())))
	})

	t.Run("it should be usable as a registration condition", func(t *testing.T) {
		// GIVEN
		resolver := New()
		resolver.MustRegister(NewPropertyProvider(newSource(), ""))

		// WHEN
		resolver.MustRegister(newFakePool, When("server.port").Equals("8080"))

		// THEN
		_, err := Resolve[*fakePool](resolver)
		assert.NoError(t, err)
	})
}
