package godi

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poolSettings struct {
	maxSize int
}

func newPoolSettings() *poolSettings {
	return &poolSettings{maxSize: 10}
}

func TestFactoryMethodProvider(t *testing.T) {
	t.Run("it should name the component after the factory by default", func(t *testing.T) {
		// GIVEN
		factory := newPoolSettings

		// WHEN
		provider, err := NewFactoryMethodProvider(factory)

		// THEN
		require.NoError(t, err)
		names := provider.ListProvidableNames()
		require.Len(t, names, 1)
		assert.Equal(t, "godi-datasource.newPoolSettings", names[0].Identifier())
		assert.Equal(t, reflect.TypeOf(&poolSettings{}), names[0].Type())
		assert.Equal(t, 0, provider.Priority())
	})

	t.Run("it should apply name and priority options", func(t *testing.T) {
		// GIVEN
		factory := newPoolSettings

		// WHEN
		provider, err := NewFactoryMethodProvider(factory, Named("orders.settings"), Priority(5))

		// THEN
		require.NoError(t, err)
		assert.True(t, provider.CanProvide(NewName("orders.settings", reflect.TypeOf(&poolSettings{}))))
		assert.False(t, provider.CanProvide(NewName("orders.settings", StringType)))
		assert.False(t, provider.CanProvide(NewName("billing.settings", reflect.TypeOf(&poolSettings{}))))
		assert.Equal(t, 5, provider.Priority())
	})

	t.Run("it should build one request per parameter", func(t *testing.T) {
		// GIVEN
		factory := func(settings *poolSettings, url string) (*fakePool, error) {
			return &fakePool{dsn: url}, nil
		}

		// WHEN
		provider, err := NewFactoryMethodProvider(factory, Dependencies(Inject.Auto(), Inject.Named("orders.url")))

		// THEN
		require.NoError(t, err)
		deps := provider.Dependencies()
		require.Len(t, deps, 2)
		assert.Equal(t, queryByType{typ: reflect.TypeOf(&poolSettings{})}, deps[0].query)
		assert.Equal(t, queryByName{name: NewName("orders.url", StringType)}, deps[1].query)
	})

	t.Run("it should reject invalid factory signatures", func(t *testing.T) {
		invalids := map[string]any{
			"not a function":        "postgres://localhost",
			"no result":             func() {},
			"second is not error":   func() (*fakePool, string) { return nil, "" },
			"too many results":      func() (*fakePool, error, bool) { return nil, nil, false },
			"variadic dependencies": func(...string) *fakePool { return nil },
		}
		for name, factory := range invalids {
			t.Run("it should reject "+name, func(t *testing.T) {
				// WHEN
				_, err := NewFactoryMethodProvider(factory)

				// THEN
				assert.Error(t, err)
			})
		}
	})

	t.Run("it should call the factory with the given dependencies", func(t *testing.T) {
		// GIVEN
		provider, err := NewFactoryMethodProvider(func(url string) *fakePool {
			return &fakePool{dsn: url}
		})
		require.NoError(t, err)

		// WHEN
		comp, err := provider.Provide(provider.ListProvidableNames()[0], []reflect.Value{reflect.ValueOf("postgres://db/orders")})

		// THEN
		require.NoError(t, err)
		assert.Equal(t, "postgres://db/orders", comp.Interface().(*fakePool).dsn)
	})

	t.Run("it should return the factory error", func(t *testing.T) {
		// GIVEN
		provider, err := NewFactoryMethodProvider(func() (*fakePool, error) {
			return nil, errors.New("too many clients already")
		})
		require.NoError(t, err)

		// WHEN
		_, err = provider.Provide(provider.ListProvidableNames()[0], nil)

		// THEN
		require.Error(t, err)
		assert.Equal(t, "too many clients already", err.Error())
	})

	t.Run("it should recover factory panics", func(t *testing.T) {
		// GIVEN
		provider, err := NewFactoryMethodProvider(func() *fakePool {
			var settings *poolSettings
			return &fakePool{dsn: string(rune(settings.maxSize))}
		})
		require.NoError(t, err)

		// WHEN
		_, err = provider.Provide(provider.ListProvidableNames()[0], nil)

		// THEN
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic calling provider")
	})

	t.Run("it should reject a nil component returned without error", func(t *testing.T) {
		// GIVEN
		provider, err := NewFactoryMethodProvider(func() *fakePool {
			return nil
		})
		require.NoError(t, err)

		// WHEN
		_, err = provider.Provide(provider.ListProvidableNames()[0], nil)

		// THEN
		require.Error(t, err)
		assert.Contains(t, err.Error(), "returned a nil *godi.fakePool without error")
	})

	t.Run("it should reject more dependencies than parameters", func(t *testing.T) {
		// WHEN
		_, err := NewFactoryMethodProvider(
			func(dsn string) *fakePool { return &fakePool{dsn: dsn} },
			Dependencies(Inject.Named("orders.dsn"), Inject.Named("orders.user")),
		)

		// THEN
		require.Error(t, err)
		assert.Contains(t, err.Error(), "takes 1 parameter(s), but 2 dependencies are declared")
	})
}
