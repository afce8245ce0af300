package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-peyrard/godi-datasource/datasource"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDataSource struct {
	name    string
	pingErr error
}

func (s *stubDataSource) Name() string               { return s.name }
func (s *stubDataSource) Ping(context.Context) error { return s.pingErr }
func (s *stubDataSource) Stats() datasource.Stats {
	return datasource.Stats{MaxOpen: 10, Open: 2, Idle: 2}
}
func (s *stubDataSource) Close() error { return nil }

func newRouter(t *testing.T, openErr error, pingErr error) (*gin.Engine, *datasource.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := datasource.NewRegistry(
		datasource.FactoryFunc(func(_ context.Context, name string, _ datasource.Properties) (datasource.DataSource, error) {
			if openErr != nil {
				return nil, openErr
			}
			return &stubDataSource{name: name, pingErr: pingErr}, nil
		}),
		map[string]datasource.Properties{
			"orders":  {"url": "postgres://db/orders"},
			"billing": {"url": "postgres://db/billing"},
		},
	)
	t.Cleanup(func() { _ = registry.Close() })

	engine := gin.New()
	Register(engine, registry)
	return engine, registry
}

func get(engine *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	engine.ServeHTTP(rec, req)

	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestList(t *testing.T) {
	t.Run("it should list all names and the stats of opened datasources only", func(t *testing.T) {
		// GIVEN
		engine, registry := newRouter(t, nil, nil)
		_, err := registry.Get(context.Background(), "orders")
		require.NoError(t, err)

		// WHEN
		rec, body := get(engine, "/datasources")

		// THEN
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []any{"billing", "orders"}, body["names"])
		stats := body["stats"].(map[string]any)
		assert.Len(t, stats, 1)
		assert.Equal(t, float64(10), stats["orders"].(map[string]any)["maxOpen"])
	})
}

func TestHealth(t *testing.T) {
	t.Run("it should report an healthy datasource as up", func(t *testing.T) {
		// GIVEN
		engine, _ := newRouter(t, nil, nil)

		// WHEN
		rec, body := get(engine, "/datasources/orders/health")

		// THEN
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, StatusUp, body["status"])
		assert.Equal(t, "orders", body["name"])
	})

	t.Run("it should report a datasource failing its ping as down", func(t *testing.T) {
		// GIVEN
		engine, _ := newRouter(t, nil, errors.New("connection refused"))

		// WHEN
		rec, body := get(engine, "/datasources/orders/health")

		// THEN
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, StatusDown, body["status"])
		assert.Contains(t, body["error"], "connection refused")
	})

	t.Run("it should report a datasource failing to open as down", func(t *testing.T) {
		// GIVEN
		engine, _ := newRouter(t, errors.New("no route to host"), nil)

		// WHEN
		rec, body := get(engine, "/datasources/billing/health")

		// THEN
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, StatusDown, body["status"])
		assert.Contains(t, body["error"], "no route to host")
	})

	t.Run("it should answer not found for an unknown datasource", func(t *testing.T) {
		// GIVEN
		engine, _ := newRouter(t, nil, nil)

		// WHEN
		rec, body := get(engine, "/datasources/inventory/health")

		// THEN
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, body["error"], "unknown datasource")
	})
}
