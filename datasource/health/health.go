// Package health exposes the state of the datasources of a registry over HTTP.
package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/a-peyrard/godi-datasource/datasource"
	"github.com/a-peyrard/godi-datasource/option"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"

	defaultPingTimeout = 5 * time.Second
)

type (
	// Lister gives access to the datasources to report on, *datasource.Registry implements it.
	Lister interface {
		Names() []string
		Opened() []datasource.DataSource
		Get(ctx context.Context, name string) (datasource.DataSource, error)
	}

	Options struct {
		pingTimeout time.Duration
	}

	handler struct {
		lister      Lister
		pingTimeout time.Duration
	}
)

// WithPingTimeout bounds the time given to a datasource to answer a health check.
func WithPingTimeout(timeout time.Duration) option.Option[Options] {
	return func(opts *Options) {
		opts.pingTimeout = timeout
	}
}

// Register adds the datasource routes to the router:
//
//	GET /datasources               names of the datasources and stats of the opened ones
//	GET /datasources/:name/health  UP (200) or DOWN (503), 404 for an unknown datasource
func Register(router gin.IRouter, lister Lister, opts ...option.Option[Options]) {
	options := option.Build(&Options{pingTimeout: defaultPingTimeout}, opts...)
	h := &handler{lister: lister, pingTimeout: options.pingTimeout}

	group := router.Group("/datasources")
	group.GET("", h.list)
	group.GET("/:name/health", h.health)
}

func (h *handler) list(c *gin.Context) {
	stats := lo.SliceToMap(h.lister.Opened(), func(ds datasource.DataSource) (string, datasource.Stats) {
		return ds.Name(), ds.Stats()
	})
	c.JSON(http.StatusOK, gin.H{
		"names": h.lister.Names(),
		"stats": stats,
	})
}

func (h *handler) health(c *gin.Context) {
	name := c.Param("name")

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.pingTimeout)
	defer cancel()

	ds, err := h.lister.Get(ctx, name)
	if errors.Is(err, datasource.ErrUnknownDataSource) {
		c.JSON(http.StatusNotFound, gin.H{
			"name":  name,
			"error": err.Error(),
		})
		return
	}
	if err == nil {
		err = ds.Ping(ctx)
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"name":   name,
			"status": StatusDown,
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":   name,
		"status": StatusUp,
		"stats":  ds.Stats(),
	})
}
