package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// shutdownGracePeriod bounds how long an HTTP server may take to drain once its context is done.
const shutdownGracePeriod = 5 * time.Second

// Runnable represents a component that can be run with a context.
type Runnable interface {
	Run(ctx context.Context) error
}

// RunnableFunc adapts a plain function to a Runnable.
type RunnableFunc func(ctx context.Context) error

func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// RunAll runs all the provided runnables concurrently and waits for all of them to finish.
//
// This method is blocking and will return an error if any of the runnables returns an error.
// The first failure cancels the context given to the other runnables.
func RunAll(parentCtx context.Context, runnables ...Runnable) error {
	group, ctx := errgroup.WithContext(parentCtx)

	for _, runnable := range runnables {
		group.Go(func() error {
			return runnable.Run(ctx)
		})
	}

	return group.Wait()
}

// WithSyscallKillableContext returns a context cancelled on SIGINT or SIGTERM.
func WithSyscallKillableContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// HTTPServer wraps an http.Server as a Runnable: it serves until the context is done, then shuts the server down.
func HTTPServer(srv *http.Server) Runnable {
	return RunnableFunc(func(ctx context.Context) error {
		serveErr := make(chan error, 1)
		go func() {
			serveErr <- srv.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("http server on %s stopped:\n\t%w", srv.Addr, err)
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown http server on %s:\n\t%w", srv.Addr, err)
		}
		return nil
	})
}
