package pool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/a-peyrard/godi-datasource/datasource"
	"github.com/a-peyrard/godi-datasource/datasource/pool/poolconfig"
	"github.com/rs/zerolog"
)

type (
	// checkedDataSource tells apart the failures to get a connection from the failures of the test query.
	checkedDataSource interface {
		datasource.DataSource
		check(ctx context.Context) error
	}

	acquireError struct {
		err error
	}
)

func (e *acquireError) Error() string {
	return fmt.Sprintf("failed to acquire a connection: %v", e.err)
}

func (e *acquireError) Unwrap() error {
	return e.err
}

func isAcquireError(err error) bool {
	var acquireErr *acquireError
	return errors.As(err, &acquireErr)
}

// checkStartup tries the pool according to its initializationFailTimeout:
// a positive timeout retries until it expires, zero tries once and only fails on a test query error,
// a negative timeout skips the check.
func checkStartup(
	ctx context.Context,
	cfg *poolconfig.Config,
	ds checkedDataSource,
	retryInterval time.Duration,
	logger *zerolog.Logger,
) error {
	timeout := cfg.InitializationFailTimeout
	switch {
	case timeout < 0:
		return nil

	case timeout == 0:
		err := attempt(ctx, cfg, ds)
		if err != nil && isAcquireError(err) {
			logger.Warn().Err(err).Msg("database not reachable yet, the pool will connect on first use")
			return nil
		}
		return err

	default:
		deadline := time.Now().Add(timeout)
		for attempts := 1; ; attempts++ {
			err := attempt(ctx, cfg, ds)
			if err == nil {
				return nil
			}
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return fmt.Errorf("pool %s failed to initialize after %d attempt(s):\n\t%w", cfg.PoolName, attempts, err)
			}
			logger.Debug().Err(err).Int("attempt", attempts).Msg("startup check failed, retrying")

			timer := time.NewTimer(min(retryInterval, remaining))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("pool %s initialization interrupted:\n\t%w", cfg.PoolName, errors.Join(ctx.Err(), err))
			case <-timer.C:
			}
		}
	}
}

// attempt bounds a check by the connection timeout, a zero timeout waits as long as ctx allows.
func attempt(ctx context.Context, cfg *poolconfig.Config, ds checkedDataSource) error {
	if cfg.ConnectionTimeout == 0 {
		return ds.check(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectionTimeout)
	defer cancel()
	return ds.check(ctx)
}

// ping bounds a check by the validation timeout.
func ping(ctx context.Context, cfg *poolconfig.Config, check func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.ValidationTimeout)
	defer cancel()
	return check(ctx)
}
