// Command datasource-check opens and validates every datasource of a configuration,
// then optionally serves their health over HTTP until interrupted.
//
//	datasource-check --config app.yaml --env-prefix APP --serve :8080
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	godi "github.com/a-peyrard/godi-datasource"
	"github.com/a-peyrard/godi-datasource/config"
	"github.com/a-peyrard/godi-datasource/datasource"
	"github.com/a-peyrard/godi-datasource/datasource/health"
	"github.com/a-peyrard/godi-datasource/datasource/pool"
	"github.com/a-peyrard/godi-datasource/runner"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

const (
	flagConfig    = "config"
	flagEnvPrefix = "env-prefix"
	flagServe     = "serve"
	flagTimeout   = "timeout"
	flagLogLevel  = "log-level"
)

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("datasource-check", pflag.ContinueOnError)
	flags.String(flagConfig, "", "configuration file (yaml, toml, json)")
	flags.String(flagEnvPrefix, "", "prefix of the environment variables overriding the configuration")
	flags.String(flagServe, "", "address serving the datasources health, nothing is served when empty")
	flags.Duration(flagTimeout, 30*time.Second, "time given to all the datasources to open and answer a ping")
	flags.String(flagLogLevel, "info", "log level")
	return flags
}

func newLogger(level string) (*zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", level, err)
	}

	var writer io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger := zerolog.New(writer).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return &logger, nil
}

func newHealthServer(registry *datasource.Registry, address string) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.Register(engine, registry)

	return &http.Server{
		Addr:              address,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func main() {
	ctx, cancel := runner.WithSyscallKillableContext(context.Background())
	err := run(ctx, os.Args[1:])
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "datasource-check: %v\n", err)
		os.Exit(1)
	}
}

// run validates the configured datasources, then serves their health until ctx is done if an address is set.
func run(ctx context.Context, args []string) error {
	flags := newFlags()
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	configFile, _ := flags.GetString(flagConfig)
	envPrefix, _ := flags.GetString(flagEnvPrefix)

	cfg, err := config.New(
		config.WithFile(configFile),
		config.WithEnvPrefix(envPrefix),
		config.WithFlags(flags),
	)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.GetString(flagLogLevel))
	if err != nil {
		return err
	}

	resolver := godi.New(godi.WithLogger(logger))
	defer func() {
		if err := resolver.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close resolver")
		}
	}()

	resolver.MustRegister(godi.ToStaticProvider(cfg), godi.Description("Command line configuration"))
	resolver.MustRegister(godi.NewPropertyProvider(cfg, ""))
	if err := resolver.Install(pool.NewExtension(pool.WithLogger(logger))); err != nil {
		return err
	}
	registryName := datasource.RegistryName("")
	if err := resolver.Register(
		newHealthServer,
		godi.Dependencies(godi.Inject.Named(registryName), godi.Inject.Named(flagServe)),
		godi.When(flagServe).NotEquals(""),
		godi.Unmanaged(),
	); err != nil {
		return err
	}
	logger.Debug().Msg(resolver.Describe())

	registry, err := godi.ResolveNamed[*datasource.Registry](resolver, registryName)
	if err != nil {
		return err
	}
	if len(registry.Names()) == 0 {
		logger.Warn().Msg("no datasource configured")
	}

	validateCtx, cancelValidate := context.WithTimeout(ctx, cfg.GetDuration(flagTimeout))
	err = registry.ValidateAll(validateCtx)
	cancelValidate()
	if err != nil {
		return err
	}
	for _, ds := range registry.Opened() {
		logger.Info().
			Str("datasource", ds.Name()).
			Interface("stats", ds.Stats()).
			Msg("datasource is healthy")
	}

	srv, found, err := godi.TryResolve[*http.Server](resolver)
	if err != nil || !found {
		return err
	}
	logger.Info().Str("address", srv.Addr).Msg("serving datasources health")
	return runner.RunAll(ctx, runner.HTTPServer(srv))
}
