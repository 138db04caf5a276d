package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/modelmeta/internal/cli/config"
	"github.com/conduit-lang/modelmeta/internal/cli/ui"
	"github.com/conduit-lang/modelmeta/internal/orm/adapter"
	"github.com/conduit-lang/modelmeta/internal/orm/metacache"
	"github.com/conduit-lang/modelmeta/internal/orm/metadata"
	"github.com/conduit-lang/modelmeta/internal/orm/relations"
	"github.com/conduit-lang/modelmeta/internal/web/introspect"
)

type serveOptions struct {
	host      string
	port      int
	warm      bool
	pingFirst bool
}

// newServeCommand creates the serve command
func newServeCommand(g *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Serve model metadata over HTTP",
		Long: `Start the read-only introspection API.

Models are read from the given path, or from models.path in modelmeta.yml.
Compiled records are cached in memory or in Redis depending on cache.backend.`,
		Example: `  # Serve the models of ./models on the configured address
  modelmeta serve

  # Precompile every model and check the data sources first
  modelmeta serve ./app/models --warm --ping --port 9000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cmd.Flags().Changed("host") {
				cfg.Server.Host = opts.host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = opts.port
			}
			path := cfg.Models.Path
			if len(args) == 1 {
				path = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, cleanup, err := buildServer(ctx, cfg, path, opts, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := srv.Listen(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Serving model metadata on http://"+srv.Addr(), g.noColor))
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "Override server.host")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Override server.port")
	cmd.Flags().BoolVar(&opts.warm, "warm", false, "Compile and cache every model before serving")
	cmd.Flags().BoolVar(&opts.pingFirst, "ping", false, "Check every data source connection before serving")

	return cmd
}

// buildServer wires the reader, the data source catalog, the cached
// compiler, the relation registry and the HTTP API
func buildServer(ctx context.Context, cfg *config.Config, path string, opts *serveOptions, logger *zap.Logger) (*introspect.Server, func(), error) {
	reader, err := readModels(path)
	if err != nil {
		return nil, nil, err
	}

	catalog, err := adapter.NewCatalog(cfg.AdapterSources(), adapter.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{catalog.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("cleanup failed", zap.Error(err))
			}
		}
	}

	if opts.pingFirst {
		for id, err := range catalog.Ping(ctx) {
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("data source %s unreachable: %w", id, err)
			}
		}
	}

	compiler, err := metadata.NewCompiler(reader, catalog, metadata.WithLogger(logger))
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	cache, err := newCache(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, cache.Close)

	cached := metacache.NewCachedCompiler(compiler, cache,
		metacache.WithTTL(cfg.Cache.TTL),
		metacache.WithLogger(logger),
	)
	if opts.warm {
		if err := cached.Warm(ctx, reader.Models()); err != nil {
			cleanup()
			return nil, nil, err
		}
		logger.Info("metadata cache warmed", zap.Int("models", len(reader.Models())))
	}

	registry := relations.NewModelRegistry()
	handler := introspect.NewHandler(introspect.Deps{
		Models:   reader.Models,
		Metadata: cached,
		Columns:  compiler,
		Wirer:    relations.NewWirer(reader, registry, logger),
		Registry: registry,
		Logger:   logger,
	})

	srv, err := introspect.NewServer(introspect.DefaultServerConfig(cfg.Server.Address()), handler.Routes(), logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return srv, cleanup, nil
}

func newCache(ctx context.Context, cfg *config.Config) (metacache.Cache, error) {
	if cfg.Cache.Backend == config.BackendRedis {
		return metacache.NewRedisCache(ctx, cfg.RedisSettings())
	}
	return metacache.NewMemoryCache(cfg.CacheSettings()), nil
}
