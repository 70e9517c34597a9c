package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/adapters/charts"
	"github.com/ewilliams-labs/encore/internal/adapters/csvfile"
	"github.com/ewilliams-labs/encore/internal/adapters/firestore"
	"github.com/ewilliams-labs/encore/internal/adapters/ollama"
	"github.com/ewilliams-labs/encore/internal/adapters/rest"
	"github.com/ewilliams-labs/encore/internal/adapters/spotify"
	"github.com/ewilliams-labs/encore/internal/adapters/sqlite"
	"github.com/ewilliams-labs/encore/internal/adapters/ticketmaster"
	"github.com/ewilliams-labs/encore/internal/config"
	"github.com/ewilliams-labs/encore/internal/core/ports"
	"github.com/ewilliams-labs/encore/internal/core/services"
	"github.com/ewilliams-labs/encore/internal/logging"
	"github.com/ewilliams-labs/encore/internal/worker"
)

func main() {
	fx.New(
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Provide(
			config.Provide,
			logging.Provide,

			// Driven adapters
			fx.Annotate(newSpotify, fx.As(new(ports.SpotifyProvider))),
			fx.Annotate(newExporter, fx.As(new(ports.TableExporter))),
			fx.Annotate(newEvents, fx.As(new(ports.EventFinder))),
			newRepository,
			newClassifier,
			charts.NewRenderer,

			// Core
			newAnalyzer,
			newRecommender,

			// Driving adapters
			fx.Annotate(newPool, fx.As(new(rest.JobQueue))),
			rest.NewHandler,
		),
		fx.Invoke(startServer),
	).Run()
}

func newSpotify(cfg config.Config, logger *zap.Logger) *spotify.Client {
	return spotify.NewClient(cfg.Spotify, cfg.HTTPClient, logger)
}

func newExporter(cfg config.Config, logger *zap.Logger) *csvfile.Writer {
	return csvfile.NewWriter(cfg.Export, logger)
}

func newEvents(cfg config.Config, logger *zap.Logger) *ticketmaster.Client {
	return ticketmaster.NewClient(cfg.Ticketmaster, cfg.HTTPClient, logger)
}

// newRepository opens the configured store and closes it on shutdown.
func newRepository(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (ports.AnalysisRepository, error) {
	var (
		repo   ports.AnalysisRepository
		closer func() error
	)

	switch cfg.Storage.Driver {
	case "firestore":
		fs, err := firestore.Provide(context.Background(), cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open firestore: %w", err)
		}
		repo, closer = fs, fs.Close
	default:
		db, err := sqlite.Provide(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		repo, closer = db, db.Close
	}
	logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return closer()
		},
	})
	return repo, nil
}

// newClassifier returns nil when no Ollama host is configured, which makes
// the recommender use artist genres.
func newClassifier(cfg config.Config, logger *zap.Logger) ports.GenreClassifier {
	if cfg.Ollama.Host == "" {
		logger.Info("ollama host not set, using artist genre classifier")
		return nil
	}
	return ollama.NewClient(cfg.Ollama, logger)
}

func newAnalyzer(cfg config.Config, sp ports.SpotifyProvider, exporter ports.TableExporter, repo ports.AnalysisRepository, logger *zap.Logger) *services.Analyzer {
	return services.NewAnalyzer(sp, exporter, repo, cfg.Export, logger)
}

func newRecommender(repo ports.AnalysisRepository, classifier ports.GenreClassifier, events ports.EventFinder, logger *zap.Logger) *services.Recommender {
	return services.NewRecommender(repo, classifier, events, logger)
}

func newPool(lc fx.Lifecycle, cfg config.Config, analyzer *services.Analyzer, logger *zap.Logger) *worker.Pool {
	pool := worker.NewPool(analyzer, cfg.Worker, logger)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			pool.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return pool.Stop(ctx)
		},
	})
	return pool
}

func startServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, handler *rest.Handler, logger *zap.Logger) {
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", server.Addr, err)
			}
			logger.Info("encore api listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()
			logger.Info("shutting down server")
			return server.Shutdown(ctx)
		},
	})
}
