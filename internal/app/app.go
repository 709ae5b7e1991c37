package app

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"earnings-watch/internal/alerting"
	"earnings-watch/internal/api"
	"earnings-watch/internal/config"
	"earnings-watch/internal/earnings"
	"earnings-watch/internal/fetcher"
	"earnings-watch/internal/metrics"
	"earnings-watch/internal/scheduler"
	"earnings-watch/internal/service"
	"earnings-watch/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Out receives command output. Defaults to stdout.
	Out io.Writer

	metrics *metrics.Recorder
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config:  cfg,
		Logger:  logger.With().Str("component", "app").Logger(),
		Out:     os.Stdout,
		metrics: metrics.New(),
	}
}

func (a *App) newGatherer() (*fetcher.Gatherer, error) {
	sources, err := fetcher.SelectSources(a.Config.Sources.Enabled, time.Now)
	if err != nil {
		return nil, err
	}

	transport := fetcher.NewHTTPTransport(fetcher.TransportOptions{
		Timeout:   a.Config.Sources.RequestTimeout,
		UserAgent: a.Config.Sources.UserAgent,
	}, a.Logger)

	return fetcher.NewGatherer(sources, transport, a.metrics, a.Logger), nil
}

func (a *App) newEstimator() (*service.Estimator, error) {
	gatherer, err := a.newGatherer()
	if err != nil {
		return nil, err
	}
	loc, err := a.Config.Location()
	if err != nil {
		return nil, err
	}
	return service.NewEstimator(gatherer, a.metrics, service.EstimatorOptions{Location: loc}, a.Logger), nil
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	if a.Config.Alerting.Enabled {
		return alerting.NewLogNotifier(a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	store, err := storage.Open(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newServer(estimator service.EstimateProvider) *api.Server {
	return api.NewServer(api.Options{
		Addr:         a.Config.Server.Addr,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}, estimator, a.metrics.Handler(), a.Logger)
}

// RunOptions configure the run command.
type RunOptions struct {
	// Serve also starts the HTTP API next to the watcher.
	Serve bool
}

// Run executes the long-running watch service.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; watchlist and advisory lock disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	estimator, err := a.newEstimator()
	if err != nil {
		return err
	}
	loc, err := a.Config.Location()
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Options{
		Interval:        a.Config.Scheduler.Interval,
		AlignToStart:    a.Config.Scheduler.AlignToBucket,
		StartupDelay:    a.Config.Scheduler.StartupDelay,
		TradingDaysOnly: a.Config.Scheduler.TradingDaysOnly,
		Location:        loc,
		RunOnStart:      a.Config.Scheduler.RunOnStart,
	}, a.Logger)

	var watchlist storage.WatchlistStore
	if store != nil {
		watchlist = store
	}
	watcher := service.New(a.Config, sched, estimator, watchlist, a.newNotifier(), a.Logger)

	a.Logger.Info().Strs("symbols", watcher.Symbols(ctx)).Msg("starting watch service")

	var wg conc.WaitGroup
	var serveErr error
	if opts.Serve {
		server := a.newServer(estimator)
		wg.Go(func() {
			serveErr = stopped(server.Start(ctx))
			if serveErr != nil {
				cancel()
			}
		})
	}

	err = stopped(watcher.Run(ctx))
	cancel()
	wg.Wait()

	if err = errors.Join(err, serveErr); err != nil {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("watch service stopped")
	return nil
}

// Serve runs only the HTTP API.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	estimator, err := a.newEstimator()
	if err != nil {
		return err
	}
	if err := stopped(a.newServer(estimator).Start(ctx)); err != nil {
		a.Logger.Error().Err(err).Msg("API server terminated with error")
		return err
	}
	a.Logger.Info().Msg("API server stopped")
	return nil
}

func stopped(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// GuessOptions configure the guess command.
type GuessOptions struct {
	Symbols []string
	// Today overrides the reference date. Zero means the current market date.
	Today earnings.Date
	JSON  bool
}

// ExportOptions hold parameters for exporting a single estimate.
type ExportOptions struct {
	Symbol  string
	Today   earnings.Date
	PNGPath string
	CSVPath string
}
