package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"gradepulse/internal/chart"
	"gradepulse/internal/config"
	"gradepulse/internal/dataprocessing"
	"gradepulse/internal/infrastructure"
	"gradepulse/internal/metrics"
	"gradepulse/internal/notify"
	"gradepulse/internal/pipeline"
	"gradepulse/internal/store"
	"gradepulse/internal/telegram"
	transport "gradepulse/internal/transport/http"
	"gradepulse/internal/validation"
)

// AppName identifies the service in startup logs
const AppName = "gradepulse"

// Application is the assembled service: pipeline, Telegram edge and
// dashboard server behind one lifecycle.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     store.Store
	Metrics   *metrics.Metrics
	Processor *pipeline.Processor
	Listener  *telegram.Listener
	Server    *http.Server

	closeStore func() error
}

// NewApplication loads configuration and wires every component
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.Int("port", cfg.Server.Port),
		slog.String("level", cfg.Logging.Level))

	validator := validation.NewFileValidator(logger)
	for _, dir := range []string{cfg.Paths.DownloadDir, cfg.Paths.ChartDir} {
		if err := validator.ValidateOutputDirectory(dir); err != nil {
			return nil, err
		}
	}

	app := &Application{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices builds the store, the pipeline and the Telegram
// edge in dependency order.
func (a *Application) initializeServices() error {
	cfg := a.Config

	if cfg.Database.DSN != "" {
		pg, err := store.NewPostgresStore(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pg.EnsureSchema(context.Background()); err != nil {
			pg.Close()
			return err
		}
		a.Store = pg
		a.closeStore = pg.Close
		a.Logger.Info("using postgres store")
	} else {
		a.Store = store.NewMemoryStore()
		a.Logger.Warn("no database DSN configured, using in-memory store")
	}

	a.Metrics = metrics.New()
	renderer := chart.NewRenderer(cfg.Paths.ChartDir, a.Logger)

	var deliverer notify.Deliverer
	var bot *telegram.Bot
	if cfg.Telegram.BotToken != "" {
		var err error
		bot, err = telegram.NewBot(cfg.Telegram.BotToken, a.Logger)
		if err != nil {
			return err
		}
		deliverer = bot
	} else {
		a.Logger.Warn("no bot token configured, notifications go to the log only")
		deliverer = notify.NewConsoleDeliverer(a.Logger)
	}

	dispatcher := notify.NewDispatcher(deliverer,
		cfg.Dispatch.MessagesPerSecond, cfg.Dispatch.Burst, a.Logger)

	a.Processor = pipeline.NewProcessor(
		dataprocessing.NewLoader(a.Logger),
		dataprocessing.NewHeuristicResolver(),
		dataprocessing.NewStatsEngine(a.Logger),
		renderer,
		a.Store,
		dispatcher,
		a.Metrics,
		a.Logger,
	)

	if bot != nil {
		a.Listener = telegram.NewListener(bot, a.Store, a.Processor,
			cfg.Paths.DownloadDir, int(cfg.Telegram.PollTimeout.Seconds()), a.Logger)
	}

	return nil
}

// createServer builds the dashboard HTTP server
func (a *Application) createServer() {
	router := transport.NewRouter(transport.RouterConfig{
		Store:             a.Store,
		Registry:          a.Metrics.Registry,
		AdminPasswordHash: a.Config.Admin.PasswordHash,
		Logger:            a.Logger,
	})

	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run starts the HTTP server and the Telegram listener and blocks until
// a shutdown signal arrives or a component fails fatally.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("dashboard listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if a.Listener != nil {
		g.Go(func() error {
			if err := a.Listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("telegram listener error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	if a.closeStore != nil {
		if cerr := a.closeStore(); cerr != nil {
			a.Logger.Error("failed to close store", slog.String("error", cerr.Error()))
		}
	}
	if cerr := infrastructure.CloseLogFile(); cerr != nil {
		a.Logger.Error("failed to close log file", slog.String("error", cerr.Error()))
	}

	return err
}
