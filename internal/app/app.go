// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/formleszs/music-app/internal/adapter/audio/beep"
	"github.com/formleszs/music-app/internal/adapter/audio/mock"
	"github.com/formleszs/music-app/internal/adapter/auth"
	"github.com/formleszs/music-app/internal/adapter/catalog"
	"github.com/formleszs/music-app/internal/adapter/eventbus"
	"github.com/formleszs/music-app/internal/adapter/repository/file"
	"github.com/formleszs/music-app/internal/adapter/repository/memory"
	"github.com/formleszs/music-app/internal/adapter/repository/preferences"
	fyneui "github.com/formleszs/music-app/internal/adapter/ui/fyne"
	"github.com/formleszs/music-app/internal/config"
	"github.com/formleszs/music-app/internal/logger"
	"github.com/formleszs/music-app/internal/ports"
	"github.com/formleszs/music-app/internal/service"
)

// ErrHeadless is returned by Run for an application built without a window.
var ErrHeadless = errors.New("application has no window")

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for the CLI commands
type Application struct {
	// Core dependencies
	cfg     config.Config
	logger  *slog.Logger
	fyneApp fyne.App

	// Infrastructure
	eventBus    ports.EventBus
	audioEngine ports.AudioEngine
	metadata    ports.MetadataReader
	authClient  ports.AuthClient
	source      ports.CatalogSource
	sessionRepo ports.SessionRepository
	closers     []io.Closer

	// Services
	catalogService *service.CatalogService
	playerService  *service.PlayerService
	ratingService  *service.RatingService
	sessionService *service.SessionService
	libraryService *service.LibraryService

	// UI
	artLoader  *fyneui.ArtLoader
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	shutdownOnce sync.Once
}

// Options adjusts how NewApplication builds the object graph.
type Options struct {
	// Headless skips the window and presenter. CLI commands use it.
	Headless bool

	// NoAudio leaves the playback engine closed. Commands that never play
	// avoid opening the audio device.
	NoAudio bool

	// FyneApp allows injecting a test Fyne app (nil for production).
	FyneApp fyne.App

	// AuthClient replaces the HTTP auth client (nil for production).
	AuthClient ports.AuthClient

	// Logger replaces the logger built from the config.
	Logger *slog.Logger
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(cfg config.Config, opts Options) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &Application{cfg: cfg}

	// Step 1: Create logger
	app.logger = opts.Logger
	if app.logger == nil {
		app.logger = logger.NewLogger(logger.Config{
			Level:  logger.ParseLevel(cfg.Log.Level, slog.LevelInfo),
			Format: cfg.Log.Format,
		})
	}
	app.logger.Info("initializing application",
		slog.String("app_id", cfg.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 2: Create the Fyne application when something needs it
	if opts.FyneApp != nil {
		app.fyneApp = opts.FyneApp
	} else if !opts.Headless || cfg.Session.Store == config.StorePreferences {
		app.fyneApp = fyneapp.NewWithID(cfg.AppID)
	}

	// Step 3: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger.With(slog.String("component", "eventbus")))

	// Step 4: Create the audio engine
	if err := app.initAudio(opts.NoAudio); err != nil {
		return nil, err
	}

	// Step 5: Create repositories and remote adapters
	if err := app.initSessionStore(); err != nil {
		app.abort()
		return nil, err
	}
	if err := app.initRemote(opts.AuthClient); err != nil {
		app.abort()
		return nil, err
	}

	// Step 6: Create services (with dependency injection)
	app.sessionService = service.NewSessionService(
		app.logger,
		app.authClient,
		app.sessionRepo,
		app.eventBus,
		service.WithSessionTTL(cfg.Session.TTL),
	)
	app.ratingService = service.NewRatingService(app.logger, app.sessionService, app.eventBus)
	app.catalogService = service.NewCatalogService(app.logger, app.source, app.eventBus)
	app.playerService = service.NewPlayerService(
		app.logger,
		app.audioEngine,
		app.eventBus,
		service.WithProgressInterval(cfg.Player.ProgressInterval),
	)
	app.libraryService = service.NewLibraryService(app.logger, app.metadata, app.eventBus)

	// Step 7: Create UI
	if !opts.Headless {
		app.artLoader = fyneui.NewArtLoader(app.logger, cfg.Catalog.Timeout)
		app.mainWindow = fyneui.NewMainWindow(app.fyneApp, app.logger, app.artLoader)
		app.presenter = fyneui.NewPresenter(
			app.logger,
			app.catalogService,
			app.playerService,
			app.ratingService,
			app.sessionService,
			app.libraryService,
			app.eventBus,
			app.mainWindow,
		)
		app.mainWindow.SetPresenter(app.presenter)
	}

	// Step 8: Restore the saved session (after the presenter subscribed)
	if app.sessionService.RestoreSession() {
		app.logger.Info("session restored")
	}

	return app, nil
}

func (a *Application) initAudio(noAudio bool) error {
	switch a.cfg.Player.Engine {
	case config.EngineMock:
		a.audioEngine = mock.NewEngine(a.logger)
		a.metadata = mock.NewMetadataReader()
	default:
		a.audioEngine = beep.NewEngine(a.logger, beep.WithSampleRate(a.cfg.Player.SampleRate))
		a.metadata = beep.NewMetadataReader()
	}

	if noAudio {
		return nil
	}
	if err := a.audioEngine.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize audio engine: %w", err)
	}
	return nil
}

func (a *Application) initSessionStore() error {
	switch a.cfg.Session.Store {
	case config.StoreMemory:
		a.sessionRepo = memory.NewSessionRepository()
	case config.StorePreferences:
		if a.fyneApp == nil {
			return errors.New("preferences session store needs a Fyne app")
		}
		a.sessionRepo = preferences.NewSessionRepository(a.fyneApp.Preferences())
	default:
		a.sessionRepo = file.NewSessionRepository(a.cfg.Session.Path)
	}
	return nil
}

func (a *Application) initRemote(authClient ports.AuthClient) error {
	if authClient != nil {
		a.authClient = authClient
	} else {
		client := auth.NewClient(a.logger, a.cfg.Auth.BaseURL, a.cfg.Auth.Timeout)
		a.authClient = client
		a.closers = append(a.closers, client)
	}

	source, err := catalog.NewSource(a.logger, a.cfg.Catalog.Source, catalog.Options{
		HTTPTimeout: a.cfg.Catalog.Timeout,
		S3: catalog.S3Config{
			Region:    a.cfg.Catalog.S3.Region,
			Endpoint:  a.cfg.Catalog.S3.Endpoint,
			AccessKey: a.cfg.Catalog.S3.AccessKey,
			SecretKey: a.cfg.Catalog.S3.SecretKey,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create catalog source: %w", err)
	}
	a.source = source
	if c, ok := source.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	return nil
}

// Run loads the catalog in the background and shows the main window.
// It blocks until the window is closed.
func (a *Application) Run(ctx context.Context) error {
	if a.mainWindow == nil {
		return ErrHeadless
	}

	a.logger.Info("music app started")

	go func() {
		if err := a.catalogService.Load(ctx); err != nil {
			a.logger.Error("failed to load catalog",
				slog.String("source", a.source.Location()),
				slog.Any("error", err))
			a.mainWindow.ShowError("Catalog unavailable",
				fmt.Sprintf("Could not load tracks from %s", a.source.Location()))
		}
	}()

	a.mainWindow.ShowAndRun()
	return nil
}

// LoadCatalog reads the catalog synchronously.
func (a *Application) LoadCatalog(ctx context.Context) error {
	return a.catalogService.Load(ctx)
}

// Shutdown gracefully shuts down the application.
// It's safe to call multiple times (idempotent).
func (a *Application) Shutdown() error {
	var err error
	a.shutdownOnce.Do(func() {
		err = a.shutdown()
	})
	return err
}

func (a *Application) shutdown() error {
	a.logger.Info("shutting down application")
	var errs []error

	// Shutdown UI and presenter
	if a.presenter != nil {
		a.presenter.Shutdown()
	}
	if a.mainWindow != nil {
		a.mainWindow.Close()
	}

	// Shutdown services (in reverse order of creation)
	if a.libraryService != nil {
		a.libraryService.CancelScan()
	}
	if a.playerService != nil {
		if err := a.playerService.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("player: %w", err))
		}
	}
	if a.ratingService != nil {
		a.ratingService.Shutdown()
	}

	// Shutdown audio engine
	if a.audioEngine != nil && a.audioEngine.IsInitialized() {
		if err := a.audioEngine.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("audio engine: %w", err))
		}
	}

	errs = append(errs, a.closeAll())

	if a.eventBus != nil {
		if err := a.eventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// abort releases what a failed NewApplication already opened.
func (a *Application) abort() {
	if a.audioEngine.IsInitialized() {
		_ = a.audioEngine.Shutdown()
	}
	_ = a.closeAll()
	_ = a.eventBus.Close()
}

func (a *Application) closeAll() error {
	var errs []error
	if a.artLoader != nil {
		a.closers = append(a.closers, a.artLoader)
		a.artLoader = nil
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Config returns the configuration the application was built with.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// GetEventBus returns the event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne application, nil for headless builds.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}

// Catalog returns the catalog store.
func (a *Application) Catalog() *service.CatalogService {
	return a.catalogService
}

// Player returns the player.
func (a *Application) Player() *service.PlayerService {
	return a.playerService
}

// Ratings returns the rating store.
func (a *Application) Ratings() *service.RatingService {
	return a.ratingService
}

// Sessions returns the session manager.
func (a *Application) Sessions() *service.SessionService {
	return a.sessionService
}

// Library returns the folder scanner.
func (a *Application) Library() *service.LibraryService {
	return a.libraryService
}

// Presenter returns the presenter, nil for headless builds.
func (a *Application) Presenter() *fyneui.Presenter {
	return a.presenter
}
