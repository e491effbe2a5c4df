package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nkiryanov/clinicdesk/internal/db"
	"github.com/nkiryanov/clinicdesk/internal/logger"
	"github.com/nkiryanov/clinicdesk/internal/render"
	"github.com/nkiryanov/clinicdesk/internal/service/clinicapi"
	"github.com/nkiryanov/clinicdesk/internal/service/dashboard"
	"github.com/nkiryanov/clinicdesk/internal/service/session"
	"github.com/nkiryanov/clinicdesk/internal/storage"
	"github.com/nkiryanov/clinicdesk/internal/storage/dotenv"
	"github.com/nkiryanov/clinicdesk/internal/storage/memory"
	"github.com/nkiryanov/clinicdesk/internal/storage/postgres"
	redisstorage "github.com/nkiryanov/clinicdesk/internal/storage/redis"
	"github.com/nkiryanov/clinicdesk/internal/token"
)

type App struct {
	Session   *session.Store
	Dashboard *dashboard.Service
	Printer   *render.Printer
	Logger    logger.Logger

	// Release storage connections
	closers []func()
}

func NewApp(ctx context.Context, c *Config, stdout io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	printer, err := render.NewPrinter(stdout, c.Output)
	if err != nil {
		return nil, err
	}

	client, err := clinicapi.NewClient(clinicapi.Config{BaseURL: c.APIURL, Timeout: c.Timeout}, logger.WithGroup("api"))
	if err != nil {
		return nil, fmt.Errorf("error while creating clinic api client: %w", err)
	}

	app := &App{Printer: printer, Logger: logger}

	tokens, err := app.openStorage(ctx, c)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error while opening %s storage. Err: %w", c.Storage, err)
	}

	opts := []session.Option{session.WithLogger(logger.WithGroup("session"))}
	switch c.Identity {
	case IdentityClaims:
		opts = append(opts, session.WithIdentityResolver(token.ClaimsResolver{}))
	case IdentityProfile:
		opts = append(opts, session.WithIdentityResolver(clinicapi.ProfileResolver{Client: client}))
	}

	app.Session, err = session.New(session.Config{}, client, tokens, opts...)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error while creating session store: %w", err)
	}
	app.closers = append(app.closers, app.Session.Close)

	app.Dashboard, err = dashboard.New(client, app.Session, logger.WithGroup("dashboard"))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error while creating dashboard service: %w", err)
	}

	return app, nil
}

func (a *App) openStorage(ctx context.Context, c *Config) (storage.Storage, error) {
	switch c.Storage {
	case StorageMemory:
		return memory.New(), nil

	case StorageRedis:
		client, err := redisstorage.Connect(ctx, c.RedisAddr)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return redisstorage.New(client), nil

	case StoragePostgres:
		// Connect to the database and run migrations
		pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		return postgres.New(pool), nil

	default:
		path := c.SessionFile
		if path == "" {
			p, err := dotenv.DefaultPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return dotenv.New(path)
	}
}

// Close releases resources in reverse order of acquisition
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
