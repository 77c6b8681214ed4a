package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/go-pg/pg/v10"
	"github.com/labstack/echo/v4"

	"github.com/avolkov/blog-portal/config"
	"github.com/avolkov/blog-portal/internal/blogportal"
	"github.com/avolkov/blog-portal/internal/db"
	"github.com/avolkov/blog-portal/internal/images"
	"github.com/avolkov/blog-portal/internal/render"
	"github.com/avolkov/blog-portal/internal/rest"
	"github.com/avolkov/blog-portal/internal/rpc"
)

const rpcPath = "/v1/rpc/"

type App struct {
	Repo   *db.Repository
	Logger *slog.Logger
	Echo   *echo.Echo
	Config config.Config
}

func New(cfg config.Config, dbConnect *pg.DB, logger *slog.Logger) (*App, error) {
	repo := db.New(dbConnect)

	prober := images.NewProber(
		time.Duration(cfg.Images.TimeoutSeconds)*time.Second,
		uint64(cfg.Images.MaxAttempts),
		time.Duration(cfg.Images.BackoffMillis)*time.Millisecond,
	)

	manager, err := blogportal.NewManager(
		repo,
		blogportal.DefaultPolicy(),
		render.NewMarkdown(),
		prober,
		blogportal.NewNormalizer(cfg.Site.URL),
		cfg.Site.PreviewSecret,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build manager: %w", err)
	}

	e := echo.New()
	e.HideBanner = true

	if cfg.Sentry.DSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}

	rest.NewPostHandler(manager, logger).RegisterRoutes(e)
	e.Any(rpcPath, echo.WrapHandler(rpc.New(logger, manager)))

	return &App{
		Repo:   repo,
		Logger: logger,
		Echo:   e,
		Config: cfg,
	}, nil
}

func (a *App) Run(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	return a.Echo.Start(addr)
}

func (a *App) GracefulShutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
