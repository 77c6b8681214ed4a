package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/getsentry/sentry-go"
	"github.com/go-pg/pg/v10"
	"github.com/namsral/flag"

	"github.com/avolkov/blog-portal/config"
	"github.com/avolkov/blog-portal/internal/app"
	"github.com/avolkov/blog-portal/internal/db"
)

var (
	flConfig  = flag.String("config", "config.toml", "path to TOML configuration file")
	flDebug   = flag.Bool("debug", false, "enable debug mode")
	flMigrate = flag.Bool("migrate", false, "apply pending migrations before start")
	cfg       config.Config
	lg        *slog.Logger
)

func main() {
	flag.Parse()

	lg = newLogger(*flDebug)

	_, err := toml.DecodeFile(*flConfig, &cfg)
	if err != nil {
		exitOnError(err)
	}

	if cfg.Sentry.DSN != "" {
		err = sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN})
		if err != nil {
			exitOnError(err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()

	if *flMigrate {
		err = db.RunMigrations(ctx, databaseURL(cfg.Database), "internal/db/migrations")
		if err != nil {
			exitOnError(err)
		}
		lg.Info("migrations applied")
	}

	dbConnect := pg.Connect(&cfg.Database)
	if err := dbConnect.Ping(ctx); err != nil {
		dbConnect.Close()
		exitOnError(err)
	}

	service, err := app.New(cfg, dbConnect, lg)
	if err != nil {
		exitOnError(err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		err := service.Run(ctx, cfg.App.Port)
		if err != nil {
			lg.Error("service run failed", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	lg.Info("service stopping")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = service.GracefulShutdown(shutdownCtx)
	if err != nil {
		lg.Error("service graceful shutdown failed", "error", err)
	}
}

func databaseURL(opts pg.Options) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(opts.User, opts.Password),
		Host:   opts.Addr,
		Path:   "/" + opts.Database,
	}
	q := u.Query()
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()

	return u.String()
}

func newLogger(debug bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

func exitOnError(err error) {
	if err != nil {
		lg.Error("app init failed", "error", err)
		os.Exit(1)
	}
}
