package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"student-api-server-go/config"
	"student-api-server-go/db"
	"student-api-server-go/handlers"
	"student-api-server-go/logging"
)

const name = "student-api"

var (
	// overridden during build with ldflags
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runCommand(ctx, os.Stderr, os.Args); err != nil {
		stop()
		os.Exit(1)
	}
}

// runCommand logs JSON to w from the first line on. The level is raised or
// lowered once the configuration is known.
func runCommand(ctx context.Context, w io.Writer, args []string) error {
	logging.SetDefaultStructuredLoggerWithOutput(w, name, version, "")
	if err := newCommand(w).Run(ctx, args); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}

func newCommand(logOutput io.Writer) *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Serve student records over HTTP",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Description: `Loads the student table once at startup and serves it at GET /api.

Repeat the class query parameter to select students from several classes:

  curl 'http://localhost:8080/api?class=1A&class=2B'

A missing data file is not fatal: the server starts with an empty table.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				Sources: cli.EnvVars("STUDENT_API_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"f"},
				Usage:   "Student table to load (.csv or .xlsx); overrides DATA_FILE",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, e.g. :8080; overrides PORT",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error); overrides LOG_LEVEL",
			},
			&cli.StringFlag{
				Name:  "redis-addr",
				Usage: "Redis address for the response cache; overrides REDIS_ADDR",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logging.SetDefaultStructuredLoggerWithOutput(logOutput, name, version, cfg.LogLevel)
			slog.Info("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date,
				"logLevel", cfg.LogLevel)
			return serve(ctx, cfg)
		},
	}
}

// loadConfig resolves settings: defaults, YAML file, .env and environment,
// then command line flags.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.IsSet("data") {
		cfg.Data.Path = cmd.String("data")
	}
	if cmd.IsSet("addr") {
		addr, err := config.NormalizeAddr(cmd.String("addr"))
		if err != nil {
			return nil, err
		}
		cfg.Server.Addr = addr
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("redis-addr") {
		cfg.Redis.Addr = cmd.String("redis-addr")
	}
	return cfg, cfg.Validate()
}

func serve(ctx context.Context, cfg *config.Config) error {
	table, err := db.LoadTable(cfg.Data.Path)
	if err != nil {
		return err
	}

	var cache handlers.ResponseCache
	if client := db.InitializeRedisClient(ctx, cfg.Redis); client != nil {
		defer client.Close()
		redisCache, err := db.NewRedisCache(client, table, cfg.Redis.TTL, cfg.Redis.Prefix)
		if err != nil {
			return err
		}
		cache = redisCache
	}

	gin.SetMode(cfg.Server.Mode)
	apiHandler := handlers.NewAPIHandler(table, cache)
	health := handlers.NewHealthHandler(table.Len())
	router := handlers.NewRouter(apiHandler, health, cfg.RateLimit)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     logging.NewLogLogger(slog.LevelWarn),
	}
	return run(ctx, srv, health, cfg.Server)
}

// run serves until ctx is cancelled or the listener fails, then drains
// in-flight requests within the shutdown timeout. The server reports ready
// only once the address is bound.
func run(ctx context.Context, srv *http.Server, health *handlers.HealthHandler, cfg config.ServerConfig) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	slog.Info("listening", "addr", ln.Addr().String())
	health.SetReady(true)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		health.SetReady(false)
		slog.Info("shutting down server", "timeout", cfg.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
