package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"The_Connection/internal/middleware"
	"The_Connection/internal/pkg"
	"The_Connection/internal/repository"
	"The_Connection/internal/repository/memory"
	"The_Connection/internal/repository/postgres"
	"The_Connection/internal/repository/redis"
	"The_Connection/internal/router"
	"The_Connection/internal/service"

	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:   "the-connection",
		Usage:  "community backend API server",
		Action: runServer,
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "storage",
			Usage:   "storage backend: memory or db",
			Value:   "memory",
			EnvVars: []string{"STORAGE_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "db-url",
			Usage:   "database connection string (postgres:// or sqlite://)",
			Value:   "sqlite://data/the-connection.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			Value:   20,
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "optional redis URL for sessions and block-list cache",
			EnvVars: []string{"REDIS_URL"},
		},
		&cli.DurationFlag{
			Name:    "block-cache-ttl",
			Value:   time.Minute,
			EnvVars: []string{"BLOCK_CACHE_TTL"},
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "comma separated kafka brokers for DM notifications; empty logs them instead",
			EnvVars: []string{"KAFKA_BROKERS"},
		},
		&cli.StringFlag{
			Name:    "kafka-topic",
			Value:   "notifications",
			EnvVars: []string{"KAFKA_TOPIC"},
		},
		&cli.StringFlag{
			Name:    "jwt-access-secret",
			EnvVars: []string{"JWT_ACCESS_SECRET"},
		},
		&cli.StringFlag{
			Name:    "jwt-refresh-secret",
			EnvVars: []string{"JWT_REFRESH_SECRET"},
		},
		&cli.StringFlag{
			Name:    "api-listen",
			Usage:   "IP or address, and port, to listen on for HTTP APIs",
			Value:   ":8080",
			EnvVars: []string{"API_LISTEN"},
		},
		&cli.DurationFlag{
			Name:    "outbox-interval",
			Value:   2 * time.Second,
			EnvVars: []string{"OUTBOX_INTERVAL"},
		},
		&cli.DurationFlag{
			Name:    "reconcile-interval",
			Value:   5 * time.Minute,
			EnvVars: []string{"RECONCILE_INTERVAL"},
		},
	}

	return app.Run(args)
}

func runServer(cctx *cli.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pkg.SetSecrets(cctx.String("jwt-access-secret"), cctx.String("jwt-refresh-secret"))

	var (
		store      repository.Store
		reconciler *service.CounterReconciler
	)
	switch cctx.String("storage") {
	case "memory":
		store = memory.New()
	case "db":
		db, err := postgres.Open(cctx.String("db-url"), cctx.Int("max-db-connections"))
		if err != nil {
			return err
		}
		if err := postgres.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		pg := postgres.New(db)
		store = pg
		reconciler = service.NewCounterReconciler(pg, cctx.Duration("reconcile-interval"))
	default:
		return fmt.Errorf("unknown storage backend %q", cctx.String("storage"))
	}
	base := store

	var (
		sessions service.Sessions
		checker  middleware.SessionChecker
	)
	if url := cctx.String("redis-url"); url != "" {
		rdb, err := redis.Open(url)
		if err != nil {
			return err
		}
		defer rdb.Close()
		ss := redis.NewSessionStore(rdb)
		sessions, checker = ss, ss
		store = redis.NewCachedStore(store, rdb, cctx.Duration("block-cache-ttl"))
	} else {
		store = redis.NewCachedStore(store, nil, cctx.Duration("block-cache-ttl"))
	}

	sender := service.Sender(service.LogSender)
	if brokers := cctx.String("kafka-brokers"); brokers != "" {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   cctx.String("kafka-topic"),
		})
		if err != nil {
			return err
		}
		defer producer.Close()
		sender = service.KafkaSender(producer)
	}

	relayer := service.NewOutboxRelayer(base, sender, cctx.Duration("outbox-interval"))
	go relayer.Run(ctx)
	if reconciler != nil {
		go reconciler.Run(ctx)
	}

	r := router.InitRouter(router.NewServices(store, sessions), checker)
	srv := &http.Server{
		Addr:              cctx.String("api-listen"),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting api server", "addr", srv.Addr, "storage", cctx.String("storage"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
