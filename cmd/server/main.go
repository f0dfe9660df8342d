package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"connect2uni/internal/application"
	apphandler "connect2uni/internal/application/handler"
	"connect2uni/internal/audit"
	"connect2uni/internal/directory"
	dirhandler "connect2uni/internal/directory/handler"
	"connect2uni/internal/email"
	jwttoken "connect2uni/internal/jwt_token"
	"connect2uni/internal/notification"
	notifhandler "connect2uni/internal/notification/handler"
	"connect2uni/internal/pipeline"
	pipehandler "connect2uni/internal/pipeline/handler"
	"connect2uni/internal/platform/config"
	"connect2uni/internal/platform/httpserver"
	"connect2uni/internal/platform/logger"
	"connect2uni/internal/platform/metrics"
	platformpg "connect2uni/internal/platform/postgres"
	"connect2uni/internal/platform/ratelimit"
	platformredis "connect2uni/internal/platform/redis"
	httptransport "connect2uni/internal/transport/http"
	"connect2uni/pkg/platform/tx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "connect2uni: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Postgres.MaxConns)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	if err := platformpg.EnsureSchema(ctx, db); err != nil {
		return err
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()
	runner := tx.NewPostgresRunner(db)

	var mailer email.Sender
	switch cfg.Email.Provider {
	case "ses":
		mailer, err = email.NewSESSender(ctx, cfg.Email.Region, cfg.Email.From)
		if err != nil {
			return fmt.Errorf("build ses sender: %w", err)
		}
	default:
		mailer = email.NewLogSender(log)
	}

	var publisher notification.Publisher
	if redisClient != nil {
		publisher = notification.NewRedisPublisher(redisClient)
	}

	notifStore := notification.NewPostgres(db)
	dispatcher := notification.NewDispatcher(notifStore, publisher, log, m)

	auditStore := audit.NewPostgres(db)
	recorder := audit.NewService(auditStore)

	dir := directory.NewPostgres(db)
	if err := directory.VerifyDefaultAgency(ctx, dir, cfg.Workflow.DefaultAgencyID); err != nil {
		return fmt.Errorf("verify default agency: %w", err)
	}
	appStore := application.NewPostgres(db)
	pipeStore := pipeline.NewPostgres(db)

	appService := application.NewService(appStore, dir, runner, dispatcher, mailer,
		recorder, log, m, cfg.Workflow.MaxAcceptedPerStudent)
	pipeService := pipeline.NewService(pipeStore, appStore, dir, runner, dispatcher,
		mailer, recorder, log, m)
	notifService := notification.NewService(notifStore)
	dirService := directory.NewService(dir, dispatcher, mailer, log)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)

	var writeLimiter *ratelimit.Limiter
	if cfg.Limits.Writes > 0 {
		writeLimiter = ratelimit.NewLimiter(cfg.Limits.Writes, cfg.Limits.WriteWindow)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Validator:      jwtService,
		RequestTimeout: cfg.Server.RequestTimeout,
		Applications:   apphandler.New(appService, log),
		Pipeline:       pipehandler.New(pipeService, log),
		Notifications:  notifhandler.New(notifService, log),
		Directory:      dirhandler.New(dirService, log),
		WriteLimiter:   writeLimiter,
		Ready: func(ctx context.Context) error {
			return db.PingContext(ctx)
		},
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := audit.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("build kafka publisher: %w", err)
		}
		defer kafkaPublisher.Close()

		worker := audit.NewWorker(auditStore, kafkaPublisher, log, m)
		g.Go(func() error {
			log.Info("workflow event worker started", "topic", cfg.Kafka.Topic)
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("workflow event worker: %w", err)
			}
			return nil
		})
	} else {
		log.Warn("kafka brokers not configured, workflow events stay in the outbox")
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("stopped")
	return nil
}
