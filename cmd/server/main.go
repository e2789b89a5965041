package main

import (
	"context"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/emRival/GASHub/internal/api"
	"github.com/emRival/GASHub/internal/archive"
	"github.com/emRival/GASHub/internal/background"
	"github.com/emRival/GASHub/internal/config"
	"github.com/emRival/GASHub/internal/database"
	"github.com/emRival/GASHub/internal/directory"
	"github.com/emRival/GASHub/internal/forwarder"
	"github.com/emRival/GASHub/internal/handlers"
	httpserver "github.com/emRival/GASHub/internal/http"
	"github.com/emRival/GASHub/internal/identity"
	"github.com/emRival/GASHub/internal/keyauth"
	"github.com/emRival/GASHub/internal/repeater"
	"github.com/emRival/GASHub/internal/store"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	if cfg.Production() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := database.NewPostgresDB(logger, database.PostgresConfig{
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		DBName:   cfg.PostgresDatabase,
		SSLMode:  cfg.PostgresSSLMode,
	})
	if err != nil {
		logger.WithError(err).Fatal("Database initialization failed")
	}
	st := store.NewPostgres(db)

	tasks := background.NewRunner(logger, 10*time.Second)
	dir := directory.New(logger, st, directory.NewCache(cfg.CacheTTL), tasks)
	keys := keyauth.New(logger, st, tasks)
	fwd := forwarder.New(logger, cfg.ForwardTimeout, cfg.MaxBodyBytes)
	pipeline := repeater.New(logger, dir, keys, fwd, st, tasks, cfg.Production())

	handler := handlers.New(logger, pipeline, st, cfg.MaxBodyBytes)
	apiHandler := api.NewHandler(logger, st, identity.HeaderProvider{})
	repeaterGate := handlers.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)

	r := mux.NewRouter()
	r.Use(handlers.LoggingMiddleware(logger))
	handlers.RegisterRoutes(r, handler, apiHandler, repeaterGate)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()
	if cfg.ArchiveEnabled {
		archiver := archive.New(logger, st, archive.NewS3Uploader(cfg), cfg.ArchiveInterval, cfg.ArchiveAfter)
		go archiver.Start(jobCtx)
	}

	err = httpserver.Run(logger, ":"+cfg.Port, r, func(ctx context.Context) {
		cancelJobs()
		if err := tasks.Wait(ctx); err != nil {
			logger.WithError(err).Warn("Background tasks did not drain in time")
		}
	})
	if err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}
