package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jawara/internal/auth"
	"jawara/internal/classifier"
	"jawara/internal/db"
	"jawara/internal/metrics"
	"jawara/internal/server"
	"jawara/internal/storage"
	"jawara/internal/store"
	"jawara/internal/verification"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

type repositories struct {
	users        *store.UserRepository
	warga        *store.WargaRepository
	verification *store.VerificationRepository
	keluarga     *store.KeluargaRepository
	rumah        *store.RumahRepository
	marketplace  *store.MarketplaceRepository
	tx           *store.UnitOfWork
}

func newRepositories(pool *pgxpool.Pool) *repositories {
	return &repositories{
		users:        store.NewUserRepository(pool),
		warga:        store.NewWargaRepository(pool),
		verification: store.NewVerificationRepository(pool),
		keluarga:     store.NewKeluargaRepository(pool),
		rumah:        store.NewRumahRepository(pool),
		marketplace:  store.NewMarketplaceRepository(pool),
		tx:           store.NewUnitOfWork(pool),
	}
}

func newVerificationService(logger *logrus.Logger, repos *repositories, documents storage.Bucket, m *metrics.Metrics) *verification.Service {
	return verification.New(
		logger,
		repos.warga,
		repos.verification,
		repos.users,
		documents,
		repos.tx,
		verification.WithMetrics(m),
	)
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig()
	if err != nil {
		return err
	}
	if config.JWTSecret == "" {
		return fmt.Errorf("set JWT_SECRET")
	}

	logger := newLogger(config)

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	buckets, err := storage.NewBuckets(ctx, config)
	if err != nil {
		return err
	}

	repos := newRepositories(pool)
	m := metrics.New(prometheus.DefaultRegisterer)

	srv := server.New(config, logger, server.Dependencies{
		Auth:         auth.NewService(logger, repos.users, auth.NewTokenIssuer(config.JWTSecret, config.JWTExpiresIn), config.BcryptCost),
		Verification: newVerificationService(logger, repos, buckets.Verification, m),
		Warga:        repos.warga,
		Keluarga:     repos.keluarga,
		Rumah:        repos.rumah,
		Marketplace:  repos.marketplace,
		Images:       buckets.Marketplace,
		Classifier:   classifier.New(config.ClassifierURL, time.Duration(config.ClassifierTimeoutSec)*time.Second),
		Metrics:      m,
		Gatherer:     prometheus.DefaultGatherer,
		DB:           pool,
	})

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
