package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ruacmx/ruac-backend/api/controllers"
	"github.com/ruacmx/ruac-backend/api/routes"
	"github.com/ruacmx/ruac-backend/internal/communities"
	"github.com/ruacmx/ruac-backend/internal/documents"
	"github.com/ruacmx/ruac-backend/internal/lostpets"
	"github.com/ruacmx/ruac-backend/internal/notifications"
	"github.com/ruacmx/ruac-backend/internal/ownership"
	"github.com/ruacmx/ruac-backend/internal/pets"
	"github.com/ruacmx/ruac-backend/internal/posts"
	"github.com/ruacmx/ruac-backend/internal/users"
	"github.com/ruacmx/ruac-backend/pkg/config"
	"github.com/ruacmx/ruac-backend/pkg/db"
	"github.com/ruacmx/ruac-backend/pkg/logger"
	"github.com/ruacmx/ruac-backend/pkg/metrics"
	"github.com/ruacmx/ruac-backend/pkg/migrate"
	"github.com/ruacmx/ruac-backend/pkg/outbox"
	"github.com/ruacmx/ruac-backend/pkg/redis"
	"github.com/ruacmx/ruac-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	requireResource(logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var photoStore controllers.Uploader
	pingers := []controllers.Pinger{dbClient, redisClient}
	if cfg.GCS.BucketName != "" {
		gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
		requireResource(logg, "gcs", err)
		photoStore = gcsClient
		pingers = append(pingers, gcsClient)
	} else {
		logg.Warn(context.Background(), "gcs bucket not configured, photo uploads disabled")
	}

	registry := prometheus.NewRegistry()
	alertMetrics := metrics.NewAlertMetrics(registry)

	gormDB := dbClient.DB()

	usersRepo := users.NewRepository(gormDB)
	petsRepo := pets.NewRepository(gormDB)
	ownershipRepo := ownership.NewRepository(gormDB)
	documentsRepo := documents.NewRepository(gormDB)
	communitiesRepo := communities.NewRepository(gormDB)
	postsRepo := posts.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)
	outboxRepo := outbox.NewRepository(gormDB)

	userService, err := users.NewService(usersRepo)
	requireResource(logg, "user service", err)

	documentService, err := documents.NewService(documentsRepo, petsRepo, cfg.Registry, cfg.Media)
	requireResource(logg, "document service", err)

	ownershipService, err := ownership.NewService(ownershipRepo, petsRepo, usersRepo)
	requireResource(logg, "ownership service", err)

	communityService, err := communities.NewService(communitiesRepo, dbClient)
	requireResource(logg, "community service", err)

	notificationService, err := notifications.NewService(notificationsRepo)
	requireResource(logg, "notification service", err)

	postService, err := posts.NewService(postsRepo, communitiesRepo, dbClient)
	requireResource(logg, "post service", err)

	petService, err := pets.NewService(petsRepo, ownershipService, ownershipRepo, documentService, communityService, userService, dbClient, cfg.Media)
	requireResource(logg, "pet service", err)

	lostPetService, err := lostpets.NewService(petsRepo, ownershipService, userService, notificationsRepo, outboxRepo, dbClient, cfg.Alerts, alertMetrics, logg)
	requireResource(logg, "lost pet service", err)

	router := routes.NewRouter(
		cfg,
		logg,
		redisClient,
		photoStore,
		userService,
		petService,
		ownershipService,
		documentService,
		communityService,
		postService,
		lostPetService,
		notificationService,
		pingers...,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", router)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
