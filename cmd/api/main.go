package main

import (
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"spheroseg/internal/cache"
	"spheroseg/internal/config"
	"spheroseg/internal/database"
	"spheroseg/internal/domain/asset"
	"spheroseg/internal/domain/project"
	"spheroseg/internal/domain/reconcile"
	"spheroseg/internal/imaging"
	"spheroseg/internal/middleware"
	"spheroseg/internal/notification"
	jwtsvc "spheroseg/internal/pkg/jwt"
	"spheroseg/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(cfg.StorageRoot, 0o755); err != nil {
		log.Fatal(err)
	}
	paths, err := storage.NewTranslator(cfg.StorageRoot, logger)
	if err != nil {
		log.Fatal(err)
	}

	j := jwtsvc.New(cfg.JWTSecret, 24*time.Hour)
	hub := notification.NewHub(logger)
	listings := cache.NewListings(5 * time.Minute)

	projectRepo := project.NewRepository(db)
	projectService := project.NewService(projectRepo)
	projectHandler := project.NewHandler(projectService)

	assetRepo := asset.NewRepository(db)
	quota := asset.NewQuotaGuard(db, cfg.DefaultQuota, logger)
	normalizer := imaging.NewNormalizer(cfg.MaxPixels)
	pipeline := asset.NewPipeline(normalizer, paths, logger)

	batch := asset.NewBatchCoordinator(assetRepo, quota, pipeline, hub, listings, logger)
	retirement := asset.NewRetirementCoordinator(assetRepo, quota, paths, projectService, hub, listings, logger)
	assetService := asset.NewService(assetRepo, projectService, listings)
	assetHandler := asset.NewHandler(assetService, batch, retirement, projectService, paths, cfg.MaxUploadBytes, logger)

	engine := reconcile.NewEngine(assetRepo, paths, logger)
	reconcileHandler := reconcile.NewHandler(engine)

	wsHandler := notification.NewWSHandler(hub, j)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	r.GET("/ws/events", wsHandler.HandleWebSocket)

	v1 := r.Group("/api/v1")
	{
		protected := v1.Group("/")
		protected.Use(middleware.Auth(j))
		{
			project.RegisterRoutes(protected, projectHandler)
			asset.RegisterRoutes(protected, assetHandler)

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				reconcile.RegisterRoutes(admin, reconcileHandler)
			}
		}
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
