package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/georgehe23/GovHack-TheGamblersReport/internal/config"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/database"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/geojson"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/handlers"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/logger"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/middleware"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/repository"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load .env if present; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting Gamblers Report API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Load the base LGA boundary collection once at startup
	boundaries, err := geojson.LoadFile(cfg.Report.BoundariesPath)
	if err != nil {
		log.Fatal("Failed to load boundary GeoJSON", err, map[string]interface{}{
			"path": cfg.Report.BoundariesPath,
		})
	}
	log.Info("Boundary collection loaded", map[string]interface{}{
		"path":     cfg.Report.BoundariesPath,
		"features": len(boundaries.Features),
	})

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	reportRepo := repository.NewReportRepository(db)
	reportService := services.NewReportService(boundaries, reportRepo, cfg.Report.MapTiles, log)
	reportHandler := handlers.NewReportHandler(reportService, cfg.Report.MaxUploadMB)

	v1 := router.Group("/api/v1")
	{
		reports := v1.Group("/reports")
		{
			// Uploads kick off a full pipeline run, so they are rate limited
			reports.POST("", middleware.RateLimit(cfg.Report.UploadRPS, cfg.Report.UploadBurst), reportHandler.Create)
			reports.GET("", reportHandler.List)
			reports.GET("/:id", reportHandler.Get)
			reports.GET("/:id/geojson", reportHandler.GetGeoJSON)
			reports.GET("/:id/map", reportHandler.GetMap)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
