package main

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"medibook-server/internal/config"
	"medibook-server/internal/jobs"
	"medibook-server/internal/models"
	"medibook-server/internal/notify"
	"medibook-server/internal/routes"
	"medibook-server/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Error loading config: %v", err)
	}

	db, err := models.InitDB(cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("Error connecting to database: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	blobs, err := storage.NewDiskStore(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	if err != nil {
		logger.Fatalf("Error preparing upload storage: %v", err)
	}

	events := notify.NewKafkaPublisher(cfg.Kafka, logger)
	defer events.Close()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	services := routes.SetupRoutes(router, routes.Dependencies{
		DB:     db,
		Cfg:    cfg,
		Redis:  rdb,
		Blobs:  blobs,
		Events: events,
		Logger: logger,
	})

	scheduler := jobs.NewScheduler(services.Appointments, services.Repo, events, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Error starting job scheduler: %v", err)
	}
	defer scheduler.Stop()

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	logger.WithField("port", cfg.Port).Info("server starting")
	if err := router.Run(serverAddr); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
