package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"packetdrop/internal/config"
	"packetdrop/internal/database"
	"packetdrop/internal/domain"
	"packetdrop/internal/domain/auth"
	"packetdrop/internal/domain/upload"
	"packetdrop/internal/middleware"
	jwtsvc "packetdrop/internal/pkg/jwt"
	"packetdrop/internal/pkg/logger"
	"packetdrop/internal/repository"
	"packetdrop/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogOutput)
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	if err := db.AutoMigrate(&domain.User{}, &upload.Upload{}); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}

	blobs, err := buildBlobStore(cfg)
	if err != nil {
		zlog.Fatal("blob store init failed", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	uploadRepo := upload.NewRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	policy := upload.NewPolicy(cfg.AdminRoster)
	uploadService := upload.NewService(uploadRepo, blobs, userRepo, policy, zlog)
	uploadHandler := upload.NewHandler(uploadService, zlog)

	r := gin.Default()
	r.Use(middleware.CORS())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1)

		// Upload accepts anonymous submissions; listing and download do not.
		public := v1.Group("/")
		public.Use(middleware.OptionalAuth(j))

		protected := v1.Group("/")
		protected.Use(middleware.RequireAuth(j))

		uploadHandler.RegisterRoutes(public, protected)
	}

	zlog.Info("starting server",
		zap.String("addr", cfg.ListenAddr),
		zap.String("storage_backend", cfg.StorageBackend),
		zap.Int("admin_roster_size", cfg.AdminRoster.Len()))

	if err := r.Run(cfg.ListenAddr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func buildBlobStore(cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == "s3" {
		return storage.NewMinIOStore(storage.MinIOConfig{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
	}
	return storage.NewDiskStore(cfg.UploadDir), nil
}
