package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	myPostgresRepo "github.com/strmhub/account-service/internal/adapters/db/postgres"
	myS3 "github.com/strmhub/account-service/internal/adapters/media/s3"
	transport "github.com/strmhub/account-service/internal/adapters/transport/http"
	"github.com/strmhub/account-service/internal/adapters/transport/http/middleware"
	accountJwt "github.com/strmhub/account-service/internal/app/account/jwt"
	appsvc "github.com/strmhub/account-service/internal/app/account/service"
	"github.com/strmhub/account-service/internal/infra/config"
	lg "github.com/strmhub/account-service/internal/infra/log"
	"github.com/strmhub/account-service/internal/infra/migrate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zapLog := lg.Must(os.Getenv("LOG_LEVEL"), cfg.IsProduction())
	defer zapLog.Sync()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	mediaStore, err := myS3.New(context.Background(), cfg)
	if err != nil {
		zapLog.Fatal("failed to init media store", zap.Error(err))
	}

	validate := validator.New()
	if err := appsvc.RegisterCustomValidations(validate); err != nil {
		zapLog.Fatal("register validations", zap.Error(err))
	}

	userRepo := myPostgresRepo.NewPostgresUserRepo(db)
	tokens, err := accountJwt.NewTokenService(cfg)
	if err != nil {
		zapLog.Fatal("failed to init token service", zap.Error(err))
	}
	svc := appsvc.New(userRepo, mediaStore, tokens, cfg, validate, zapLog)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(zapLog))

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowHeaders: []string{
				"Origin", "Content-Type", "Accept",
				"Authorization",
				"X-Requested-With",
			},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: cfg.AllowCredentials,
			MaxAge:           12 * time.Hour,
		}))
	}

	handler := transport.NewHandler(svc, cfg, zapLog)
	handler.RegisterRoutes(router, middleware.Auth(tokens))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router}
	rootCtx, cancel := context.WithCancel(context.Background())
	g, _ := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		zapLog.Info("http server listening", zap.String("addr", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutdown signal received")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}
	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
