package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"echogo/backend/internal/api/handler"
	"echogo/backend/internal/config"
	"echogo/backend/internal/models"
	"echogo/backend/internal/push"
	"echogo/backend/internal/storage"
	"echogo/backend/internal/wave"
	"echogo/backend/internal/wavehub"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("configuration", zap.Error(err))
	}

	// TranslateError turns the pair unique-index violation into
	// gorm.ErrDuplicatedKey, which the matching path relies on.
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&models.Profile{},
		&models.EphemeralID{},
		&models.Wave{},
		&models.Match{},
		&models.PushToken{},
	); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("connect redis", zap.Error(err))
	}

	store := storage.NewService(db, rdb, log)

	var sender push.Sender = push.Nop{}
	if cfg.APNSPrivateKey != "" {
		apns, err := push.NewAPNS(cfg.APNSKeyID, cfg.APNSTeamID, cfg.APNSPrivateKey,
			cfg.APNSBundleID, cfg.APNSProduction, log)
		if err != nil {
			log.Fatal("apns setup", zap.Error(err))
		}
		sender = apns
		log.Info("apns push enabled", zap.Bool("production", cfg.APNSProduction))
	} else {
		log.Info("apns credentials not set, push disabled")
	}

	engine := wave.NewService(store, sender, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := wavehub.New(store, log)
	go hub.Run(ctx)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	handler.New(engine, hub, store, []byte(cfg.JWTSecret), cfg.SessionTTL, cfg.MaintenanceKey, log).Routes(router)

	srv := &http.Server{Addr: cfg.Addr, Handler: router}
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
