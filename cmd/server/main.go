package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/jackyckma/baudagain/config"
	"github.com/jackyckma/baudagain/internal/cache"
	"github.com/jackyckma/baudagain/internal/door"
	"github.com/jackyckma/baudagain/internal/doors"
	"github.com/jackyckma/baudagain/internal/notify"
	"github.com/jackyckma/baudagain/internal/repository"
	"github.com/jackyckma/baudagain/internal/service"
	"github.com/jackyckma/baudagain/internal/session"
	"github.com/jackyckma/baudagain/internal/transport/rest"
	"github.com/jackyckma/baudagain/internal/transport/ws"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal("ping MongoDB", zap.Error(err))
	}
	logger.Info("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal("ping Redis", zap.Error(err))
	}
	logger.Info("connected to Redis")

	// Repositories and caches
	doorRepo := repository.NewDoorSessionRepo(db)
	userRepo := repository.NewUserRepo(db)
	messageRepo := repository.NewMessageRepo(db)
	doorCache := cache.NewDoorCache(rdb, cfg.DoorTimeout)
	presence := cache.NewPresenceCache(rdb)

	// Doors
	registry := door.NewRegistry()
	if err := registry.Register(doors.NewTrivia()); err != nil {
		logger.Fatal("register trivia door", zap.Error(err))
	}
	if err := registry.Register(doors.NewGuess()); err != nil {
		logger.Fatal("register guess door", zap.Error(err))
	}

	// Push channel and broadcaster
	wsHub := ws.NewHub(logger.Named("ws"))
	broadcaster := notify.NewBroadcaster(wsHub, cfg.NotifyFailureLimit, cfg.NotifyBuffer, logger.Named("notify"))

	// Session core
	store := session.NewStore()
	engine := session.NewDoorEngine(doorRepo, doorCache, registry, cfg.DoorTimeout, logger.Named("door"))
	sessions := session.NewManager(store, engine, broadcaster, presence, cfg.SessionIdleTimeout, logger.Named("session"))

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, logger.Named("auth"))
	boardSvc := service.NewBoardService(messageRepo, broadcaster, logger.Named("board"))

	router := rest.NewRouter(&rest.Container{
		AuthService:  authSvc,
		BoardService: boardSvc,
		Sessions:     sessions,
		Doors:        registry,
		Presence:     presence,
		Broadcaster:  broadcaster,
		WSHub:        wsHub,
		Logger:       logger.Named("transport"),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.HTTPPort),
			zap.Duration("doorTimeout", cfg.DoorTimeout),
			zap.Duration("sessionIdleTimeout", cfg.SessionIdleTimeout))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen and serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
