package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/stringify/internal/clock"
	"github.com/thereayou/stringify/internal/config"
	"github.com/thereayou/stringify/internal/database"
	"github.com/thereayou/stringify/internal/handlers"
	"github.com/thereayou/stringify/internal/middleware"
	"github.com/thereayou/stringify/internal/notify"
	"github.com/thereayou/stringify/internal/services"
	"github.com/thereayou/stringify/internal/websocket"
	"github.com/thereayou/stringify/pkg/auth"
	"github.com/thereayou/stringify/pkg/key"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *database.Database
	Redis   *redis.Client
	Hub     *websocket.Hub
	Bridge  *websocket.RedisBridge
	Invites *notify.Async
	Sockets *handlers.WebSocketHandler

	log *slog.Logger
}

func NewServer(ctx context.Context, cfg config.Config, log *slog.Logger) (*Server, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}

	s := &Server{Config: cfg, DB: db, log: log}
	s.Hub = websocket.NewHub(log)

	var publisher websocket.Publisher = s.Hub
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		s.Redis = redis.NewClient(redisOpts)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := s.Redis.Ping(pingCtx).Err(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("redis connect failed: %w", err)
		}
		s.Bridge = websocket.NewRedisBridge(s.Redis, s.Hub, websocket.DefaultChannel, log)
		publisher = s.Bridge
	}

	var notifier notify.Notifier = notify.Disabled{Log: log}
	if cfg.MailEnabled() {
		notifier = notify.NewSendGrid(cfg.SendGridAPIKey, cfg.SendGridTmpl, cfg.MailFrom, cfg.JoinURLBase)
	}
	s.Invites = notify.NewAsync(notifier, cfg.RequestTimeout, log)

	clk := clock.NewMonotonic(clock.Real())
	registry := services.NewSessionRegistry(db, key.NewGenerator(), clk, services.RegistryConfig{
		JoinURLBase: cfg.JoinURLBase,
		KeyAttempts: cfg.KeyAttempts,
	}, log)
	messages := services.NewMessageStore(db, registry, clk)
	meetings := services.NewMeetingService(db, registry, log)
	coordinator := services.NewConnectionCoordinator(db, registry, messages, log)

	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.ConnectTTL)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS(cfg.Origins()))

	s.Sockets = handlers.NewWebSocketHandler(ctx, s.Hub, meetings,
		handlers.NewMessageHandler(coordinator, publisher, cfg.RequestTimeout, log),
		cfg.Origins(), log)

	APIEndpoints(router, cfg.RequestTimeout, tokens,
		handlers.NewMeetingHandler(meetings, tokens, s.Invites, log),
		handlers.NewHTTPMessageHandler(messages, log),
		s.Sockets,
	)
	s.Router = router
	return s, nil
}

// Run serves until ctx is canceled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	go s.Hub.Run()
	if s.Bridge != nil {
		go func() {
			if err := s.Bridge.Listen(ctx, nil); err != nil {
				s.log.Error("Redis bridge stopped", "error", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Config.Port),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server starting", "port", s.Config.Port, "driver", s.Config.DBDriver, "redis", s.Redis != nil)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close stops the hub and releases storage and Redis. The disconnects of
// the closed sockets and pending invitations are flushed first.
func (s *Server) Close() {
	s.Hub.Stop()
	if !s.Sockets.Wait(shutdownTimeout) {
		s.log.Warn("Sockets still closing at shutdown", "timeout", shutdownTimeout)
	}
	s.Invites.Wait()
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if err := s.DB.Close(); err != nil {
		s.log.Warn("Database close failed", "error", err)
	}
}
