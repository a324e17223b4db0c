package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/Davi2004/TarefasPlus/api"
	"github.com/Davi2004/TarefasPlus/config"
	"github.com/Davi2004/TarefasPlus/domain"
	"github.com/Davi2004/TarefasPlus/feed"
	"github.com/Davi2004/TarefasPlus/storage"
	"github.com/Davi2004/TarefasPlus/subscription"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.StandardLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(ctx, cfg.Tracing)
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Errorf("tracing shutdown: %v", err)
		}
	}()

	base, err := storage.New(cfg.Storage.ConnectionString, cfg.Storage.TasksTable, cfg.Storage.CommentsTable, cfg.Storage.ChangesQueue, logger)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	redisOpts, err := config.RedisOptions(cfg.Redis.ConnectionString)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	rc := redis.NewClient(redisOpts)
	defer rc.Close()

	store := storage.NewCache(base, rc, cfg.Redis.TasksCacheTTL)

	hub := subscription.NewHub(rc, cfg.Redis.UpdatesChannel, store, logger)
	go hub.Run(ctx)

	if cfg.Relay.Enabled {
		q, err := feed.NewAzureQueue(cfg.Storage.ConnectionString, cfg.Storage.ChangesQueue)
		if err != nil {
			log.Fatalf("change queue: %v", err)
		}
		relay := feed.NewRelay(q, store, rc, cfg.Redis.UpdatesChannel, logger)
		go relay.Run(ctx)
	}

	var jwks *keyfunc.JWKS
	if cfg.Auth.LocalMode == "" {
		jwks, err = keyfunc.Get(cfg.Auth.JWKSURL(), keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		defer jwks.EndBackground()
	}
	auth, err := api.NewAuth(cfg.Auth, jwks)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	renderer, err := api.NewRenderer()
	if err != nil {
		log.Fatalf("templates: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.PublicURL},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderContentEncoding, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
		AllowCredentials: true,
	}))

	srv := api.NewServer(api.Options{
		Store:    store,
		Auth:     auth,
		Hub:      hub,
		Deduper:  api.NewRedisDeduper(rc, cfg.Redis.IdempotencyTTL),
		Sessions: api.NewSessions(cfg.Session),
		Renderer: renderer,
		Logger:   logger,
		Dates: domain.DateFormat{
			Layout:   cfg.Display.DateLayout,
			Location: cfg.Display.Location(),
		},
		PublicURL: cfg.PublicURL,
	})
	srv.Register(e)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(sctx); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	log.Infof("listening on %s", cfg.ListenAddr)
	if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
