package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"secrets-service/internal/config"
	api "secrets-service/internal/http"
	"secrets-service/internal/log"
	"secrets-service/internal/metrics"
	"secrets-service/internal/oauth"
	"secrets-service/internal/queue"
	"secrets-service/internal/ratelimit"
	"secrets-service/internal/repo"
	"secrets-service/internal/session"
)

func main() {
	cfg := config.Load()

	if _, err := log.Init(cfg.Prod); err != nil {
		stdlog.Fatalf("log init: %v", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.L().Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())

	// the process must not accept traffic without a reachable store
	if err := store.Ping(ctx); err != nil {
		log.L().Fatal("mongo ping", zap.Error(err))
	}
	if err := store.EnsureUserIndexes(ctx); err != nil {
		log.L().Fatal("user indexes", zap.Error(err))
	}

	var limiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rds := repo.NewRedis(cfg.RedisAddr)
		if err := rds.Ping(ctx); err != nil {
			log.L().Warn("redis unreachable, login rate limiting disabled", zap.Error(err))
		} else {
			limiter = ratelimit.New(rds.C, cfg.RateLimitPerMin)
			defer rds.Close()
		}
	}

	events := queue.NewNoop()
	if cfg.RabbitURL != "" {
		pub, err := queue.NewRabbit(cfg.RabbitURL, queue.Exchange)
		if err != nil {
			log.L().Warn("rabbit unreachable, events disabled", zap.Error(err))
		} else {
			events = pub
			defer pub.Close()
		}
	}

	metrics.MustRegister()

	sm := session.NewManager(cfg.SessionKey, cfg.CookieSecure, cfg.CookieSameSite)
	google := oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL, cfg.OAuthStateSecret)

	h := api.NewHandler(store, sm, google, limiter, events)
	r := api.NewRouter(h)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.ListenAndServe() }()

	log.L().Info("listening", zap.String("port", cfg.Port))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.L().Info("shutting down", zap.String("signal", s.String()))
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.L().Error("shutdown", zap.Error(err))
		}
	case err := <-srvErr:
		log.L().Error("server error", zap.Error(err))
	}
}
