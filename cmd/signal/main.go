package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	handlers "parley/internal/handlers/http"
	"parley/internal/core/services"
	"parley/internal/infrastructure/middleware"
	"parley/internal/infrastructure/monitoring"
	"parley/internal/infrastructure/repositories"
	wsignal "parley/internal/infrastructure/signal"
	"parley/pkg/config"
	"parley/pkg/logger"
	"parley/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := os.Getenv("PARLEY_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		// Logger is not up yet.
		panic(err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()
	sugar := log.Sugar()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "parley",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		sugar.Fatalw("failed to initialize tracing", "error", err)
	}
	defer tp.Shutdown(context.Background())

	factory, err := repositories.NewRepositoryFactory(cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to initialize repositories", "error", err)
	}
	defer factory.Close()

	users := factory.CreateUserRepository()
	authService := services.NewAuthService(cfg.Auth.JWTSecret)
	collector := monitoring.NewCollector(prometheus.DefaultRegisterer)

	hub := wsignal.NewHub(wsignal.HubOptions{
		PingInterval:   cfg.Signal.PingInterval,
		MaxMissedBeats: cfg.Signal.MaxMissedBeats,
		SendBuffer:     cfg.Signal.SendBuffer,
	}, collector, sugar)
	go hub.Run(ctx)

	wsServer := wsignal.NewServer(hub, authService, cfg.Signal.AllowedOrigins, sugar)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(sugar))
	router.Use(middleware.ErrorHandlerMiddleware(sugar))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	router.Use(middleware.CurrentUser(authService))

	handlers.NewAuthHandler(users, authService, cfg.Auth.SecureCookies).SetupRoutes(router)
	handlers.NewICEHandler(cfg.WebRTC.ICEServers).SetupRoutes(router)
	handlers.NewHealthHandler(factory.HealthCheck).SetupRoutes(router)
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	router.GET("/ws", gin.WrapF(wsServer.HandleWebSocket))

	// No read/write timeouts on the server itself: WebSocket connections
	// outlive any sane value, and the hub's liveness monitor handles dead
	// connections.
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		sugar.Infow("signaling server started", "addr", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Errorw("server error", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("forced shutdown", "error", err)
	}
}
