package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/clients"
	"github.com/comercio-labs/admin-console-service/internal/config"
	"github.com/comercio-labs/admin-console-service/internal/events"
	"github.com/comercio-labs/admin-console-service/internal/handlers"
	"github.com/comercio-labs/admin-console-service/internal/logger"
	"github.com/comercio-labs/admin-console-service/internal/metrics"
	"github.com/comercio-labs/admin-console-service/internal/server"
	"github.com/comercio-labs/admin-console-service/internal/service"
	"github.com/comercio-labs/admin-console-service/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.Initialize(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting admin-console",
		zap.Int("port", cfg.Server.Port),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.Bool("audit_enabled", cfg.Kafka.Enabled()))

	m := metrics.New("admin_console")

	sessions := session.NewRedisStore(cfg.Redis, cfg.Session, log.Named("sessions"))
	defer sessions.Close()

	tokens := session.NewContextTokenSource(sessions)

	orderGateway := clients.NewHTTPOrderGateway(cfg.Backend, tokens, m, log.Named("orders-gateway"))
	catalogGateway := clients.NewHTTPCatalogGateway(cfg.Backend, tokens, m, log.Named("catalog-gateway"))
	authGateway := clients.NewHTTPAuthGateway(cfg.Backend, tokens, m, log.Named("auth-gateway"))

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka, log.Named("audit"))
	}
	defer publisher.Close()

	orderService := service.NewOrderService(orderGateway, catalogGateway, publisher, log.Named("order-service"))
	productService := service.NewProductService(catalogGateway, log.Named("product-service"))
	authService := service.NewAuthService(authGateway, sessions, orderService, log.Named("auth-service"))

	h := handlers.NewHandlers(orderService, productService, authService, log.Named("handlers"))

	srv := server.New(h, cfg, sessions, m, log.Named("http"))

	go func() {
		log.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
