// Package server wires the gin router for the console API.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/config"
	"github.com/comercio-labs/admin-console-service/internal/handlers"
	"github.com/comercio-labs/admin-console-service/internal/metrics"
	"github.com/comercio-labs/admin-console-service/internal/session"
)

type Server struct {
	httpServer *http.Server
	router     *gin.Engine
}

// New builds the router and binds all console routes.
func New(h *handlers.Handlers, cfg *config.Config, sessions session.Store, m *metrics.Metrics, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.Use(RequestMetrics(m))
	router.Use(SessionMiddleware(sessions))

	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.Login)
			auth.POST("/register", h.Register)
			auth.POST("/logout", h.Logout)
		}

		orders := api.Group("/orders")
		{
			orders.GET("", h.ListOrders)

			// Draft routes come before :id so "draft" is never captured
			// as an order id.
			orders.POST("/draft", h.OpenCreateDraft)
			orders.GET("/draft", h.GetDraft)
			orders.PATCH("/draft", h.UpdateDraft)
			orders.DELETE("/draft", h.CloseDraft)
			orders.POST("/draft/lines", h.AddDraftLine)
			orders.PATCH("/draft/lines/:index", h.UpdateDraftLine)
			orders.DELETE("/draft/lines/:index", h.RemoveDraftLine)
			orders.POST("/draft/submit", h.SubmitDraft)

			orders.GET("/:id", h.GetOrder)
			orders.DELETE("/:id", h.DeleteOrder)
			orders.POST("/:id/draft", h.OpenEditDraft)
			orders.POST("/:id/view", h.OpenViewOrder)
		}

		api.GET("/users", h.ListUsers)

		products := api.Group("/products")
		{
			products.GET("", h.ListProducts)
			products.POST("", h.CreateProduct)
			products.GET("/:id", h.GetProduct)
			products.PUT("/:id", h.UpdateProduct)
			products.DELETE("/:id", h.DeleteProduct)
		}
	}

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
