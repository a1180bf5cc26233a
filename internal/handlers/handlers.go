// Package handlers exposes the console API consumed by the admin UI.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/apperrors"
	"github.com/comercio-labs/admin-console-service/internal/service"
)

// Handlers holds all HTTP handlers for the admin console.
type Handlers struct {
	orders   *service.OrderService
	products *service.ProductService
	auth     *service.AuthService
	logger   *zap.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	orders *service.OrderService,
	products *service.ProductService,
	auth *service.AuthService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		orders:   orders,
		products: products,
		auth:     auth,
		logger:   logger,
	}
}

// handleError maps the gateway error taxonomy onto console responses. Every
// failure is a plain JSON error body; nothing here discards form state, so
// the user can always retry.
func handleError(c *gin.Context, err error) {
	var (
		validationErr *apperrors.ValidationError
		serverErr     *apperrors.ServerError
		networkErr    *apperrors.NetworkError
	)

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": validationErr.Reason,
			"field": validationErr.Field,
		})
	case errors.As(err, &serverErr):
		// The backend already chose a status; relay it with its message.
		msg := serverErr.Message
		if msg == "" {
			msg = http.StatusText(serverErr.Status)
		}
		c.JSON(serverErr.Status, gin.H{"error": msg})
	case errors.As(err, &networkErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "commerce backend unreachable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
