package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/models"
	"github.com/comercio-labs/admin-console-service/internal/session"
)

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		h.logger.Error("failed to bind login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sessionID, user, err := h.auth.Login(c.Request.Context(), creds)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": sessionID,
		"user":      user,
	})
}

// Register handles POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.auth.Register(c.Request.Context(), user)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListUsers handles GET /api/users
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.auth.ListUsers(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Logout handles POST /api/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	sessionID, ok := session.IDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), sessionID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
