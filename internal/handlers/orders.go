package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/draft"
	"github.com/comercio-labs/admin-console-service/internal/models"
)

// ListOrders handles GET /api/orders. Each call refreshes the session's
// collection from the backend, like the console table reloading.
func (h *Handlers) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder handles GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/orders/:id
func (h *Handlers) DeleteOrder(c *gin.Context) {
	id := c.Param("id")
	if err := h.orders.DeleteOrder(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	h.logger.Info("order deleted", zap.String("order_id", id))
	c.Status(http.StatusNoContent)
}

// OpenCreateDraft handles POST /api/orders/draft
func (h *Handlers) OpenCreateDraft(c *gin.Context) {
	view := h.orders.OpenCreate(c.Request.Context())
	c.JSON(http.StatusOK, view)
}

// OpenEditDraft handles POST /api/orders/:id/draft
func (h *Handlers) OpenEditDraft(c *gin.Context) {
	view, err := h.orders.OpenEdit(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// OpenViewOrder handles POST /api/orders/:id/view
func (h *Handlers) OpenViewOrder(c *gin.Context) {
	view, err := h.orders.OpenView(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetDraft handles GET /api/orders/draft
func (h *Handlers) GetDraft(c *gin.Context) {
	c.JSON(http.StatusOK, h.orders.DraftView(c.Request.Context()))
}

// CloseDraft handles DELETE /api/orders/draft
func (h *Handlers) CloseDraft(c *gin.Context) {
	h.orders.CloseDraft(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// UpdateDraft handles PATCH /api/orders/draft — the form's header fields.
func (h *Handlers) UpdateDraft(c *gin.Context) {
	var req struct {
		CustomerID *string `json:"idUsuario"`
		Status     *string `json:"estado"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var (
		view draft.View
		err  error
	)
	if req.CustomerID != nil {
		view, err = h.orders.SetCustomer(c.Request.Context(), *req.CustomerID)
		if err != nil {
			handleError(c, err)
			return
		}
	}
	if req.Status != nil {
		view, err = h.orders.SetStatus(c.Request.Context(), models.OrderStatus(*req.Status))
		if err != nil {
			handleError(c, err)
			return
		}
	}
	if req.CustomerID == nil && req.Status == nil {
		view = h.orders.DraftView(c.Request.Context())
	}
	c.JSON(http.StatusOK, view)
}

// AddDraftLine handles POST /api/orders/draft/lines
func (h *Handlers) AddDraftLine(c *gin.Context) {
	view, err := h.orders.AddLine(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateDraftLine handles PATCH /api/orders/draft/lines/:index
func (h *Handlers) UpdateDraftLine(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
		return
	}

	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.orders.UpdateLine(c.Request.Context(), index, draft.Field(req.Field), req.Value)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveDraftLine handles DELETE /api/orders/draft/lines/:index
func (h *Handlers) RemoveDraftLine(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
		return
	}

	view, err := h.orders.RemoveLine(c.Request.Context(), index)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitDraft handles POST /api/orders/draft/submit
func (h *Handlers) SubmitDraft(c *gin.Context) {
	order, err := h.orders.Submit(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	h.logger.Info("order submitted",
		zap.String("order_id", order.ID),
		zap.Float64("total", order.Total))
	c.JSON(http.StatusOK, order)
}
