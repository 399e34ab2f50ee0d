// internal/interfaces/http/handlers/order.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/electrostore/ecommerce-backend/internal/domain/order"
	"github.com/electrostore/ecommerce-backend/internal/interfaces/http/middleware"
	"github.com/electrostore/ecommerce-backend/internal/pkg/pdf"
	"github.com/gin-gonic/gin"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	receipts     *pdf.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, receipts *pdf.Service) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		receipts:     receipts,
	}
}

// GetMyOrders handles GET /orders/me
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, err := h.orderService.GetUserOrders(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Orders retrieved successfully", orders)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	found, ok := h.loadVisibleOrder(c)
	if !ok {
		return
	}

	respondOK(c, http.StatusOK, "Order retrieved successfully", found)
}

// GetReceipt handles GET /orders/:id/receipt
func (h *OrderHandler) GetReceipt(c *gin.Context) {
	found, ok := h.loadVisibleOrder(c)
	if !ok {
		return
	}

	receipt, err := h.receipts.GenerateReceipt(found)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", found.Code))
	c.Data(http.StatusOK, "application/pdf", receipt)
}

// AdminGetOrders handles GET /orders for admins
func (h *OrderHandler) AdminGetOrders(c *gin.Context) {
	var req order.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	orders, err := h.orderService.GetOrders(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Orders retrieved successfully", orders)
}

// AdminUpdateOrderStatus handles PUT /orders/:id/status
func (h *OrderHandler) AdminUpdateOrderStatus(c *gin.Context) {
	var req struct {
		State order.State `json:"state" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.orderService.UpdateStatus(c.Request.Context(), c.Param("id"), req.State)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Order status updated successfully", updated)
}

// loadVisibleOrder returns the order when the caller owns it or is an admin
func (h *OrderHandler) loadVisibleOrder(c *gin.Context) (*order.Order, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}

	found, err := h.fetch(c.Request.Context(), c.Param("id"), userID, middleware.IsAdminFromContext(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return found, true
}

func (h *OrderHandler) fetch(ctx context.Context, orderID string, userID uint, isAdmin bool) (*order.Order, error) {
	if isAdmin {
		return h.orderService.GetOrder(ctx, orderID)
	}
	return h.orderService.GetForUser(ctx, orderID, userID)
}
