// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/electrostore/ecommerce-backend/internal/domain/order"
	"github.com/gin-gonic/gin"
)

// CheckoutHandler turns carts into orders
type CheckoutHandler struct {
	orderService *order.Service
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(orderService *order.Service) *CheckoutHandler {
	return &CheckoutHandler{orderService: orderService}
}

// Checkout handles POST /checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	created, err := h.orderService.CreateOrderFromCart(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Order created successfully", created)
}
