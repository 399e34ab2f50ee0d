// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"net/http"

	"github.com/electrostore/ecommerce-backend/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// UserAdminHandler handles admin user management endpoints
type UserAdminHandler struct {
	adminService *user.AdminService
}

// NewUserAdminHandler creates a new user admin handler
func NewUserAdminHandler(adminService *user.AdminService) *UserAdminHandler {
	return &UserAdminHandler{adminService: adminService}
}

// GetUsers handles GET /users
func (h *UserAdminHandler) GetUsers(c *gin.Context) {
	var req user.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.adminService.GetUsers(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Users retrieved successfully", response)
}

// GetUser handles GET /users/:id
func (h *UserAdminHandler) GetUser(c *gin.Context) {
	userID, ok := uintParam(c, "id", "user ID")
	if !ok {
		return
	}

	userWithStats, err := h.adminService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "User retrieved successfully", userWithStats)
}

// UpdateUser handles PUT /users/:id
func (h *UserAdminHandler) UpdateUser(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := uintParam(c, "id", "user ID")
	if !ok {
		return
	}

	var req user.AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.adminService.UpdateUser(c.Request.Context(), userID, &req, adminID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "User updated successfully", updated)
}

// DeleteUser handles DELETE /users/:id
func (h *UserAdminHandler) DeleteUser(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := uintParam(c, "id", "user ID")
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), userID, adminID); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "User deleted successfully", nil)
}
