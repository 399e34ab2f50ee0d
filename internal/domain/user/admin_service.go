// internal/domain/user/admin_service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/electrostore/ecommerce-backend/internal/domain/product"
	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AdminService handles admin user management operations
type AdminService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewAdminService creates a new admin user service
func NewAdminService(db *gorm.DB, log logrus.FieldLogger) *AdminService {
	return &AdminService{
		db:  db,
		log: log.WithField("service", "user_admin"),
	}
}

// UserListRequest represents user list query parameters
type UserListRequest struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Search string `form:"search"`
	Status string `form:"status" binding:"omitempty,oneof=active inactive all"`
	Role   string `form:"role" binding:"omitempty,oneof=client admin all"`
}

// UserListResponse represents user list with pagination
type UserListResponse struct {
	Users      []UserWithStats    `json:"users"`
	Pagination product.Pagination `json:"pagination"`
}

// UserWithStats represents a user with account statistics
type UserWithStats struct {
	User
	AddressCount int64 `json:"address_count"`
}

// AdminUpdateUserRequest represents fields an admin may change on any account
type AdminUpdateUserRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=20"`
	Role      *string `json:"role" binding:"omitempty,oneof=client admin"`
	IsActive  *bool   `json:"is_active"`
}

// GetUsers retrieves users with filtering and pagination, newest first
func (s *AdminService) GetUsers(ctx context.Context, req *UserListRequest) (*UserListResponse, error) {
	var users []User
	var total int64

	req.Page, req.Limit = product.NormalizePage(req.Page, req.Limit)

	query := s.db.WithContext(ctx).Model(&User{})

	if req.Search != "" {
		searchTerm := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR phone LIKE ?",
			searchTerm, searchTerm, searchTerm, "%"+req.Search+"%",
		)
	}

	switch req.Status {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}

	if req.Role == RoleClient || req.Role == RoleAdmin {
		query = query.Where("role = ?", req.Role)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(req.Limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}

	usersWithStats := make([]UserWithStats, 0, len(users))
	for _, u := range users {
		count, err := s.addressCount(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		usersWithStats = append(usersWithStats, UserWithStats{User: u, AddressCount: count})
	}

	return &UserListResponse{
		Users:      usersWithStats,
		Pagination: product.NewPagination(req.Page, req.Limit, total),
	}, nil
}

// GetUser retrieves a single user by ID, active or not, with addresses
func (s *AdminService) GetUser(ctx context.Context, userID uint) (*UserWithStats, error) {
	var user User
	if err := s.db.WithContext(ctx).Preload("Addresses").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &UserWithStats{User: user, AddressCount: int64(len(user.Addresses))}, nil
}

// UpdateUser applies admin changes. An admin cannot deactivate or demote
// themselves, and the last active admin cannot be deactivated or demoted.
// Deactivating an account revokes its refresh token.
func (s *AdminService) UpdateUser(ctx context.Context, userID uint, req *AdminUpdateUserRequest, adminID uint) (*UserWithStats, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("user not found")
			}
			return fmt.Errorf("failed to find user: %w", err)
		}

		deactivating := req.IsActive != nil && !*req.IsActive && user.IsActive
		demoting := req.Role != nil && *req.Role != RoleAdmin && user.IsAdmin()

		if userID == adminID && deactivating {
			return apperrors.Policy("cannot deactivate your own account")
		}
		if userID == adminID && demoting {
			return apperrors.Policy("cannot remove your own admin privileges")
		}
		if (deactivating || demoting) && user.IsAdmin() && user.IsActive {
			if err := ensureAnotherAdmin(tx, userID); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{}
		if req.FirstName != nil {
			updates["first_name"] = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			updates["last_name"] = strings.TrimSpace(*req.LastName)
		}
		if req.Phone != nil {
			updates["phone"] = strings.TrimSpace(*req.Phone)
		}
		if req.Role != nil {
			updates["role"] = *req.Role
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
			if !*req.IsActive {
				updates["refresh_token_hash"] = ""
			}
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "admin_id": adminID}).Info("user updated by admin")

	return s.GetUser(ctx, userID)
}

// DeleteUser soft-deletes an account. Admins cannot delete themselves or the last active admin.
func (s *AdminService) DeleteUser(ctx context.Context, userID, adminID uint) error {
	if userID == adminID {
		return apperrors.Policy("cannot delete your own account")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("user not found")
			}
			return fmt.Errorf("failed to find user: %w", err)
		}

		if user.IsAdmin() && user.IsActive {
			if err := ensureAnotherAdmin(tx, userID); err != nil {
				return err
			}
		}

		if err := tx.Model(&user).Update("refresh_token_hash", "").Error; err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "admin_id": adminID}).Info("user deleted by admin")
	return nil
}

func ensureAnotherAdmin(tx *gorm.DB, userID uint) error {
	var adminCount int64
	err := tx.Model(&User{}).
		Where("role = ? AND is_active = ? AND id <> ?", RoleAdmin, true, userID).
		Count(&adminCount).Error
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if adminCount == 0 {
		return apperrors.Policy("at least one active admin must remain")
	}
	return nil
}

func (s *AdminService) addressCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count addresses: %w", err)
	}
	return count, nil
}
