// internal/domain/user/address_service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// ZoneChecker decides whether a (region, sub-region) pair is deliverable
type ZoneChecker interface {
	IsDeliverable(region, subRegion string) bool
}

// AddressService handles address business logic
type AddressService struct {
	db    *gorm.DB
	zones ZoneChecker
}

// NewAddressService creates a new address service
func NewAddressService(db *gorm.DB, zones ZoneChecker) *AddressService {
	return &AddressService{
		db:    db,
		zones: zones,
	}
}

// CreateAddressRequest represents address creation data
type CreateAddressRequest struct {
	Label      string `json:"label" binding:"omitempty,oneof=home work other"`
	Line       string `json:"line" binding:"required"`
	Reference  string `json:"reference"`
	Region     string `json:"region" binding:"required"`
	SubRegion  string `json:"sub_region" binding:"required"`
	District   string `json:"district" binding:"required"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"is_default"`
}

// UpdateAddressRequest represents address update data
type UpdateAddressRequest struct {
	Label      *string `json:"label" binding:"omitempty,oneof=home work other"`
	Line       *string `json:"line"`
	Reference  *string `json:"reference"`
	Region     *string `json:"region"`
	SubRegion  *string `json:"sub_region"`
	District   *string `json:"district"`
	PostalCode *string `json:"postal_code"`
	Phone      *string `json:"phone"`
	IsDefault  *bool   `json:"is_default"`
}

// GetUserAddresses retrieves all addresses for a user, default first
func (s *AddressService) GetUserAddresses(ctx context.Context, userID uint) ([]Address, error) {
	var addresses []Address

	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve addresses: %w", err)
	}
	for i := range addresses {
		s.refreshZone(&addresses[i])
	}

	return addresses, nil
}

// GetAddress retrieves an address owned by the user. The delivery zone flag
// reflects the zones configured now, not when the address was saved.
func (s *AddressService) GetAddress(ctx context.Context, userID, addressID uint) (*Address, error) {
	var address Address
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("address not found")
		}
		return nil, fmt.Errorf("failed to retrieve address: %w", err)
	}
	s.refreshZone(&address)

	return &address, nil
}

// CreateAddress creates a new address for a user
func (s *AddressService) CreateAddress(ctx context.Context, userID uint, req *CreateAddressRequest) (*Address, error) {
	label := req.Label
	if label == "" {
		label = LabelHome
	}

	address := Address{
		UserID:     userID,
		Label:      label,
		Line:       strings.TrimSpace(req.Line),
		Reference:  req.Reference,
		Region:     strings.TrimSpace(req.Region),
		SubRegion:  strings.TrimSpace(req.SubRegion),
		District:   strings.TrimSpace(req.District),
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
		IsDefault:  req.IsDefault,
	}
	s.refreshZone(&address)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			if err := unsetDefaultAddresses(tx, userID); err != nil {
				return err
			}
		}

		if err := tx.Create(&address).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &address, nil
}

// UpdateAddress updates an existing address and recomputes its delivery zone flag
func (s *AddressService) UpdateAddress(ctx context.Context, userID, addressID uint, req *UpdateAddressRequest) (*Address, error) {
	address, err := s.GetAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	if req.Label != nil {
		address.Label = *req.Label
	}
	if req.Line != nil {
		address.Line = strings.TrimSpace(*req.Line)
	}
	if req.Reference != nil {
		address.Reference = *req.Reference
	}
	if req.Region != nil {
		address.Region = strings.TrimSpace(*req.Region)
	}
	if req.SubRegion != nil {
		address.SubRegion = strings.TrimSpace(*req.SubRegion)
	}
	if req.District != nil {
		address.District = strings.TrimSpace(*req.District)
	}
	if req.PostalCode != nil {
		address.PostalCode = *req.PostalCode
	}
	if req.Phone != nil {
		address.Phone = *req.Phone
	}
	if req.IsDefault != nil {
		address.IsDefault = *req.IsDefault
	}
	s.refreshZone(address)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			if err := unsetDefaultAddresses(tx, userID); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"label":            address.Label,
			"line":             address.Line,
			"reference":        address.Reference,
			"region":           address.Region,
			"sub_region":       address.SubRegion,
			"district":         address.District,
			"postal_code":      address.PostalCode,
			"phone":            address.Phone,
			"is_default":       address.IsDefault,
			"in_delivery_zone": address.InDeliveryZone,
		}
		if err := tx.Model(&Address{}).Where("id = ? AND user_id = ?", addressID, userID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetAddress(ctx, userID, addressID)
}

// DeleteAddress deletes an address
func (s *AddressService) DeleteAddress(ctx context.Context, userID, addressID uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", addressID, userID).Delete(&Address{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete address: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return apperrors.NotFound("address not found")
	}

	return nil
}

func (s *AddressService) refreshZone(address *Address) {
	address.InDeliveryZone = s.zones.IsDeliverable(address.Region, address.SubRegion)
}

// unsetDefaultAddresses removes default flag from all addresses of the user
func unsetDefaultAddresses(tx *gorm.DB, userID uint) error {
	err := tx.Model(&Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
	if err != nil {
		return fmt.Errorf("failed to unset default addresses: %w", err)
	}
	return nil
}
