// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Roles a user can hold
const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// Address labels
const (
	LabelHome  = "home"
	LabelWork  = "work"
	LabelOther = "other"
)

// User represents the user entity
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Email            string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password         string         `gorm:"not null;size:255" json:"-"` // Don't return in JSON
	FirstName        string         `gorm:"size:100" json:"first_name"`
	LastName         string         `gorm:"size:100" json:"last_name"`
	Phone            string         `gorm:"size:20" json:"phone"`
	Role             string         `gorm:"size:20;not null;default:'client'" json:"role"`
	IsActive         bool           `gorm:"not null" json:"is_active"`
	LastLoginAt      *time.Time     `json:"last_login_at"`
	// Fingerprint of the only refresh token currently accepted; empty after logout
	RefreshTokenHash string         `gorm:"size:64" json:"-"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Addresses []Address `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"addresses,omitempty"`
}

// Address represents a user delivery address
type Address struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Label          string    `gorm:"size:20;not null;default:'home'" json:"label"`
	Line           string    `gorm:"size:255;not null" json:"line"`
	Reference      string    `gorm:"size:255" json:"reference"`
	Region         string    `gorm:"size:100;not null" json:"region"`
	SubRegion      string    `gorm:"size:100;not null" json:"sub_region"`
	District       string    `gorm:"size:100;not null" json:"district"`
	PostalCode     string    `gorm:"size:20" json:"postal_code"`
	Phone          string    `gorm:"size:20" json:"phone"`
	IsDefault      bool      `gorm:"not null" json:"is_default"`
	InDeliveryZone bool      `gorm:"not null" json:"in_delivery_zone"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// TableName overrides the table name for Address
func (Address) TableName() string {
	return "addresses"
}

// BeforeCreate hook to handle business logic before user creation
func (u *User) BeforeCreate(tx *gorm.DB) error {
	// Email should be lowercase
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleClient
	}
	return nil
}

// GetFullName returns the user's full name
func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// GetDisplayName returns display name (full name or email)
func (u *User) GetDisplayName() string {
	fullName := u.GetFullName()
	if fullName != "" {
		return fullName
	}
	return u.Email
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
