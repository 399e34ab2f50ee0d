// internal/domain/product/entity.go
package product

import (
	"time"

	"gorm.io/gorm"
)

// Product represents the product entity. Prices are in cents.
type Product struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"not null;size:255" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Brand       string `gorm:"size:100" json:"brand"`
	Description string `gorm:"type:text" json:"description"`
	ImageURL    string `gorm:"size:500" json:"image_url"`
	CategoryID  *uint  `gorm:"index" json:"category_id"`

	PurchasePrice  int64   `gorm:"not null" json:"purchase_price"`
	MarginPercent  float64 `gorm:"not null;default:0" json:"margin_percent"`
	ListPrice      int64   `gorm:"not null" json:"list_price"`
	IsOnSale       bool    `gorm:"default:false" json:"is_on_sale"`
	SalePercentage float64 `gorm:"default:0" json:"sale_percentage"`
	SalePrice      *int64  `json:"sale_price"`

	Stock      int            `gorm:"default:0" json:"stock"`
	IsActive   bool           `gorm:"not null" json:"is_active"`
	IsFeatured bool           `gorm:"default:false" json:"is_featured"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category,omitempty"`
}

// Category represents product categories
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	IsActive    bool           `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Product) TableName() string  { return "products" }
func (Category) TableName() string { return "categories" }

// EffectivePrice returns the unit price charged at checkout
func (p *Product) EffectivePrice() int64 {
	return EffectivePrice(p.ListPrice, p.IsOnSale, p.SalePercentage, p.SalePrice)
}
