// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/electrostore/ecommerce-backend/internal/config"
	"github.com/electrostore/ecommerce-backend/internal/domain/cart"
	"github.com/electrostore/ecommerce-backend/internal/domain/order"
	"github.com/electrostore/ecommerce-backend/internal/domain/payment"
	"github.com/electrostore/ecommerce-backend/internal/domain/product"
	"github.com/electrostore/ecommerce-backend/internal/domain/user"
	"github.com/electrostore/ecommerce-backend/internal/pkg/auth"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:  db,
		log: log,
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&user.Address{},
		&product.Category{},
		&product.Product{},
		&cart.Cart{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
		&payment.PaymentRecord{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	for _, model := range Models() {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("database auto-migrations completed")
	return nil
}

// CreateIndexes creates the composite indexes the queries rely on
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_featured ON products(is_featured, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_addresses_user_default ON addresses(user_id, is_default)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_state_paid_at ON orders(state, paid_at)",
		"CREATE INDEX IF NOT EXISTS idx_payment_records_order ON payment_records(order_id, created_at DESC)",
	}

	failed := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).Warn("failed to create index")
			failed++
		}
	}

	m.log.WithFields(logrus.Fields{"created": len(indexes) - failed, "failed": failed}).Info("indexes checked")
	if failed > 0 {
		return fmt.Errorf("%d indexes could not be created", failed)
	}
	return nil
}

// SeedInitialData inserts the admin account, categories and sample products if missing
func (m *Migration) SeedInitialData(seed config.SeedConfig, passwords *auth.PasswordManager) error {
	if err := m.seedAdminUser(seed, passwords); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	categories, err := m.seedCategories()
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	if err := m.seedProducts(categories); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	m.log.Info("initial data seeded")
	return nil
}

func (m *Migration) seedAdminUser(seed config.SeedConfig, passwords *auth.PasswordManager) error {
	if seed.AdminEmail == "" {
		return nil
	}

	var count int64
	if err := m.db.Model(&user.User{}).Where("email = ?", seed.AdminEmail).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := passwords.HashPassword(seed.AdminPassword)
	if err != nil {
		return err
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		admin := user.User{
			Email:     seed.AdminEmail,
			Password:  hashed,
			FirstName: "Admin",
			Role:      user.RoleAdmin,
			IsActive:  true,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		m.log.WithField("email", admin.Email).Info("created admin user")
		return cart.CreateForUser(tx, admin.ID)
	})
}

func (m *Migration) seedCategories() (map[string]uint, error) {
	categories := []product.Category{
		{Name: "Audio", Slug: "audio", Description: "Parlantes, audifonos y equipos de sonido"},
		{Name: "Computo", Slug: "computo", Description: "Laptops, perifericos y accesorios"},
		{Name: "Celulares", Slug: "celulares", Description: "Smartphones y accesorios"},
	}

	ids := make(map[string]uint, len(categories))
	for _, category := range categories {
		category.IsActive = true
		var existing product.Category
		err := m.db.Where("slug = ?", category.Slug).Attrs(category).FirstOrCreate(&existing).Error
		if err != nil {
			return nil, err
		}
		ids[existing.Slug] = existing.ID
	}
	return ids, nil
}

func (m *Migration) seedProducts(categories map[string]uint) error {
	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	samples := []struct {
		category string
		product  product.Product
	}{
		{"audio", product.Product{Name: "Parlante Bluetooth 20W", Slug: "parlante-bluetooth-20w", Brand: "Sonix", PurchasePrice: 8000, MarginPercent: 35, Stock: 25, IsFeatured: true}},
		{"audio", product.Product{Name: "Audifonos inalambricos", Slug: "audifonos-inalambricos", Brand: "Sonix", PurchasePrice: 5000, MarginPercent: 40, Stock: 40, IsOnSale: true, SalePercentage: 10}},
		{"computo", product.Product{Name: "Mouse optico", Slug: "mouse-optico", Brand: "Clicko", PurchasePrice: 1500, MarginPercent: 60, Stock: 100}},
		{"celulares", product.Product{Name: "Cargador USB-C 30W", Slug: "cargador-usb-c-30w", Brand: "Voltix", PurchasePrice: 2500, MarginPercent: 50, Stock: 60}},
	}

	for _, sample := range samples {
		p := sample.product
		categoryID := categories[sample.category]
		p.CategoryID = &categoryID
		p.IsActive = true
		product.RecomputePrices(&p)
		if err := m.db.Create(&p).Error; err != nil {
			return err
		}
	}

	m.log.WithField("count", len(samples)).Info("seeded sample products")
	return nil
}
