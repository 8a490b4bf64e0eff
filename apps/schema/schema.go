// Package schema lists every persisted model in dependency order and migrates them.
package schema

import (
	"log"

	addressmodel "go-storefront/apps/address/model"
	ordermodel "go-storefront/apps/order/model"
	productmodel "go-storefront/apps/product/model"
	usermodel "go-storefront/apps/user/model"

	"gorm.io/gorm"
)

// Models returns fresh pointers to all tables, parents first.
func Models() []any {
	return []any{
		&usermodel.User{},
		&usermodel.UserProfile{},
		&addressmodel.Address{},
		&productmodel.Category{},
		&productmodel.Product{},
		&productmodel.ProductImage{},
		&ordermodel.Order{},
		&ordermodel.OrderItem{},
	}
}

// Migrate 自动迁移所有表
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Println("[Schema] migration finished")
	return nil
}
