package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go-storefront/apps/product"
	"go-storefront/apps/schema"
	"go-storefront/apps/user"
	"go-storefront/pkg/apperr"
	"go-storefront/pkg/config"
	"go-storefront/pkg/database"
	"go-storefront/pkg/jwt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type sampleProduct struct {
	name, description, price string
	stock                    int
}

type sampleCategory struct {
	name, slug, description string
	products                []sampleProduct
}

var catalog = []sampleCategory{
	{"Electronics", "electronics", "Devices and gadgets", []sampleProduct{
		{"Wireless Headphones Pro", "Noise cancelling over-ear headphones, 30h battery.", "299.99", 50},
		{"Smart Watch Series 5", "Fitness tracking, GPS and notifications.", "399.99", 30},
		{"4K Webcam Ultra", "Autofocus webcam with a built-in microphone.", "129.99", 75},
		{"Portable Bluetooth Speaker", "Waterproof speaker with 12h battery.", "79.99", 100},
	}},
	{"Fashion", "fashion", "Clothing and accessories", []sampleProduct{
		{"Premium Leather Jacket", "Classic cut genuine leather jacket.", "249.99", 25},
		{"Designer Sunglasses", "Polarized lenses with UV protection.", "159.99", 60},
		{"Classic Denim Jeans", "Stretch denim, modern fit.", "89.99", 120},
	}},
	{"Home & Living", "home-living", "Home decor and essentials", []sampleProduct{
		{"Smart LED Desk Lamp", "Dimmable lamp with a USB charging port.", "69.99", 80},
		{"Ceramic Coffee Maker", "Programmable 12-cup coffee maker.", "89.99", 45},
		{"Memory Foam Pillow Set", "Two cooling gel pillows.", "79.99", 90},
	}},
	{"Sports & Fitness", "sports-fitness", "Sports equipment and fitness gear", []sampleProduct{
		{"Yoga Mat Premium", "Extra thick non-slip mat with strap.", "49.99", 150},
		{"Adjustable Dumbbells Set", "5 to 25 kg quick-change dumbbells.", "199.99", 20},
	}},
}

func main() {
	configDir := flag.String("config", ".", "directory holding config.yaml")
	reset := flag.Bool("reset", false, "delete every product and category first")
	staffName := flag.String("staff-user", "admin", "staff username")
	staffEmail := flag.String("staff-email", "admin@example.com", "staff email")
	staffPassword := flag.String("staff-password", "change-me-please", "staff password")
	flag.Parse()

	c, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	db, err := database.Open(c.Database)
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}
	if err := schema.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	ctx := context.Background()
	if *reset {
		if err := clearCatalog(ctx, db); err != nil {
			log.Fatalf("清空商品失败: %v", err)
		}
	}
	created, err := seedCatalog(ctx, product.NewService(db, nil, nil))
	if err != nil {
		log.Fatalf("写入商品失败: %v", err)
	}
	log.Printf("[Seed] %d products created", created)

	users := user.NewService(db)
	staff, err := users.CreateStaff(ctx, user.RegisterInput{Username: *staffName, Email: *staffEmail, Password: *staffPassword})
	if err != nil {
		log.Fatalf("创建管理员失败: %v", err)
	}
	if !user.CheckPassword(staff, *staffPassword) {
		log.Printf("[Seed] WARN %s already existed with a different password", staff.Username)
	}

	tokens := jwt.NewManager(c.Jwt.Secret, time.Duration(c.Jwt.TTLHours)*time.Hour)
	token, err := tokens.GenerateToken(int64(staff.ID), staff.Username, staff.Role)
	if err != nil {
		log.Fatalf("生成 Token 失败: %v", err)
	}
	fmt.Printf("staff %s (id=%d) token:\n%s\n", staff.Username, staff.ID, token)
}

// seedCatalog creates whatever sample categories and products are missing.
func seedCatalog(ctx context.Context, svc *product.Service) (int, error) {
	created := 0
	for _, sc := range catalog {
		cat, err := svc.GetCategory(ctx, sc.slug)
		if apperr.Is(err, apperr.NotFound) {
			cat, err = svc.CreateCategory(ctx, product.CategoryInput{Name: sc.name, Slug: sc.slug, Description: sc.description})
		}
		if err != nil {
			return created, fmt.Errorf("category %s: %w", sc.slug, err)
		}

		for _, sp := range sc.products {
			slug := product.Slugify(sp.name)
			if _, err := svc.GetProduct(ctx, slug, true); err == nil {
				continue
			} else if !apperr.Is(err, apperr.NotFound) {
				return created, err
			}

			price := decimal.RequireFromString(sp.price)
			categoryID := cat.ID
			_, err := svc.CreateProduct(ctx, product.ProductInput{
				Name:        sp.name,
				Slug:        slug,
				Description: sp.description,
				Price:       &price,
				Category:    &categoryID,
				Stock:       sp.stock,
			})
			if err != nil {
				return created, fmt.Errorf("product %s: %w", slug, err)
			}
			created++
		}
	}
	return created, nil
}

func clearCatalog(ctx context.Context, db *gorm.DB) error {
	svc := product.NewService(db, nil, nil)
	products, err := svc.ListProducts(ctx, product.ProductFilter{}, true)
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := svc.DeleteProduct(ctx, p.Slug); err != nil {
			return err
		}
	}
	cats, err := svc.ListCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range cats {
		if err := svc.DeleteCategory(ctx, c.Slug); err != nil {
			return err
		}
	}
	log.Printf("[Seed] removed %d products and %d categories", len(products), len(cats))
	return nil
}
