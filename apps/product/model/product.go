package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Category 商品分类
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Slug        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Product 商品. Inactive products are hidden from everyone but staff.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(200);not null" json:"name"`
	Slug        string          `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CategoryID  *uint           `gorm:"index" json:"category"`
	Category    *Category       `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	IsActive    bool            `gorm:"not null;index" json:"is_active"`
	Image       string          `gorm:"type:varchar(255)" json:"image"`
	Images      []ProductImage  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductImage 商品图片, removed together with its product.
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"index;not null" json:"-"`
	Image     string    `gorm:"type:varchar(255);not null" json:"image"`
	AltText   string    `gorm:"type:varchar(200)" json:"alt_text"`
	CreatedAt time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (Product) TableName() string {
	return "products"
}

func (ProductImage) TableName() string {
	return "product_images"
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	var categoryName *string
	if p.Category != nil {
		categoryName = &p.Category.Name
	}
	images := p.Images
	if images == nil {
		images = []ProductImage{}
	}
	return json.Marshal(struct {
		alias
		Price        string         `json:"price"`
		CategoryName *string        `json:"category_name"`
		InStock      bool           `json:"in_stock"`
		Images       []ProductImage `json:"images"`
	}{alias(p), p.Price.StringFixed(2), categoryName, p.InStock(), images})
}
