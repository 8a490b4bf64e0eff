package model

import (
	"encoding/json"
	"time"

	productmodel "go-storefront/apps/product/model"
	usermodel "go-storefront/apps/user/model"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status an order may hold. Any of them is a legal target from any other.
var Statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

const DefaultPaymentMethod = "paypal"

// Order 订单主表. TotalAmount is fixed at creation from the item price snapshots.
type Order struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	OrderNo          string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	UserID           uint            `gorm:"index;not null" json:"user"`
	User             *usermodel.User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Status           Status          `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	ShippingName     string          `gorm:"type:varchar(200);not null" json:"shipping_name"`
	ShippingEmail    string          `gorm:"type:varchar(254);not null" json:"shipping_email"`
	ShippingAddress  string          `gorm:"type:varchar(500);not null" json:"shipping_address"`
	ShippingCity     string          `gorm:"type:varchar(100);not null" json:"shipping_city"`
	ShippingState    string          `gorm:"type:varchar(100);not null" json:"shipping_state"`
	ShippingZip      string          `gorm:"type:varchar(20);not null" json:"shipping_zip"`
	ShippingCountry  string          `gorm:"type:varchar(100);not null" json:"shipping_country"`
	PaymentMethod    string          `gorm:"type:varchar(50);not null" json:"payment_method"`
	PaymentReference *string         `gorm:"type:varchar(200)" json:"payment_reference"`
	Paid             bool            `gorm:"not null;default:false" json:"paid"`
	PaidAt           *time.Time      `json:"paid_at"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderItem 订单明细表. Price is the unit price at order time; Product may be gone later.
type OrderItem struct {
	ID        uint                  `gorm:"primaryKey" json:"id"`
	OrderID   uint                  `gorm:"index;not null" json:"-"`
	ProductID *uint                 `gorm:"index" json:"product"`
	Product   *productmodel.Product `gorm:"constraint:OnDelete:SET NULL" json:"product_detail"`
	Quantity  int                   `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal       `gorm:"type:decimal(10,2);not null" json:"price"`
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i OrderItem) MarshalJSON() ([]byte, error) {
	type alias OrderItem
	return json.Marshal(struct {
		alias
		Price    string `json:"price"`
		Subtotal string `json:"subtotal"`
	}{alias(i), i.Price.StringFixed(2), i.Subtotal().StringFixed(2)})
}

func (o Order) MarshalJSON() ([]byte, error) {
	type alias Order
	var email *string
	if o.User != nil {
		email = &o.User.Email
	}
	items := o.Items
	if items == nil {
		items = []OrderItem{}
	}
	return json.Marshal(struct {
		alias
		TotalAmount string      `json:"total_amount"`
		UserEmail   *string     `json:"user_email"`
		Items       []OrderItem `json:"items"`
	}{alias(o), o.TotalAmount.StringFixed(2), email, items})
}
