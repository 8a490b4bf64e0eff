package cart

import (
	"context"
	"log"

	"go-storefront/apps/order"
	ordermodel "go-storefront/apps/order/model"
	productmodel "go-storefront/apps/product/model"
	"go-storefront/pkg/apperr"
	"go-storefront/pkg/auth"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Line is one cart entry priced at the current product price.
type Line struct {
	ProductID uint                  `json:"product_id"`
	Quantity  int                   `json:"quantity"`
	Product   *productmodel.Product `json:"product"`
	Subtotal  string                `json:"subtotal"`
}

type View struct {
	Items []Line `json:"items"`
	Total string `json:"total"`
}

type CheckoutInput struct {
	order.Shipping
	order.PaymentRef
}

type Service struct {
	store  *Store
	db     *gorm.DB
	orders *order.Service
}

func NewService(store *Store, db *gorm.DB, orders *order.Service) *Service {
	return &Service{store: store, db: db, orders: orders}
}

// View prices the cart. Entries whose product is gone or inactive are left out.
func (s *Service) View(ctx context.Context, userID uint) (*View, error) {
	items, err := s.store.Items(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "read cart")
	}

	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	var products []productmodel.Product
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Preload("Category").Where("id IN ? AND is_active = ?", ids, true).Find(&products).Error; err != nil {
			return nil, apperr.Wrap(err, "load products")
		}
	}
	byID := make(map[uint]*productmodel.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	v := &View{Items: make([]Line, 0, len(items))}
	total := decimal.Zero
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		sub := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(sub)
		v.Items = append(v.Items, Line{ProductID: it.ProductID, Quantity: it.Quantity, Product: p, Subtotal: sub.StringFixed(2)})
	}
	v.Total = total.StringFixed(2)
	return v, nil
}

func (s *Service) checkProduct(ctx context.Context, in Item) error {
	if in.Quantity < 1 {
		return apperr.InvalidField("quantity", "ensure this value is greater than or equal to 1")
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&productmodel.Product{}).Where("id = ? AND is_active = ?", in.ProductID, true).Count(&n).Error; err != nil {
		return apperr.Wrap(err, "check product")
	}
	if n == 0 {
		return apperr.NotFoundf("product %d not found", in.ProductID)
	}
	return nil
}

// AddItem puts qty more of an active product into the cart.
func (s *Service) AddItem(ctx context.Context, userID uint, in Item) (*View, error) {
	if err := s.checkProduct(ctx, in); err != nil {
		return nil, err
	}
	qty, err := s.store.Add(ctx, userID, in.ProductID, in.Quantity)
	if err != nil {
		return nil, apperr.Wrap(err, "add to cart")
	}
	log.Printf("[Cart] user %d: product %d now x%d", userID, in.ProductID, qty)
	return s.View(ctx, userID)
}

// SetItem replaces the quantity of a product already in, or new to, the cart.
func (s *Service) SetItem(ctx context.Context, userID uint, in Item) (*View, error) {
	if err := s.checkProduct(ctx, in); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, userID, in.ProductID, in.Quantity); err != nil {
		return nil, apperr.Wrap(err, "update cart")
	}
	return s.View(ctx, userID)
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID uint) (*View, error) {
	if err := s.store.Remove(ctx, userID, productID); err != nil {
		return nil, apperr.Wrap(err, "remove from cart")
	}
	return s.View(ctx, userID)
}

func (s *Service) Clear(ctx context.Context, userID uint) error {
	if err := s.store.Empty(ctx, userID); err != nil {
		return apperr.Wrap(err, "clear cart")
	}
	return nil
}

// Checkout 下单: build an order from the cart, then empty the cart. The cart survives
// when the order is rejected.
func (s *Service) Checkout(ctx context.Context, actor auth.Identity, in CheckoutInput) (*ordermodel.Order, error) {
	items, err := s.store.Items(ctx, actor.UserID)
	if err != nil {
		return nil, apperr.Wrap(err, "read cart")
	}
	if len(items) == 0 {
		return nil, apperr.Invalid("cart is empty")
	}

	lines := make([]order.ItemInput, 0, len(items))
	for _, it := range items {
		lines = append(lines, order.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	o, err := s.orders.CreateOrder(ctx, actor, order.CreateInput{Items: lines, Shipping: in.Shipping, PaymentRef: in.PaymentRef})
	if err != nil {
		return nil, err
	}

	// 清空购物车
	if err := s.store.Empty(ctx, actor.UserID); err != nil {
		log.Printf("[Cart] order %s placed but cart of user %d not emptied: %v", o.OrderNo, actor.UserID, err)
	}
	return o, nil
}
