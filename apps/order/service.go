// Package order turns submitted carts into priced orders and tracks payment and status.
package order

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go-storefront/apps/order/model"
	productmodel "go-storefront/apps/product/model"
	"go-storefront/pkg/apperr"
	"go-storefront/pkg/auth"
	"go-storefront/pkg/events"
	"go-storefront/pkg/validate"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ItemInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"min=1"`
}

// Shipping is copied onto the order verbatim.
type Shipping struct {
	ShippingName    string `json:"shipping_name" validate:"required,max=200"`
	ShippingEmail   string `json:"shipping_email" validate:"required,email,max=254"`
	ShippingAddress string `json:"shipping_address" validate:"required,max=500"`
	ShippingCity    string `json:"shipping_city" validate:"required,max=100"`
	ShippingState   string `json:"shipping_state" validate:"required,max=100"`
	ShippingZip     string `json:"shipping_zip" validate:"required,max=20"`
	ShippingCountry string `json:"shipping_country" validate:"required,max=100"`
}

// PaymentRef accepts the provider reference under either of its wire names.
type PaymentRef struct {
	PaymentReference string `json:"payment_reference" validate:"max=200"`
	PaypalOrderID    string `json:"paypal_order_id" validate:"max=200"`
}

func (r PaymentRef) Value() string {
	if v := strings.TrimSpace(r.PaymentReference); v != "" {
		return v
	}
	return strings.TrimSpace(r.PaypalOrderID)
}

type CreateInput struct {
	Items []ItemInput `json:"items" validate:"dive"`
	Shipping
	PaymentRef
}

// Event is the payload published for every order change.
type Event struct {
	OrderID     uint         `json:"order_id"`
	OrderNo     string       `json:"order_no"`
	UserID      uint         `json:"user_id"`
	Status      model.Status `json:"status"`
	TotalAmount string       `json:"total_amount"`
	Paid        bool         `json:"paid"`
	At          time.Time    `json:"at"`
}

type Service struct {
	db     *gorm.DB
	events events.Publisher
	now    func() time.Time
}

func NewService(db *gorm.DB, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{db: db, events: pub, now: time.Now}
}

// CreateOrder 创建订单: resolve every product, snapshot its price and persist the order
// with its items in one transaction. Any unknown or inactive product aborts the whole order.
// Stock is not reserved.
func (s *Service) CreateOrder(ctx context.Context, actor auth.Identity, in CreateInput) (*model.Order, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthorizedf("authentication credentials were not provided")
	}
	if len(in.Items) == 0 {
		return nil, apperr.InvalidField("items", "at least one item is required")
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	var o model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]uint, 0, len(in.Items))
		for _, it := range in.Items {
			ids = append(ids, it.ProductID)
		}
		var products []productmodel.Product
		if err := tx.Where("id IN ? AND is_active = ?", ids, true).Find(&products).Error; err != nil {
			return apperr.Wrap(err, "load products")
		}
		byID := make(map[uint]productmodel.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		total := decimal.Zero
		items := make([]model.OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			p, ok := byID[it.ProductID]
			if !ok {
				return apperr.NotFoundf("product %d not found", it.ProductID)
			}
			productID := p.ID
			items = append(items, model.OrderItem{ProductID: &productID, Quantity: it.Quantity, Price: p.Price})
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}

		o = model.Order{
			OrderNo:         uuid.NewString(),
			UserID:          actor.UserID,
			Status:          model.StatusPending,
			TotalAmount:     total,
			ShippingName:    in.ShippingName,
			ShippingEmail:   in.ShippingEmail,
			ShippingAddress: in.ShippingAddress,
			ShippingCity:    in.ShippingCity,
			ShippingState:   in.ShippingState,
			ShippingZip:     in.ShippingZip,
			ShippingCountry: in.ShippingCountry,
			PaymentMethod:   model.DefaultPaymentMethod,
			Items:           items,
		}
		if ref := in.PaymentRef.Value(); ref != "" {
			o.PaymentReference = &ref
		}
		// 级联创建: items are inserted with the order
		if err := tx.Create(&o).Error; err != nil {
			return apperr.Wrap(err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Order] %s created for user %d: %d items, total %s", o.OrderNo, o.UserID, len(o.Items), o.TotalAmount.StringFixed(2))
	s.publish(ctx, events.OrderCreated, &o)
	return s.reload(ctx, o.ID)
}

// ListOrders returns every order to staff and only their own to everyone else, newest first.
func (s *Service) ListOrders(ctx context.Context, actor auth.Identity) ([]model.Order, error) {
	q := withDetail(s.db.WithContext(ctx))
	if !actor.IsStaff() {
		q = q.Where("user_id = ?", actor.UserID)
	}
	var orders []model.Order
	if err := q.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, apperr.Wrap(err, "list orders")
	}
	return orders, nil
}

func (s *Service) GetOrder(ctx context.Context, actor auth.Identity, id uint) (*model.Order, error) {
	return s.loadFor(ctx, actor, id)
}

// ConfirmPayment marks the order paid with the provider reference. Repeated confirmations
// overwrite the reference and paid_at.
func (s *Service) ConfirmPayment(ctx context.Context, actor auth.Identity, id uint, reference string) (*model.Order, error) {
	o, err := s.loadFor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperr.InvalidField("payment_reference", "payment reference required")
	}
	if len(reference) > 200 {
		return nil, apperr.InvalidField("payment_reference", "ensure this field has no more than 200 characters")
	}
	if o.Paid {
		log.Printf("[Order] WARN %s confirmed again, reference %v -> %s", o.OrderNo, deref(o.PaymentReference), reference)
	}

	paidAt := s.now()
	err = s.db.WithContext(ctx).Model(&model.Order{ID: o.ID}).Updates(map[string]any{
		"paid":              true,
		"paid_at":           paidAt,
		"status":            model.StatusProcessing,
		"payment_reference": reference,
	}).Error
	if err != nil {
		return nil, apperr.Wrap(err, "confirm payment")
	}

	o, err = s.reload(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("[Order] %s paid, reference %s", o.OrderNo, reference)
	s.publish(ctx, events.OrderPaid, o)
	return o, nil
}

// UpdateStatus sets any known status; there is no transition graph. Staff only.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Identity, id uint, status string) (*model.Order, error) {
	if !actor.IsStaff() {
		return nil, apperr.Forbiddenf("you do not have permission to perform this action")
	}
	o, err := s.loadFor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	next := model.Status(strings.TrimSpace(status))
	if !next.Valid() {
		return nil, apperr.InvalidField("status", "invalid status")
	}

	if err := s.db.WithContext(ctx).Model(&model.Order{ID: o.ID}).Update("status", next).Error; err != nil {
		return nil, apperr.Wrap(err, "update status")
	}
	log.Printf("[Order] %s status %s -> %s by %s", o.OrderNo, o.Status, next, actor.Username)

	o, err = s.reload(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderStatusUpdated, o)
	return o, nil
}

// loadFor loads id and checks actor may see it.
func (s *Service) loadFor(ctx context.Context, actor auth.Identity, id uint) (*model.Order, error) {
	o, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != actor.UserID && !actor.IsStaff() {
		return nil, apperr.Forbiddenf("you do not have permission to access this order")
	}
	return o, nil
}

func (s *Service) reload(ctx context.Context, id uint) (*model.Order, error) {
	var o model.Order
	if err := withDetail(s.db.WithContext(ctx)).First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("order not found")
		}
		return nil, apperr.Wrap(err, "load order")
	}
	return &o, nil
}

func (s *Service) publish(ctx context.Context, topic string, o *model.Order) {
	events.Emit(ctx, s.events, topic, o.OrderNo, Event{
		OrderID:     o.ID,
		OrderNo:     o.OrderNo,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount.StringFixed(2),
		Paid:        o.Paid,
		At:          s.now(),
	})
}

// withDetail preloads what the order JSON renders.
func withDetail(db *gorm.DB) *gorm.DB {
	return db.Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Product.Category").
		Preload("Items.Product.Images")
}

func deref(s *string) string {
	if s == nil {
		return "<none>"
	}
	return *s
}
