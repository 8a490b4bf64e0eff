// Package admin serves the staff dashboard.
package admin

import (
	"context"

	ordermodel "go-storefront/apps/order/model"
	productmodel "go-storefront/apps/product/model"
	usermodel "go-storefront/apps/user/model"
	"go-storefront/pkg/apperr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Stats struct {
	TotalSales    string `json:"total_sales"`
	OrderCount    int64  `json:"order_count"`
	PendingOrders int64  `json:"pending_orders"`
	UserCount     int64  `json:"user_count"`
	ProductCount  int64  `json:"product_count"`
}

type UserPage struct {
	Users []usermodel.User `json:"users"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Stats 统计面板: sales only count paid orders.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	var st Stats

	var sales decimal.NullDecimal
	if err := db.Model(&ordermodel.Order{}).Where("paid = ?", true).Select("SUM(total_amount)").Row().Scan(&sales); err != nil {
		return nil, apperr.Wrap(err, "sum sales")
	}
	st.TotalSales = sales.Decimal.Round(2).StringFixed(2)

	counts := []struct {
		q   *gorm.DB
		dst *int64
	}{
		{db.Model(&ordermodel.Order{}), &st.OrderCount},
		{db.Model(&ordermodel.Order{}).Where("status = ?", ordermodel.StatusPending), &st.PendingOrders},
		{db.Model(&usermodel.User{}), &st.UserCount},
		{db.Model(&productmodel.Product{}), &st.ProductCount},
	}
	for _, c := range counts {
		if err := c.q.Count(c.dst).Error; err != nil {
			return nil, apperr.Wrap(err, "count")
		}
	}
	return &st, nil
}

// ListUsers pages through accounts, oldest first.
func (s *Service) ListUsers(ctx context.Context, page, size int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	res := &UserPage{Users: []usermodel.User{}, Page: page}
	db := s.db.WithContext(ctx)
	if err := db.Model(&usermodel.User{}).Count(&res.Total).Error; err != nil {
		return nil, apperr.Wrap(err, "count users")
	}
	if err := db.Order("id").Limit(size).Offset((page - 1) * size).Find(&res.Users).Error; err != nil {
		return nil, apperr.Wrap(err, "list users")
	}
	return res, nil
}
