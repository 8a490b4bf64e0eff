package product

import (
	"context"
	"errors"
	"testing"
	"time"

	ordermodel "go-storefront/apps/order/model"
	"go-storefront/apps/product/model"
	"go-storefront/apps/schema"
	usermodel "go-storefront/apps/user/model"
	"go-storefront/pkg/apperr"
	"go-storefront/pkg/dbtest"
	"go-storefront/pkg/search"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db  *gorm.DB
	svc *Service
}

func newFixture(t *testing.T, index search.Index) *fixture {
	db := dbtest.New(t, schema.Models()...)
	return &fixture{db: db, svc: NewService(db, index, NewImageStore(t.TempDir(), "/media"))}
}

func (f *fixture) category(t *testing.T, name, slug string) model.Category {
	c := model.Category{Name: name, Slug: slug}
	require.NoError(t, f.db.Create(&c).Error)
	return c
}

var clock = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func (f *fixture) product(t *testing.T, name, price string, active bool, cat *model.Category) model.Product {
	clock = clock.Add(time.Minute)
	p := model.Product{
		Name:      name,
		Slug:      Slugify(name),
		Price:     decimal.RequireFromString(price),
		Stock:     5,
		IsActive:  active,
		CreatedAt: clock,
	}
	if cat != nil {
		p.CategoryID = &cat.ID
	}
	require.NoError(t, f.db.Create(&p).Error)
	return p
}

func names(products []model.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestListProductsHidesInactiveFromNonStaff(t *testing.T) {
	f := newFixture(t, nil)
	f.product(t, "Paw Ring", "10.00", true, nil)
	f.product(t, "Retired Collar", "12.00", false, nil)

	ctx := context.Background()
	inactive := false

	got, err := f.svc.ListProducts(ctx, ProductFilter{}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Paw Ring"}, names(got))

	// asking for inactive products does not widen the anonymous view
	got, err = f.svc.ListProducts(ctx, ProductFilter{IsActive: &inactive}, false)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.svc.ListProducts(ctx, ProductFilter{IsActive: &inactive}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Retired Collar"}, names(got))

	got, err = f.svc.ListProducts(ctx, ProductFilter{}, true)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestListProductsFilters(t *testing.T) {
	f := newFixture(t, nil)
	rings := f.category(t, "Rings", "rings")
	collars := f.category(t, "Collars", "collars")
	f.product(t, "Silver Paw Ring", "10.00", true, &rings)
	f.product(t, "Gold Paw Ring", "25.50", true, &rings)
	f.product(t, "Leather Collar", "40.00", true, &collars)
	f.product(t, "Loose Charm", "5.00", true, nil)

	ctx := context.Background()
	d := func(s string) *decimal.Decimal { v := decimal.RequireFromString(s); return &v }

	t.Run("category slug", func(t *testing.T) {
		got, err := f.svc.ListProducts(ctx, ProductFilter{CategorySlug: "rings", Ordering: "name"}, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"Gold Paw Ring", "Silver Paw Ring"}, names(got))
	})

	t.Run("category slug honors cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := f.svc.ListProducts(cancelled, ProductFilter{CategorySlug: "rings"}, false)
		assert.Error(t, err)
	})

	t.Run("category id", func(t *testing.T) {
		got, err := f.svc.ListProducts(ctx, ProductFilter{CategoryID: &collars.ID}, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"Leather Collar"}, names(got))
	})

	t.Run("price range is inclusive", func(t *testing.T) {
		got, err := f.svc.ListProducts(ctx, ProductFilter{MinPrice: d("10"), MaxPrice: d("40.00"), Ordering: "price"}, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"Silver Paw Ring", "Gold Paw Ring", "Leather Collar"}, names(got))
	})

	t.Run("search matches every term", func(t *testing.T) {
		got, err := f.svc.ListProducts(ctx, ProductFilter{Search: "PAW gold"}, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"Gold Paw Ring"}, names(got))
	})

	t.Run("default ordering is newest first", func(t *testing.T) {
		got, err := f.svc.ListProducts(ctx, ProductFilter{Ordering: "bogus"}, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"Loose Charm", "Leather Collar", "Gold Paw Ring", "Silver Paw Ring"}, names(got))
	})

	t.Run("descending price", func(t *testing.T) {
		got, err := f.svc.ListProducts(ctx, ProductFilter{Ordering: "-price"}, false)
		require.NoError(t, err)
		assert.Equal(t, "Leather Collar", got[0].Name)
		assert.Equal(t, "Loose Charm", got[3].Name)
	})
}

type stubIndex struct {
	ids []uint
	err error
	put []search.ProductDoc
}

func (s *stubIndex) Put(_ context.Context, doc search.ProductDoc) error {
	s.put = append(s.put, doc)
	return nil
}
func (s *stubIndex) Delete(context.Context, uint) error { return nil }
func (s *stubIndex) Search(context.Context, string) ([]uint, error) {
	return s.ids, s.err
}

func TestListProductsUsesSearchIndex(t *testing.T) {
	idx := &stubIndex{}
	f := newFixture(t, idx)
	a := f.product(t, "Moon Pendant", "10.00", true, nil)
	f.product(t, "Star Pendant", "10.00", true, nil)

	idx.ids = []uint{a.ID}
	got, err := f.svc.ListProducts(context.Background(), ProductFilter{Search: "anything"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Moon Pendant"}, names(got))

	idx.ids = nil
	idx.err = errors.New("connection refused")
	got, err = f.svc.ListProducts(context.Background(), ProductFilter{Search: "star"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Star Pendant"}, names(got))
}

func TestGetProductInactiveIsNotFoundForNonStaff(t *testing.T) {
	f := newFixture(t, nil)
	f.product(t, "Hidden Bell", "3.00", false, nil)

	_, err := f.svc.GetProduct(context.Background(), "hidden-bell", false)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	p, err := f.svc.GetProduct(context.Background(), "hidden-bell", true)
	require.NoError(t, err)
	assert.Equal(t, "Hidden Bell", p.Name)
}

func TestCreateProduct(t *testing.T) {
	idx := &stubIndex{}
	f := newFixture(t, idx)
	cat := f.category(t, "Rings", "rings")
	ctx := context.Background()
	price := decimal.RequireFromString("19.90")

	p, err := f.svc.CreateProduct(ctx, ProductInput{Name: "Twin Paw Ring", Price: &price, Category: &cat.ID, Stock: 3})
	require.NoError(t, err)
	assert.Equal(t, "twin-paw-ring", p.Slug)
	assert.True(t, p.IsActive)
	require.NotNil(t, p.Category)
	assert.Equal(t, "Rings", p.Category.Name)
	require.Len(t, idx.put, 1)
	assert.Equal(t, p.ID, idx.put[0].ID)

	_, err = f.svc.CreateProduct(ctx, ProductInput{Name: "Twin Paw Ring", Price: &price})
	assert.True(t, apperr.Is(err, apperr.Conflict))

	missing := uint(999)
	_, err = f.svc.CreateProduct(ctx, ProductInput{Name: "Orphan", Price: &price, Category: &missing})
	assert.True(t, apperr.Is(err, apperr.Validation))

	tooPrecise := decimal.RequireFromString("1.999")
	_, err = f.svc.CreateProduct(ctx, ProductInput{Name: "Odd", Price: &tooPrecise})
	assert.True(t, apperr.Is(err, apperr.Validation))

	off := false
	draft, err := f.svc.CreateProduct(ctx, ProductInput{Name: "Draft", Slug: "draft-1", Price: &price, IsActive: &off})
	require.NoError(t, err)
	assert.False(t, draft.IsActive)
}

func TestUpdateProductPartial(t *testing.T) {
	f := newFixture(t, nil)
	cat := f.category(t, "Rings", "rings")
	f.product(t, "Paw Ring", "10.00", true, &cat)
	ctx := context.Background()

	stock := 0
	p, err := f.svc.UpdateProduct(ctx, "paw-ring", ProductPatch{Stock: &stock, Category: OptionalID{Set: true}})
	require.NoError(t, err)
	assert.Nil(t, p.CategoryID)
	assert.Equal(t, 0, p.Stock)
	assert.False(t, p.InStock())
	assert.Equal(t, "10.00", p.Price.StringFixed(2))
	assert.Equal(t, "Paw Ring", p.Name)

	_, err = f.svc.UpdateProduct(ctx, "nope", ProductPatch{Stock: &stock})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestDeleteCategoryDetachesProducts(t *testing.T) {
	f := newFixture(t, nil)
	cat := f.category(t, "Rings", "rings")
	p := f.product(t, "Paw Ring", "10.00", true, &cat)

	require.NoError(t, f.svc.DeleteCategory(context.Background(), "rings"))

	var reloaded model.Product
	require.NoError(t, f.db.First(&reloaded, p.ID).Error)
	assert.Nil(t, reloaded.CategoryID)

	err := f.svc.DeleteCategory(context.Background(), "rings")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestDeleteProductKeepsOrderHistory(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, "Paw Ring", "10.00", true, nil)
	require.NoError(t, f.db.Create(&model.ProductImage{ProductID: p.ID, Image: "/media/products/1.png"}).Error)

	u := usermodel.User{Username: "ann", Email: "ann@example.com", Password: "x", Role: usermodel.RoleUser}
	require.NoError(t, f.db.Create(&u).Error)
	o := ordermodel.Order{
		OrderNo: "o-1", UserID: u.ID, Status: ordermodel.StatusPending,
		TotalAmount: decimal.RequireFromString("20.00"), PaymentMethod: ordermodel.DefaultPaymentMethod,
		Items: []ordermodel.OrderItem{{ProductID: &p.ID, Quantity: 2, Price: p.Price}},
	}
	require.NoError(t, f.db.Create(&o).Error)

	require.NoError(t, f.svc.DeleteProduct(context.Background(), "paw-ring"))

	var images int64
	f.db.Model(&model.ProductImage{}).Count(&images)
	assert.Zero(t, images)

	var item ordermodel.OrderItem
	require.NoError(t, f.db.First(&item, o.Items[0].ID).Error)
	assert.Nil(t, item.ProductID)
	assert.Equal(t, "20.00", item.Subtotal().StringFixed(2))
}

func TestCheckPrice(t *testing.T) {
	assert.NoError(t, checkPrice(decimal.RequireFromString("0")))
	assert.NoError(t, checkPrice(decimal.RequireFromString("99999999.99")))
	assert.Error(t, checkPrice(decimal.RequireFromString("100000000")))
	assert.Error(t, checkPrice(decimal.RequireFromString("-1")))
	assert.Error(t, checkPrice(decimal.RequireFromString("0.001")))
}

func TestOrderClauses(t *testing.T) {
	assert.Equal(t, []string{"created_at DESC", "id DESC"}, orderClauses(""))
	assert.Equal(t, []string{"price", "name DESC", "id"}, orderClauses("price,-name"))
	assert.Equal(t, []string{"name DESC", "id DESC"}, orderClauses("stock,-name"))
}
