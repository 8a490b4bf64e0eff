// Package product is the catalog: categories, products and their images.
package product

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"strings"

	ordermodel "go-storefront/apps/order/model"
	"go-storefront/apps/product/model"
	"go-storefront/pkg/apperr"
	"go-storefront/pkg/search"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	index  search.Index // nil: search falls back to SQL LIKE
	images *ImageStore
}

func NewService(db *gorm.DB, index search.Index, images *ImageStore) *Service {
	return &Service{db: db, index: index, images: images}
}

// ---------- categories ----------

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"max=100"`
	Description string `json:"description"`
}

// CategoryPatch carries a partial update; nil fields are left alone.
type CategoryPatch struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

func (in CategoryInput) Patch() CategoryPatch {
	return CategoryPatch{Name: &in.Name, Slug: &in.Slug, Description: &in.Description}
}

func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := s.db.WithContext(ctx).Order("name").Order("id").Find(&categories).Error; err != nil {
		return nil, apperr.Wrap(err, "list categories")
	}
	return categories, nil
}

func (s *Service) GetCategory(ctx context.Context, slug string) (*model.Category, error) {
	return findCategory(s.db.WithContext(ctx), slug)
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*model.Category, error) {
	slug, err := resolveSlug(in.Slug, in.Name, 100)
	if err != nil {
		return nil, err
	}
	c := model.Category{Name: strings.TrimSpace(in.Name), Slug: slug, Description: in.Description}

	db := s.db.WithContext(ctx)
	if err := ensureSlugFree(db, &model.Category{}, "category", slug, 0); err != nil {
		return nil, err
	}
	if err := db.Create(&c).Error; err != nil {
		return nil, apperr.Wrap(err, "create category")
	}
	log.Printf("[Product] category %s created", c.Slug)
	return &c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, slug string, p CategoryPatch) (*model.Category, error) {
	db := s.db.WithContext(ctx)
	c, err := findCategory(db, slug)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, apperr.InvalidField("name", "this field may not be blank")
		}
		c.Name = name
	}
	if p.Slug != nil {
		next, err := resolveSlug(*p.Slug, c.Name, 100)
		if err != nil {
			return nil, err
		}
		if err := ensureSlugFree(db, &model.Category{}, "category", next, c.ID); err != nil {
			return nil, err
		}
		c.Slug = next
	}
	if p.Description != nil {
		c.Description = *p.Description
	}

	if err := db.Save(c).Error; err != nil {
		return nil, apperr.Wrap(err, "update category")
	}
	return c, nil
}

// DeleteCategory removes the category and detaches its products in one transaction.
func (s *Service) DeleteCategory(ctx context.Context, slug string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := findCategory(tx, slug)
		if err != nil {
			return err
		}
		if err := tx.Model(&model.Product{}).Where("category_id = ?", c.ID).Update("category_id", nil).Error; err != nil {
			return apperr.Wrap(err, "detach products")
		}
		if err := tx.Delete(c).Error; err != nil {
			return apperr.Wrap(err, "delete category")
		}
		log.Printf("[Product] category %s deleted", slug)
		return nil
	})
}

// ---------- products ----------

type ProductInput struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Slug        string           `json:"slug" validate:"max=200"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Category    *uint            `json:"category"`
	Stock       int              `json:"stock"`
	Image       string           `json:"image" validate:"max=255"`
	IsActive    *bool            `json:"is_active"`
}

// OptionalID distinguishes an absent JSON field from an explicit null.
type OptionalID struct {
	Set bool
	ID  *uint
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.ID = nil
		return nil
	}
	var id uint
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	o.ID = &id
	return nil
}

type ProductPatch struct {
	Name        *string          `json:"name"`
	Slug        *string          `json:"slug"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    OptionalID       `json:"category"`
	Stock       *int             `json:"stock"`
	Image       *string          `json:"image"`
	IsActive    *bool            `json:"is_active"`
}

// Patch turns a full update into a patch touching every field.
func (in ProductInput) Patch() ProductPatch {
	p := ProductPatch{
		Name:        &in.Name,
		Slug:        &in.Slug,
		Description: &in.Description,
		Price:       in.Price,
		Category:    OptionalID{Set: true, ID: in.Category},
		Stock:       &in.Stock,
		Image:       &in.Image,
		IsActive:    in.IsActive,
	}
	if p.IsActive == nil {
		active := true
		p.IsActive = &active
	}
	return p
}

// ProductFilter narrows ListProducts. Zero values mean no filtering.
type ProductFilter struct {
	CategoryID   *uint
	IsActive     *bool
	CategorySlug string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Search       string
	Ordering     string
}

const defaultOrdering = "-created_at"

var orderingColumns = map[string]string{
	"price":      "price",
	"created_at": "created_at",
	"name":       "name",
}

// ListProducts applies f. Non-staff callers only ever see active products.
func (s *Service) ListProducts(ctx context.Context, f ProductFilter, staff bool) ([]model.Product, error) {
	q := s.db.WithContext(ctx).Model(&model.Product{})
	if !staff {
		q = q.Where("is_active = ?", true)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.CategorySlug != "" {
		q = q.Where("category_id IN (?)", s.db.WithContext(ctx).Model(&model.Category{}).Select("id").Where("slug = ?", f.CategorySlug))
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Search != "" {
		q = s.applySearch(ctx, q, f.Search)
	}
	for _, clause := range orderClauses(f.Ordering) {
		q = q.Order(clause)
	}

	var products []model.Product
	err := q.Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Find(&products).Error
	if err != nil {
		return nil, apperr.Wrap(err, "list products")
	}
	return products, nil
}

// applySearch matches every whitespace separated term against name or description. The
// search index, when configured, answers instead and SQL is the fallback on index errors.
func (s *Service) applySearch(ctx context.Context, q *gorm.DB, text string) *gorm.DB {
	if s.index != nil {
		ids, err := s.index.Search(ctx, text)
		if err == nil {
			return q.Where("id IN ?", ids)
		}
		log.Printf("[Product] search index unavailable, falling back to SQL: %v", err)
	}
	for _, term := range strings.Fields(strings.ToLower(text)) {
		like := "%" + term + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	return q
}

// orderClauses turns "price,-name" into SQL order clauses. Unknown fields are dropped; an
// empty result falls back to newest first. id breaks ties.
func orderClauses(ordering string) []string {
	var clauses []string
	desc := false
	for _, field := range strings.Split(ordering, ",") {
		field = strings.TrimSpace(field)
		d := strings.HasPrefix(field, "-")
		col, ok := orderingColumns[strings.TrimPrefix(field, "-")]
		if !ok {
			continue
		}
		if len(clauses) == 0 {
			desc = d
		}
		if d {
			col += " DESC"
		}
		clauses = append(clauses, col)
	}
	if len(clauses) == 0 {
		return orderClauses(defaultOrdering)
	}
	if desc {
		return append(clauses, "id DESC")
	}
	return append(clauses, "id")
}

// GetProduct looks a product up by slug. Inactive products do not exist for non-staff.
func (s *Service) GetProduct(ctx context.Context, slug string, staff bool) (*model.Product, error) {
	q := s.db.WithContext(ctx).Preload("Category").Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
	if !staff {
		q = q.Where("is_active = ?", true)
	}
	var p model.Product
	if err := q.Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, notFound(err, "product")
	}
	return &p, nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	if err := checkPrice(*in.Price); err != nil {
		return nil, err
	}
	slug, err := resolveSlug(in.Slug, in.Name, 200)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := checkCategory(db, in.Category); err != nil {
		return nil, err
	}
	if err := ensureSlugFree(db, &model.Product{}, "product", slug, 0); err != nil {
		return nil, err
	}

	p := model.Product{
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Description: in.Description,
		Price:       *in.Price,
		CategoryID:  in.Category,
		Stock:       in.Stock,
		IsActive:    in.IsActive == nil || *in.IsActive,
		Image:       in.Image,
	}
	if err := db.Create(&p).Error; err != nil {
		return nil, apperr.Wrap(err, "create product")
	}
	log.Printf("[Product] product %s created (price=%s stock=%d)", p.Slug, p.Price.StringFixed(2), p.Stock)

	s.reindex(ctx, &p)
	return s.GetProduct(ctx, p.Slug, true)
}

func (s *Service) UpdateProduct(ctx context.Context, slug string, patch ProductPatch) (*model.Product, error) {
	db := s.db.WithContext(ctx)
	var p model.Product
	if err := db.Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, notFound(err, "product")
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.InvalidField("name", "this field may not be blank")
		}
		p.Name = name
	}
	if patch.Slug != nil {
		next, err := resolveSlug(*patch.Slug, p.Name, 200)
		if err != nil {
			return nil, err
		}
		if err := ensureSlugFree(db, &model.Product{}, "product", next, p.ID); err != nil {
			return nil, err
		}
		p.Slug = next
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		if err := checkPrice(*patch.Price); err != nil {
			return nil, err
		}
		p.Price = *patch.Price
	}
	if patch.Category.Set {
		if err := checkCategory(db, patch.Category.ID); err != nil {
			return nil, err
		}
		p.CategoryID = patch.Category.ID
		p.Category = nil
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}

	if err := db.Omit("Category", "Images").Save(&p).Error; err != nil {
		return nil, apperr.Wrap(err, "update product")
	}

	s.reindex(ctx, &p)
	return s.GetProduct(ctx, p.Slug, true)
}

// DeleteProduct removes the product with its images. Order lines keep their price snapshot
// and lose the product reference.
func (s *Service) DeleteProduct(ctx context.Context, slug string) error {
	var (
		p      model.Product
		images []model.ProductImage
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("slug = ?", slug).First(&p).Error; err != nil {
			return notFound(err, "product")
		}
		if err := tx.Where("product_id = ?", p.ID).Find(&images).Error; err != nil {
			return apperr.Wrap(err, "load images")
		}
		if err := tx.Where("product_id = ?", p.ID).Delete(&model.ProductImage{}).Error; err != nil {
			return apperr.Wrap(err, "delete images")
		}
		if err := tx.Model(&ordermodel.OrderItem{}).Where("product_id = ?", p.ID).Update("product_id", nil).Error; err != nil {
			return apperr.Wrap(err, "detach order items")
		}
		if err := tx.Delete(&p).Error; err != nil {
			return apperr.Wrap(err, "delete product")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.images != nil {
		for _, img := range images {
			s.images.Remove(img.Image)
		}
	}
	if s.index != nil {
		if err := s.index.Delete(ctx, p.ID); err != nil {
			log.Printf("[Product] unindex %s failed: %v", slug, err)
		}
	}
	log.Printf("[Product] product %s deleted", slug)
	return nil
}

// AddImage stores an uploaded file and attaches it to the product.
func (s *Service) AddImage(ctx context.Context, slug string, fh *multipart.FileHeader, altText string) (*model.ProductImage, error) {
	if fh == nil {
		return nil, apperr.Invalid("No image provided")
	}
	if !supportedImage(fh.Filename) {
		return nil, apperr.InvalidField("image", "upload a valid image: jpg, jpeg, png, gif or webp")
	}
	if len(altText) > 200 {
		return nil, apperr.InvalidField("alt_text", "ensure this field has no more than 200 characters")
	}

	db := s.db.WithContext(ctx)
	var p model.Product
	if err := db.Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, notFound(err, "product")
	}

	url, err := s.images.Save(fh)
	if err != nil {
		return nil, apperr.Wrap(err, "store image")
	}
	img := model.ProductImage{ProductID: p.ID, Image: url, AltText: altText}
	if err := db.Create(&img).Error; err != nil {
		s.images.Remove(url)
		return nil, apperr.Wrap(err, "save image")
	}
	log.Printf("[Product] image %s attached to %s", url, slug)
	return &img, nil
}

// ReindexAll pushes every product to the search index and returns how many were sent.
func (s *Service) ReindexAll(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	var products []model.Product
	if err := s.db.WithContext(ctx).Find(&products).Error; err != nil {
		return 0, apperr.Wrap(err, "load products")
	}
	for i := range products {
		if err := s.index.Put(ctx, toDoc(&products[i])); err != nil {
			return i, err
		}
	}
	return len(products), nil
}

func (s *Service) reindex(ctx context.Context, p *model.Product) {
	if s.index == nil {
		return
	}
	if err := s.index.Put(ctx, toDoc(p)); err != nil {
		log.Printf("[Product] index %s failed: %v", p.Slug, err)
	}
}

func toDoc(p *model.Product) search.ProductDoc {
	return search.ProductDoc{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		IsActive:    p.IsActive,
	}
}

// ---------- helpers ----------

var maxPrice = decimal.New(1, 8)

// checkPrice enforces decimal(10,2).
func checkPrice(d decimal.Decimal) error {
	switch {
	case d.IsNegative():
		return apperr.InvalidField("price", "ensure this value is greater than or equal to 0")
	case !d.Equal(d.Round(2)):
		return apperr.InvalidField("price", "ensure that there are no more than 2 decimal places")
	case d.GreaterThanOrEqual(maxPrice):
		return apperr.InvalidField("price", "ensure that there are no more than 10 digits in total")
	}
	return nil
}

func checkCategory(db *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var n int64
	if err := db.Model(&model.Category{}).Where("id = ?", *id).Count(&n).Error; err != nil {
		return apperr.Wrap(err, "check category")
	}
	if n == 0 {
		return apperr.InvalidField("category", "invalid category id - object does not exist")
	}
	return nil
}

// resolveSlug validates slug, or derives one from name when slug is blank.
func resolveSlug(slug, name string, max int) (string, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = Slugify(name)
		if slug == "" {
			return "", apperr.InvalidField("slug", "could not derive a slug from name")
		}
	}
	if len(slug) > max {
		slug = strings.TrimRight(slug[:max], "-")
	}
	if !validSlug(slug) {
		return "", apperr.InvalidField("slug", "enter a valid slug consisting of letters, numbers, underscores or hyphens")
	}
	return slug, nil
}

func ensureSlugFree(db *gorm.DB, m any, kind, slug string, exceptID uint) error {
	var n int64
	q := db.Model(m).Where("slug = ?", slug)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return apperr.Wrap(err, "check slug")
	}
	if n > 0 {
		return &apperr.Error{
			Kind:   apperr.Conflict,
			Msg:    kind + " with this slug already exists",
			Fields: map[string]string{"slug": kind + " with this slug already exists"},
		}
	}
	return nil
}

func findCategory(db *gorm.DB, slug string) (*model.Category, error) {
	var c model.Category
	if err := db.Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, notFound(err, "category")
	}
	return &c, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf("%s not found", what)
	}
	return apperr.Wrap(err, "load "+what)
}
