// Package address is the per-user address book.
package address

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"go-storefront/apps/address/model"
	"go-storefront/pkg/apperr"
	"go-storefront/pkg/validate"

	"gorm.io/gorm"
)

type Input struct {
	Label        string `json:"label" validate:"required,max=50"`
	FullName     string `json:"full_name" validate:"required,max=100"`
	AddressLine1 string `json:"address_line1" validate:"required,max=255"`
	AddressLine2 string `json:"address_line2" validate:"max=255"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"required,max=100"`
	ZipCode      string `json:"zip_code" validate:"required,max=20"`
	Country      string `json:"country"`
	Phone        string `json:"phone" validate:"max=20"`
	IsDefault    bool   `json:"is_default"`
}

// Patch is a partial update; nil fields keep their value.
type Patch struct {
	Label        *string `json:"label" validate:"omitempty,max=50"`
	FullName     *string `json:"full_name" validate:"omitempty,max=100"`
	AddressLine1 *string `json:"address_line1" validate:"omitempty,max=255"`
	AddressLine2 *string `json:"address_line2" validate:"omitempty,max=255"`
	City         *string `json:"city" validate:"omitempty,max=100"`
	State        *string `json:"state" validate:"omitempty,max=100"`
	ZipCode      *string `json:"zip_code" validate:"omitempty,max=20"`
	Country      *string `json:"country"`
	Phone        *string `json:"phone" validate:"omitempty,max=20"`
	IsDefault    *bool   `json:"is_default"`
}

func (in Input) Patch() Patch {
	return Patch{
		Label:        &in.Label,
		FullName:     &in.FullName,
		AddressLine1: &in.AddressLine1,
		AddressLine2: &in.AddressLine2,
		City:         &in.City,
		State:        &in.State,
		ZipCode:      &in.ZipCode,
		Country:      &in.Country,
		Phone:        &in.Phone,
		IsDefault:    &in.IsDefault,
	}
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns the user's addresses, default first and then newest first.
func (s *Service) List(ctx context.Context, userID uint) ([]model.Address, error) {
	var addrs []model.Address
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").Order("created_at DESC").Order("id DESC").
		Find(&addrs).Error
	if err != nil {
		return nil, apperr.Wrap(err, "list addresses")
	}
	return addrs, nil
}

func (s *Service) Get(ctx context.Context, userID, id uint) (*model.Address, error) {
	return load(s.db.WithContext(ctx), userID, id)
}

// Create adds an address. The user's first address becomes the default.
func (s *Service) Create(ctx context.Context, userID uint, in Input) (*model.Address, error) {
	a := model.Address{UserID: userID}
	if err := apply(&a, in.Patch()); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			a.IsDefault = true
		}
		return save(tx, &a)
	})
	if err != nil {
		return nil, apperr.Wrap(err, "create address")
	}
	log.Printf("[Address] user %d added address %d (default=%v)", userID, a.ID, a.IsDefault)
	return &a, nil
}

func (s *Service) Update(ctx context.Context, userID, id uint, p Patch) (*model.Address, error) {
	var a *model.Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if a, err = load(tx, userID, id); err != nil {
			return err
		}
		if err := apply(a, p); err != nil {
			return err
		}
		return save(tx, a)
	})
	if err != nil {
		return nil, wrap(err, "update address")
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uint) error {
	db := s.db.WithContext(ctx)
	a, err := load(db, userID, id)
	if err != nil {
		return err
	}
	if err := db.Delete(a).Error; err != nil {
		return apperr.Wrap(err, "delete address")
	}
	log.Printf("[Address] user %d deleted address %d", userID, id)
	return nil
}

// SetDefault 设置默认地址: clear every other default of the user, then mark id.
func (s *Service) SetDefault(ctx context.Context, userID, id uint) (*model.Address, error) {
	var a *model.Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if a, err = load(tx, userID, id); err != nil {
			return err
		}
		a.IsDefault = true
		return save(tx, a)
	})
	if err != nil {
		log.Printf("[Address] set default %d for user %d failed: %v", id, userID, err)
		return nil, wrap(err, "set default address")
	}
	return a, nil
}

// save persists a. When a is the default every other default of the same user is cleared
// first; callers run it inside a transaction so both writes land together.
func save(tx *gorm.DB, a *model.Address) error {
	if a.IsDefault {
		q := tx.Model(&model.Address{}).Where("user_id = ? AND is_default = ?", a.UserID, true)
		if a.ID != 0 {
			q = q.Where("id <> ?", a.ID)
		}
		if err := q.Update("is_default", false).Error; err != nil {
			return err
		}
	}
	if a.ID == 0 {
		return tx.Create(a).Error
	}
	return tx.Save(a).Error
}

// load fetches id and checks it belongs to userID.
func load(db *gorm.DB, userID, id uint) (*model.Address, error) {
	var a model.Address
	if err := db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("address not found")
		}
		return nil, apperr.Wrap(err, "load address")
	}
	if a.UserID != userID {
		return nil, apperr.Forbiddenf("you do not have permission to access this address")
	}
	return &a, nil
}

// apply merges p into a and checks the fields that tags cannot express.
func apply(a *model.Address, p Patch) error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	required := []struct {
		name string
		src  *string
		dst  *string
	}{
		{"label", p.Label, &a.Label},
		{"full_name", p.FullName, &a.FullName},
		{"address_line1", p.AddressLine1, &a.AddressLine1},
		{"city", p.City, &a.City},
		{"state", p.State, &a.State},
		{"zip_code", p.ZipCode, &a.ZipCode},
	}
	for _, f := range required {
		if f.src == nil {
			continue
		}
		if strings.TrimSpace(*f.src) == "" {
			return apperr.InvalidField(f.name, "this field may not be blank")
		}
		*f.dst = *f.src
	}
	if p.AddressLine2 != nil {
		a.AddressLine2 = *p.AddressLine2
	}
	if p.Phone != nil {
		a.Phone = *p.Phone
	}
	if p.Country != nil {
		code := strings.ToUpper(strings.TrimSpace(*p.Country))
		if code == "" {
			code = model.DefaultCountry
		}
		if _, ok := model.Countries[code]; !ok {
			return apperr.InvalidField("country", fmt.Sprintf("%q is not a valid choice", *p.Country))
		}
		a.Country = code
	}
	if a.Country == "" {
		a.Country = model.DefaultCountry
	}
	if p.IsDefault != nil {
		a.IsDefault = *p.IsDefault
	}
	return nil
}

// wrap keeps apperr errors as they are and marks the rest internal.
func wrap(err error, msg string) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Wrap(err, msg)
}
