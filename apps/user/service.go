// Package user handles registration, the current-user view and the profile.
package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"go-storefront/apps/user/model"
	"go-storefront/pkg/apperr"
	"go-storefront/pkg/auth"
	"go-storefront/pkg/validate"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// bcrypt only hashes the first 72 bytes and rejects longer input.
const maxPasswordBytes = 72

type RegisterInput struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8"`
}

// Profile is the editable view over a user and its profile row.
type Profile struct {
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// ProfilePatch 只更新提交的字段
type ProfilePatch struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

type Service struct {
	db       *gorm.DB
	hashCost int
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, hashCost: bcrypt.DefaultCost}
}

// Register creates a regular user together with an empty profile.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	return s.create(ctx, in, model.RoleUser)
}

// CreateStaff registers a staff account, or promotes the existing user with that username.
func (s *Service) CreateStaff(ctx context.Context, in RegisterInput) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("username = ?", in.Username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.create(ctx, in, model.RoleStaff)
	}
	if err != nil {
		return nil, apperr.Wrap(err, "load user")
	}
	if !u.IsStaff() {
		if err := s.db.WithContext(ctx).Model(&u).Update("role", model.RoleStaff).Error; err != nil {
			return nil, apperr.Wrap(err, "promote user")
		}
		log.Printf("[User] %s promoted to staff", u.Username)
	}
	return &u, nil
}

func (s *Service) create(ctx context.Context, in RegisterInput, role string) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if !usernamePattern.MatchString(in.Username) {
		return nil, apperr.InvalidField("username", "enter a valid username: letters, numbers and @/./+/-/_ only")
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, apperr.InvalidField("password", fmt.Sprintf("ensure this field has no more than %d bytes", maxPasswordBytes))
	}

	db := s.db.WithContext(ctx)
	if taken, err := exists(db, "username = ?", in.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, apperr.InvalidField("username", "a user with that username already exists")
	}
	if taken, err := exists(db, "LOWER(email) = ?", strings.ToLower(in.Email)); err != nil {
		return nil, err
	} else if taken {
		return nil, apperr.InvalidField("email", "a user with that email already exists")
	}

	// 密码加密存储
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, apperr.Wrap(err, "hash password")
	}

	u := model.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashed),
		Role:     role,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		u.Profile = &model.UserProfile{UserID: u.ID}
		return tx.Create(u.Profile).Error
	})
	if err != nil {
		return nil, apperr.Wrap(err, "create user")
	}
	log.Printf("[User] registered %s (id=%d role=%s)", u.Username, u.ID, u.Role)
	return &u, nil
}

// CheckPassword reports whether password matches the stored hash of u.
func CheckPassword(u *model.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// Identity resolves a token subject to the caller identity, with the role as stored now.
func (s *Service) Identity(ctx context.Context, id uint) (auth.Identity, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Select("id", "username", "role").First(&u, id).Error; err != nil {
		return auth.Identity{}, notFound(err)
	}
	return auth.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}

// Me returns the user with profile and addresses (default first).
func (s *Service) Me(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).
		Preload("Profile").
		Preload("Addresses", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_default DESC").Order("created_at DESC").Order("id DESC")
		}).
		First(&u, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetProfile returns the profile of id, creating the row on first access.
func (s *Service) GetProfile(ctx context.Context, id uint) (*Profile, error) {
	db := s.db.WithContext(ctx)
	var u model.User
	if err := db.First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	p, err := ensureProfile(db, u.ID)
	if err != nil {
		return nil, err
	}
	return view(&u, p), nil
}

// UpdateProfile merges names into the user and phone into the profile in one transaction.
func (s *Service) UpdateProfile(ctx context.Context, id uint, patch ProfilePatch) (*Profile, error) {
	if err := checkLen("first_name", patch.FirstName, 150); err != nil {
		return nil, err
	}
	if err := checkLen("last_name", patch.LastName, 150); err != nil {
		return nil, err
	}
	if err := checkLen("phone", patch.Phone, 20); err != nil {
		return nil, err
	}

	var out *Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.First(&u, id).Error; err != nil {
			return notFound(err)
		}
		p, err := ensureProfile(tx, u.ID)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if patch.FirstName != nil {
			updates["first_name"] = *patch.FirstName
			u.FirstName = *patch.FirstName
		}
		if patch.LastName != nil {
			updates["last_name"] = *patch.LastName
			u.LastName = *patch.LastName
		}
		if len(updates) > 0 {
			if err := tx.Model(&u).Updates(updates).Error; err != nil {
				return apperr.Wrap(err, "update user")
			}
		}
		if patch.Phone != nil {
			p.Phone = *patch.Phone
			if err := tx.Model(p).Update("phone", p.Phone).Error; err != nil {
				return apperr.Wrap(err, "update profile")
			}
		}
		out = view(&u, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func ensureProfile(db *gorm.DB, userID uint) (*model.UserProfile, error) {
	p := model.UserProfile{UserID: userID}
	if err := db.Where(model.UserProfile{UserID: userID}).FirstOrCreate(&p).Error; err != nil {
		return nil, apperr.Wrap(err, "load profile")
	}
	return &p, nil
}

func view(u *model.User, p *model.UserProfile) *Profile {
	return &Profile{Phone: p.Phone, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

func exists(db *gorm.DB, cond string, arg any) (bool, error) {
	var n int64
	if err := db.Model(&model.User{}).Where(cond, arg).Count(&n).Error; err != nil {
		return false, apperr.Wrap(err, "check user")
	}
	return n > 0, nil
}

func checkLen(field string, v *string, max int) error {
	if v != nil && len(*v) > max {
		return apperr.InvalidField(field, fmt.Sprintf("ensure this field has no more than %d characters", max))
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf("user not found")
	}
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Wrap(err, "load user")
}
