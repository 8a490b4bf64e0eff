package model

import (
	"encoding/json"
	"time"

	addressmodel "go-storefront/apps/address/model"
)

const (
	RoleUser  = "user"
	RoleStaff = "staff"
)

type User struct {
	ID        uint                   `gorm:"primaryKey" json:"id"`
	Username  string                 `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email     string                 `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	Password  string                 `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash
	FirstName string                 `gorm:"type:varchar(150)" json:"first_name"`
	LastName  string                 `gorm:"type:varchar(150)" json:"last_name"`
	Role      string                 `gorm:"type:varchar(20);not null" json:"-"` // user | staff
	Profile   *UserProfile           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile"`
	Addresses []addressmodel.Address `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"addresses"`
	CreatedAt time.Time              `json:"-"`
	UpdatedAt time.Time              `json:"-"`
}

// UserProfile 用户扩展信息, one row per user.
type UserProfile struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"-"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

func (u User) IsStaff() bool {
	return u.Role == RoleStaff
}

func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	addresses := u.Addresses
	if addresses == nil {
		addresses = []addressmodel.Address{}
	}
	return json.Marshal(struct {
		alias
		IsStaff   bool                   `json:"is_staff"`
		Addresses []addressmodel.Address `json:"addresses"`
	}{alias(u), u.IsStaff(), addresses})
}
