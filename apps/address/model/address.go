package model

import (
	"encoding/json"
	"sort"
	"time"
)

const DefaultCountry = "US"

// Countries 支持的国家/地区代码
var Countries = map[string]string{
	"US": "United States",
	"CA": "Canada",
	"GB": "United Kingdom",
	"AU": "Australia",
	"DE": "Germany",
	"FR": "France",
	"IT": "Italy",
	"ES": "Spain",
	"NL": "Netherlands",
	"BE": "Belgium",
	"SE": "Sweden",
	"NO": "Norway",
	"DK": "Denmark",
	"FI": "Finland",
	"IE": "Ireland",
	"CH": "Switzerland",
	"AT": "Austria",
	"PL": "Poland",
	"PT": "Portugal",
	"GR": "Greece",
	"JP": "Japan",
	"KR": "South Korea",
	"CN": "China",
	"SG": "Singapore",
	"HK": "Hong Kong",
	"NZ": "New Zealand",
	"MX": "Mexico",
	"BR": "Brazil",
	"AR": "Argentina",
	"IN": "India",
}

// CountryCodes returns the supported codes sorted alphabetically.
func CountryCodes() []string {
	codes := make([]string, 0, len(Countries))
	for code := range Countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Address 收货地址. At most one address per user has IsDefault set.
type Address struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"-"`
	Label        string    `gorm:"type:varchar(50);not null" json:"label"`
	FullName     string    `gorm:"type:varchar(100);not null" json:"full_name"`
	AddressLine1 string    `gorm:"type:varchar(255);not null" json:"address_line1"`
	AddressLine2 string    `gorm:"type:varchar(255)" json:"address_line2"`
	City         string    `gorm:"type:varchar(100);not null" json:"city"`
	State        string    `gorm:"type:varchar(100);not null" json:"state"`
	ZipCode      string    `gorm:"type:varchar(20);not null" json:"zip_code"`
	Country      string    `gorm:"type:varchar(2);not null" json:"country"`
	Phone        string    `gorm:"type:varchar(20)" json:"phone"`
	IsDefault    bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Address) TableName() string {
	return "addresses"
}

func (a Address) CountryDisplay() string {
	if name, ok := Countries[a.Country]; ok {
		return name
	}
	return a.Country
}

func (a Address) MarshalJSON() ([]byte, error) {
	type alias Address
	return json.Marshal(struct {
		alias
		CountryDisplay string `json:"country_display"`
	}{alias(a), a.CountryDisplay()})
}
