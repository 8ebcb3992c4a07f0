package domain

import "time"

// Service Model, a payable catalog entry
type Service struct {
	Code      string    `gorm:"column:service_code;primaryKey;size:50" json:"service_code"` // Unique service code
	Name      string    `gorm:"column:service_name;size:255;not null" json:"service_name"`  // Display name
	Icon      string    `gorm:"column:service_icon;size:500" json:"service_icon"`           // Icon URL
	Tariff    int64     `gorm:"column:service_tariff;not null" json:"service_tariff"`       // Fixed price
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName pins the services table name
func (Service) TableName() string {
	return "services"
}
