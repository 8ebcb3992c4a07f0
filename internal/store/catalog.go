package store

import (
	"context"
	"errors"

	"ppob_wallet/internal/domain"

	"gorm.io/gorm"
)

// ServiceCatalog reads the services table
type ServiceCatalog struct {
	db *gorm.DB
}

// FindByCode returns the service with code, ErrServiceNotFound otherwise
func (c *ServiceCatalog) FindByCode(ctx context.Context, code string) (*domain.Service, error) {
	var svc domain.Service
	err := c.db.WithContext(ctx).Where("service_code = ?", code).Take(&svc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrServiceNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &svc, nil
}
