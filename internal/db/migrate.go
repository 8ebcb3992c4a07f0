package db

import (
	"fmt" // Error wrapping

	"ppob_wallet/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/clause"        // Conflict handling for seeds
)

const serviceIcon = "https://nutech-integrasi.app/dummy.jpg"

// DefaultServices is the payable catalog seeded on migration
var DefaultServices = []domain.Service{
	{Code: "PAJAK", Name: "Pajak PBB", Icon: serviceIcon, Tariff: 40000},
	{Code: "PLN", Name: "Listrik", Icon: serviceIcon, Tariff: 10000},
	{Code: "PDAM", Name: "PDAM Berlangganan", Icon: serviceIcon, Tariff: 40000},
	{Code: "PULSA", Name: "Pulsa", Icon: serviceIcon, Tariff: 40000},
	{Code: "PGN", Name: "PGN Berlangganan", Icon: serviceIcon, Tariff: 50000},
	{Code: "MUSIK", Name: "Musik Berlangganan", Icon: serviceIcon, Tariff: 50000},
	{Code: "TV", Name: "TV Berlangganan", Icon: serviceIcon, Tariff: 50000},
	{Code: "PAKET_DATA", Name: "Paket data", Icon: serviceIcon, Tariff: 50000},
	{Code: "VOUCHER_GAME", Name: "Voucher Game", Icon: serviceIcon, Tariff: 100000},
	{Code: "VOUCHER_MAKANAN", Name: "Voucher Makanan", Icon: serviceIcon, Tariff: 100000},
	{Code: "QURBAN", Name: "Qurban", Icon: serviceIcon, Tariff: 200000},
	{Code: "ZAKAT", Name: "Zakat", Icon: serviceIcon, Tariff: 300000},
}

// Migrate performs automatic migration for the database schema and seeds the catalog
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing constraints, columns and indexes
	if err := db.AutoMigrate(&domain.Balance{}, &domain.Transaction{}, &domain.Service{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := SeedServices(db, DefaultServices); err != nil {
		return err
	}
	logrus.WithField("services", len(DefaultServices)).Info("Migration completed.")
	return nil
}

// SeedServices inserts services, leaving existing codes untouched
func SeedServices(db *gorm.DB, services []domain.Service) error {
	if len(services) == 0 {
		return nil
	}
	rows := append([]domain.Service(nil), services...) // Create stamps timestamps on rows
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("seed services: %w", err)
	}
	return nil
}
