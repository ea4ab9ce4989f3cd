package database

import (
	"referly/internal/models"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

var initialise = &gormigrate.Migration{
	ID: "202501010900-initialise",
	Migrate: func(db *gorm.DB) error {
		return db.AutoMigrate(&models.Company{}, &models.Campaign{}, &models.Customer{}, &models.Referral{})
	},
	Rollback: func(db *gorm.DB) error {
		return db.Migrator().DropTable(&models.Referral{}, &models.Customer{}, &models.Campaign{}, "company_new_customers", &models.Company{})
	},
}

// Migrate runs every pending schema migration.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		initialise,
	})
	return m.Migrate()
}
