package database

import (
	"log"

	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/billing"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/events"
	"github.com/DiegoLonghys/next-stripe-demo/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(dsn string) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	DB = db

	if err := Migrate(DB); err != nil {
		log.Fatal("AutoMigrate error:", err)
	}
}

// Migrate runs the schema migration for all domain models. Split out from
// InitDB so tests can run it against their own database handle.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&users.VerificationToken{},
		&billing.Subscription{},
		&billing.Invoice{},
		&events.Event{},
	)
}
