package database

import (
	"fmt"
	"log"
	"os"

	"qrmenu-backend/internal/domain/restaurants"
	"qrmenu-backend/internal/domain/subscriptions"
	"qrmenu-backend/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatal("❌ DB_URL not set")
	}

	var db *gorm.DB
	var err error
	if dsn == "sqlite" {
		// local development fallback, postgres everywhere else
		db, err = gorm.Open(sqlite.Open("qrmenu.db"), &gorm.Config{})
	} else {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}

	DB = db

	if err := Migrate(DB); err != nil {
		log.Fatal("❌ AutoMigrate error:", err)
	}

	fmt.Println("✅ Connected and migrated successfully")
}

// Migrate runs the schema migration for every domain model. Tests call it
// against an in-memory sqlite database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&restaurants.Restaurant{},
		&subscriptions.Subscription{},
	)
}
