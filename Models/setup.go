package Models

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the database and migrates the schema. A MySQL DSN is built
// from the environment when DB_HOST is set; otherwise a local sqlite file is
// used (development and tests).
func Connect() {
	var connection *gorm.DB
	var err error

	if host := os.Getenv("DB_HOST"); host != "" {
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
			os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
			host, os.Getenv("DB_PORT"), os.Getenv("DB_NAME"))
		connection, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	} else {
		connection, err = gorm.Open(sqlite.Open("database.db"), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	DB = connection

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}

// Migrate runs AutoMigrate in dependency order.
func Migrate(db *gorm.DB) error {
	// 1. Base tables with no foreign keys
	if err := db.AutoMigrate(
		&User{},
		&FCMToken{},
		&Customer{},
		&Driver{},
		&Vehicle{},
		&Warehouse{},
		&NumberSequence{},
		&RequestLog{},
	); err != nil {
		return err
	}

	// 2. Documents referencing the base tables
	if err := db.AutoMigrate(
		&Load{},
		&Invoice{},
		&FuelCard{},
		&FuelTransaction{},
		&StockSnapshot{},
	); err != nil {
		return err
	}

	// 3. Child rows
	return db.AutoMigrate(
		&TripSheet{},
		&TripSheetStop{},
		&StockItem{},
	)
}
