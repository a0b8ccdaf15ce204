package migrations

import (
	"database/sql"
	"time"
)

// AutoMigrateOrderLog creates the order_log table if it does not exist.
func AutoMigrateOrderLog(retries int, dbs ...*sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS order_log (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_id VARCHAR(36) NOT NULL UNIQUE,
			fecha DATETIME NOT NULL,
			nombre VARCHAR(255) NOT NULL,
			cedula VARCHAR(32) NOT NULL,
			telefono VARCHAR(64) NOT NULL,
			correo VARCHAR(255) NOT NULL,
			comentario TEXT NOT NULL,
			total DECIMAL(12,2) NOT NULL,
			INDEX idx_order_log_cedula (cedula)
		);
	`
	return migrate(query, retries, dbs...)
}

// AutoMigrateProducts creates the products table if it does not exist.
func AutoMigrateProducts(retries int, dbs ...*sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS products (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			category VARCHAR(255) NOT NULL DEFAULT '',
			description TEXT NOT NULL,
			image VARCHAR(1024) NOT NULL DEFAULT '',
			price_base DECIMAL(12,2) NOT NULL,
			price_x3 DECIMAL(12,2) NULL,
			price_x6 DECIMAL(12,2) NULL,
			price_x12 DECIMAL(12,2) NULL
		);
	`
	return migrate(query, retries, dbs...)
}

func migrate(query string, retries int, dbs ...*sql.DB) error {
	for _, db := range dbs {
		_, err := db.Exec(query)
		// Retry creating the table
		for i := 0; err != nil && i < retries; i++ {
			time.Sleep(1 * time.Second)
			_, err = db.Exec(query)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
