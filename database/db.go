package database

import (
	"fmt"

	"facility-booking/config"
	"facility-booking/logger"
	"facility-booking/models/audit"
	"facility-booking/models/billing"
	"facility-booking/models/booking"
	"facility-booking/models/facility"
	"facility-booking/models/log"
	"facility-booking/models/notification"
	"facility-booking/models/permit"
	"facility-booking/models/user"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB opens PostgreSQL, migrates every model and creates the supporting indexes.
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := autoMigrate(db); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	if err := createForeignKeyConstraints(db); err != nil {
		logger.Error("Failed to create foreign key constraints", err)
		return nil, err
	}
	logger.Success("All foreign key constraints created successfully")

	if err := createIndexes(db); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("All indexes created successfully")

	return db, nil
}

// autoMigrate runs auto migration for all models
func autoMigrate(db *gorm.DB) error {
	// Stage 1: models without dependencies
	stage1Models := []interface{}{
		&user.User{},
		&facility.Facility{},
		&permit.Counter{},
	}
	// Stage 2: models referencing stage 1
	stage2Models := []interface{}{
		&booking.Booking{},
	}
	// Stage 3: models owned by or referencing a booking
	stage3Models := []interface{}{
		&permit.Permit{},
		&billing.Record{},
		&audit.Entry{},
		&notification.Notification{},
		&log.Log{},
	}

	for _, stage := range [][]interface{}{stage1Models, stage2Models, stage3Models} {
		for _, model := range stage {
			if err := db.AutoMigrate(model); err != nil {
				return fmt.Errorf("failed to migrate %T: %w", model, err)
			}
		}
	}
	return nil
}

// createForeignKeyConstraints adds constraints gorm cannot express without association fields.
func createForeignKeyConstraints(db *gorm.DB) error {
	constraints := []struct {
		name, table, ddl string
	}{
		{"fk_bookings_facility", "bookings", "ALTER TABLE bookings ADD CONSTRAINT fk_bookings_facility FOREIGN KEY (facility_id) REFERENCES facilities(id) ON DELETE CASCADE"},
		{"fk_permits_booking", "permits", "ALTER TABLE permits ADD CONSTRAINT fk_permits_booking FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE"},
		{"fk_billing_records_booking", "billing_records", "ALTER TABLE billing_records ADD CONSTRAINT fk_billing_records_booking FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE"},
	}

	for _, c := range constraints {
		var exists int64
		if err := db.Raw(
			"SELECT COUNT(*) FROM information_schema.table_constraints WHERE constraint_name = ? AND table_name = ?",
			c.name, c.table,
		).Scan(&exists).Error; err != nil {
			return fmt.Errorf("failed to inspect constraint %s: %w", c.name, err)
		}
		if exists > 0 {
			continue
		}
		if err := db.Exec(c.ddl).Error; err != nil {
			return fmt.Errorf("failed to create constraint %s: %w", c.name, err)
		}
	}
	return nil
}

// createIndexes creates additional indexes for better performance
func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// conflict checks only look at active bookings of one facility
		"CREATE INDEX IF NOT EXISTS idx_bookings_facility_active ON bookings(facility_id, start_at, end_at) WHERE status IN ('pending', 'approved')",
		"CREATE INDEX IF NOT EXISTS idx_bookings_facility_status ON bookings(facility_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_bookings_user_created ON bookings(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_audit_entries_booking_created ON audit_entries(booking_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id, created_at DESC) WHERE is_read = false",
		"CREATE INDEX IF NOT EXISTS idx_request_logs_created ON request_logs(created_at)",
	}
	for _, ddl := range indexes {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
