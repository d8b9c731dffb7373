package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
		id BIGSERIAL PRIMARY KEY,
		vehicle_number TEXT NOT NULL,
		entry_time TIMESTAMPTZ NOT NULL,
		exit_time TIMESTAMPTZ NULL,
		stages JSONB NOT NULL DEFAULT '[]'::jsonb
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_vehicles_vehicle_number ON vehicles (vehicle_number);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_entry_time ON vehicles (entry_time);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_exit_time ON vehicles (exit_time);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_active ON vehicles (entry_time) WHERE exit_time IS NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_stages ON vehicles USING GIN (stages jsonb_path_ops);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
