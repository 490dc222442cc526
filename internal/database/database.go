package database

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
	logger *zap.Logger
}

func New(storagePath string, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("sqlite", storagePath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &DB{
		DB:     db,
		logger: logger,
	}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database connection established", zap.String("path", storagePath))
	return database, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		// Work records: one row per client per day. billable_hours is derived
		// and maintained by the repository, never written directly.
		`CREATE TABLE IF NOT EXISTS work_records (
			id TEXT PRIMARY KEY,
			work_date TEXT NOT NULL,
			client_name TEXT NOT NULL,
			total_hours REAL NOT NULL DEFAULT 0,
			billable_hours REAL NOT NULL DEFAULT 0,
			break_time_minutes INTEGER NOT NULL DEFAULT 0,
			adjusted_break_time_minutes INTEGER,
			travel_time_minutes INTEGER NOT NULL DEFAULT 0,
			adjusted_travel_time_minutes INTEGER,
			non_billable_time_minutes INTEGER NOT NULL DEFAULT 0,
			hours_adjustments TEXT,
			provenance TEXT NOT NULL DEFAULT 'local',
			last_external_sync_at TIMESTAMP,
			external_record_id TEXT UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_work_records_date ON work_records(work_date)`,
		`CREATE INDEX IF NOT EXISTS idx_work_records_client ON work_records(client_name)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	db.logger.Info("Database migrations completed")
	return nil
}

func (db *DB) Close() error {
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.logger.Info("Database connection closed")
	return nil
}
