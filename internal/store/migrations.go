package store

import (
	"fmt"
	"log"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS stations (
    target_city TEXT NOT NULL,
    station_id TEXT NOT NULL,
    city_name TEXT,
    distance_km REAL NOT NULL DEFAULT 0,
    direction TEXT,
    tier INTEGER NOT NULL DEFAULT 1,
    correlation_r REAL NOT NULL DEFAULT 0,
    slope REAL NOT NULL DEFAULT 0,
    intercept REAL NOT NULL DEFAULT 0,
    lat REAL,
    lon REAL,
    PRIMARY KEY (target_city, station_id)
);

CREATE TABLE IF NOT EXISTS readings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    station_id TEXT NOT NULL,
    observed_at DATETIME NOT NULL,
    pm25 REAL NOT NULL,
    source TEXT NOT NULL DEFAULT 'waqi',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(station_id, observed_at)
);

CREATE INDEX IF NOT EXISTS idx_readings_observed_at ON readings(observed_at);

CREATE TABLE IF NOT EXISTS city_alerts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    city TEXT NOT NULL,
    evaluated_at DATETIME NOT NULL,
    fired BOOLEAN NOT NULL DEFAULT FALSE,
    rule TEXT,
    trigger_stations TEXT,
    weighted_pm25 REAL,
    max_pm25 REAL,
    level_name TEXT,
    level_hex TEXT,
    health TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(city, evaluated_at)
);

CREATE TABLE IF NOT EXISTS evaluation_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    source TEXT NOT NULL,
    city TEXT NOT NULL,
    observations_fetched INTEGER,
    stations_matched INTEGER,
    alert_fired BOOLEAN NOT NULL DEFAULT FALSE,
    success BOOLEAN NOT NULL DEFAULT FALSE,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_evaluation_runs_started ON evaluation_runs(started_at);
`,
	},
}

// Migrate applies any unapplied migrations in order.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if _, err := s.db.Exec(m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := s.db.Exec(`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`, m.Version, m.Description); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		log.Printf("store: applied migration %d: %s", m.Version, m.Description)
	}
	return nil
}
