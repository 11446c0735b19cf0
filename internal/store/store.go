// Package store persists station catalogs, hourly reading snapshots, alert
// decisions, and evaluation-run audit records in SQLite.
package store

import (
	"database/sql"

	"github.com/lmackenzie/smokewatch/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// UpsertStation inserts or refreshes one catalog row. Identity is the station
// id scoped by target city: the same sensor may carry different fits for
// different cities.
func (s *Store) UpsertStation(st models.Station) error {
	_, err := s.db.Exec(`
		INSERT INTO stations (target_city, station_id, city_name, distance_km, direction, tier, correlation_r, slope, intercept, lat, lon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(target_city, station_id) DO UPDATE SET
			city_name = excluded.city_name,
			distance_km = excluded.distance_km,
			direction = excluded.direction,
			tier = excluded.tier,
			correlation_r = excluded.correlation_r,
			slope = excluded.slope,
			intercept = excluded.intercept,
			lat = excluded.lat,
			lon = excluded.lon
	`, st.TargetCity, st.ID, st.CityName, st.DistanceKm, st.Direction, st.Tier,
		st.CorrelationR, st.Slope, st.Intercept, st.Lat, st.Lon)
	return err
}

// GetStations returns the catalog for one target city ordered by tier then
// distance descending, matching the reference dataset's presentation order.
func (s *Store) GetStations(targetCity string) ([]models.Station, error) {
	rows, err := s.db.Query(`
		SELECT target_city, station_id, city_name, distance_km, direction, tier, correlation_r, slope, intercept, lat, lon
		FROM stations
		WHERE target_city = ?
		ORDER BY tier ASC, distance_km DESC
	`, targetCity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.TargetCity, &st.ID, &st.CityName, &st.DistanceKm, &st.Direction,
			&st.Tier, &st.CorrelationR, &st.Slope, &st.Intercept, &st.Lat, &st.Lon); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// CountStations returns the total number of catalog rows across all cities.
func (s *Store) CountStations() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM stations`).Scan(&n)
	return n, err
}
