package store

import (
	"database/sql"
	"time"

	"github.com/lmackenzie/smokewatch/internal/models"
)

// UpsertReading stores one station's reading for an hour. Re-polling the same
// hour overwrites, so the snapshot always reflects the latest fetch.
func (s *Store) UpsertReading(r models.ReadingSnapshot) error {
	_, err := s.db.Exec(`
		INSERT INTO readings (station_id, observed_at, pm25, source)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(station_id, observed_at) DO UPDATE SET
			pm25 = excluded.pm25,
			source = excluded.source
	`, r.StationID, r.ObservedAt.UTC(), r.PM25, r.Source)
	return err
}

// GetReadingsAt returns the stored snapshot for one hour as a station-id map,
// the shape the evaluation engine consumes.
func (s *Store) GetReadingsAt(hour time.Time) (map[string]float64, error) {
	rows, err := s.db.Query(`
		SELECT station_id, pm25 FROM readings WHERE observed_at = ?
	`, hour.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := make(map[string]float64)
	for rows.Next() {
		var id string
		var pm float64
		if err := rows.Scan(&id, &pm); err != nil {
			return nil, err
		}
		readings[id] = pm
	}
	return readings, rows.Err()
}

// GetLatestReadingHour returns the most recent snapshot hour, or false when
// no readings have been stored yet.
func (s *Store) GetLatestReadingHour() (time.Time, bool, error) {
	var latest sql.NullTime
	if err := s.db.QueryRow(`SELECT MAX(observed_at) FROM readings`).Scan(&latest); err != nil {
		return time.Time{}, false, err
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return latest.Time.UTC(), true, nil
}

// PruneReadings deletes snapshots older than the retention window.
func (s *Store) PruneReadings(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM readings WHERE observed_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
