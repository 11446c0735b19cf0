package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lmackenzie/smokewatch/internal/models"
)

// StoredDecision is a CityAlertDecision with its evaluation timestamp.
type StoredDecision struct {
	models.CityAlertDecision
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// UpsertDecision records one city's decision for an evaluation hour.
// Re-evaluating the same hour overwrites the earlier row.
func (s *Store) UpsertDecision(d models.CityAlertDecision, evaluatedAt time.Time) error {
	triggers, err := json.Marshal(d.TriggerStations)
	if err != nil {
		return err
	}

	var rule sql.NullString
	if d.TriggeringRule != "" {
		rule = sql.NullString{String: d.TriggeringRule, Valid: true}
	}

	_, err = s.db.Exec(`
		INSERT INTO city_alerts (city, evaluated_at, fired, rule, trigger_stations, weighted_pm25, max_pm25, level_name, level_hex, health)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(city, evaluated_at) DO UPDATE SET
			fired = excluded.fired,
			rule = excluded.rule,
			trigger_stations = excluded.trigger_stations,
			weighted_pm25 = excluded.weighted_pm25,
			max_pm25 = excluded.max_pm25,
			level_name = excluded.level_name,
			level_hex = excluded.level_hex,
			health = excluded.health
	`, d.City, evaluatedAt.UTC(), d.AlertFired, rule, string(triggers),
		d.WeightedPM25, d.MaxPM25, d.LevelName, d.LevelHex, d.Health)
	return err
}

// GetRecentDecisions returns a city's decisions within the window, newest
// first.
func (s *Store) GetRecentDecisions(city string, maxAge time.Duration) ([]StoredDecision, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	rows, err := s.db.Query(`
		SELECT city, evaluated_at, fired, rule, trigger_stations, weighted_pm25, max_pm25, level_name, level_hex, health
		FROM city_alerts
		WHERE city = ? AND evaluated_at > ?
		ORDER BY evaluated_at DESC
	`, city, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []StoredDecision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// GetLatestDecisions returns the most recent decision per city.
func (s *Store) GetLatestDecisions() (map[string]StoredDecision, error) {
	rows, err := s.db.Query(`
		SELECT city, evaluated_at, fired, rule, trigger_stations, weighted_pm25, max_pm25, level_name, level_hex, health
		FROM city_alerts a
		WHERE evaluated_at = (SELECT MAX(evaluated_at) FROM city_alerts b WHERE b.city = a.city)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	decisions := make(map[string]StoredDecision)
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions[d.City] = d
	}
	return decisions, rows.Err()
}

func scanDecision(rows *sql.Rows) (StoredDecision, error) {
	var d StoredDecision
	var rule sql.NullString
	var triggers string
	if err := rows.Scan(&d.City, &d.EvaluatedAt, &d.AlertFired, &rule, &triggers,
		&d.WeightedPM25, &d.MaxPM25, &d.LevelName, &d.LevelHex, &d.Health); err != nil {
		return StoredDecision{}, err
	}
	d.TriggeringRule = rule.String
	if err := json.Unmarshal([]byte(triggers), &d.TriggerStations); err != nil {
		d.TriggerStations = []string{}
	}
	return d, nil
}
