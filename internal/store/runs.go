package store

import (
	"database/sql"
	"time"
)

// EvaluationRun audits one evaluation cycle for one city: what was fetched,
// what matched, and whether an alert fired.
type EvaluationRun struct {
	ID                  int64
	StartedAt           time.Time
	FinishedAt          sql.NullTime
	Source              string // "waqi" or "demo"
	City                string
	ObservationsFetched sql.NullInt64
	StationsMatched     sql.NullInt64
	AlertFired          bool
	Success             bool
	ErrorMessage        sql.NullString
}

// StartEvaluationRun creates a new audit row and returns it.
func (s *Store) StartEvaluationRun(source, city string) (*EvaluationRun, error) {
	run := &EvaluationRun{
		StartedAt: time.Now().UTC(),
		Source:    source,
		City:      city,
	}

	result, err := s.db.Exec(`
		INSERT INTO evaluation_runs (started_at, source, city, success)
		VALUES (?, ?, ?, FALSE)
	`, run.StartedAt, run.Source, run.City)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteEvaluationRun updates the audit row with results.
func (s *Store) CompleteEvaluationRun(run *EvaluationRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE evaluation_runs SET
			finished_at = ?,
			observations_fetched = ?,
			stations_matched = ?,
			alert_fired = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.ObservationsFetched, run.StationsMatched,
		run.AlertFired, run.Success, run.ErrorMessage, run.ID)
	return err
}

// GetRecentRunErrors returns recent failed evaluation runs.
func (s *Store) GetRecentRunErrors(limit int) ([]EvaluationRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, source, city, observations_fetched, stations_matched, alert_fired, success, error_message
		FROM evaluation_runs
		WHERE success = FALSE
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []EvaluationRun
	for rows.Next() {
		var r EvaluationRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Source, &r.City,
			&r.ObservationsFetched, &r.StationsMatched, &r.AlertFired, &r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
