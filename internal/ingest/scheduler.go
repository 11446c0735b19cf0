// Package ingest drives the hourly evaluation cycle: fetch observations per
// city, match them to catalog stations, persist the hourly snapshot, and run
// the detection engine against the current and previous-hour snapshots.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lmackenzie/smokewatch/internal/catalog"
	"github.com/lmackenzie/smokewatch/internal/detect"
	"github.com/lmackenzie/smokewatch/internal/geomatch"
	"github.com/lmackenzie/smokewatch/internal/metrics"
	"github.com/lmackenzie/smokewatch/internal/models"
	"github.com/lmackenzie/smokewatch/internal/store"
)

// ObservationSource is the live bounding-box query collaborator.
type ObservationSource interface {
	FetchBounds(ctx context.Context, b geomatch.Bounds) ([]models.Observation, error)
}

// AlertPublisher forwards fired decisions to downstream consumers.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, decisions map[string]models.CityAlertDecision, evaluatedAt time.Time) error
}

type Scheduler struct {
	store     *store.Store
	catalogs  *catalog.Cache
	source    ObservationSource // nil → demo readings
	publisher AlertPublisher    // optional
	clock     clockwork.Clock
	interval  time.Duration
	retention time.Duration
}

func NewScheduler(st *store.Store, catalogs *catalog.Cache, source ObservationSource) *Scheduler {
	return &Scheduler{
		store:     st,
		catalogs:  catalogs,
		source:    source,
		clock:     clockwork.NewRealClock(),
		interval:  time.Hour,
		retention: 7 * 24 * time.Hour,
	}
}

// SetPublisher configures an optional alert publisher.
func (s *Scheduler) SetPublisher(p AlertPublisher) {
	s.publisher = p
}

// SetClock swaps the clock, used by tests to drive cycles deterministically.
func (s *Scheduler) SetClock(c clockwork.Clock) {
	s.clock = c
}

// Run executes one cycle immediately, then once per interval until the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if _, err := s.Cycle(ctx); err != nil {
		log.Printf("scheduler: cycle: %v", err)
	}

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: shutting down")
			return
		case <-ticker.Chan():
			if _, err := s.Cycle(ctx); err != nil {
				log.Printf("scheduler: cycle: %v", err)
			}
		}
	}
}

// Cycle ingests readings for every city and evaluates the full station set.
// Collaborator failures degrade to empty observation lists for the affected
// city; the evaluation itself always runs.
func (s *Scheduler) Cycle(ctx context.Context) (detect.Result, error) {
	hour := s.clock.Now().UTC().Truncate(time.Hour)
	sourceName := "waqi"
	if s.source == nil {
		sourceName = "demo"
	}

	allStations, err := s.catalogs.AllStations()
	if err != nil {
		metrics.EvaluationsTotal.WithLabelValues(sourceName, "error").Inc()
		return detect.Result{}, fmt.Errorf("load catalogs: %w", err)
	}

	byCity := make(map[string][]models.Station)
	for _, st := range allStations {
		byCity[st.TargetCity] = append(byCity[st.TargetCity], st)
	}

	runs := make(map[string]*store.EvaluationRun)
	for _, cityKey := range catalog.CityKeys() {
		runs[cityKey] = s.ingestCity(ctx, cityKey, byCity[cityKey], hour, sourceName)
	}

	current, err := s.store.GetReadingsAt(hour)
	if err != nil {
		metrics.EvaluationsTotal.WithLabelValues(sourceName, "error").Inc()
		return detect.Result{}, fmt.Errorf("load current readings: %w", err)
	}
	previous, err := s.store.GetReadingsAt(hour.Add(-time.Hour))
	if err != nil {
		metrics.EvaluationsTotal.WithLabelValues(sourceName, "error").Inc()
		return detect.Result{}, fmt.Errorf("load previous readings: %w", err)
	}

	result := detect.Evaluate(allStations, current, previous)

	for city, dec := range result.CityAlerts {
		if err := s.store.UpsertDecision(dec, hour); err != nil {
			log.Printf("scheduler: store decision %s: %v", city, err)
		}
		if run := runs[city]; run != nil {
			run.AlertFired = dec.AlertFired
		}
		if dec.AlertFired {
			metrics.AlertsFiredTotal.WithLabelValues(city, dec.TriggeringRule).Inc()
			log.Printf("scheduler: ALERT %s via %s (%.1f µg/m³ %s, triggers %v)",
				city, dec.TriggeringRule, dec.WeightedPM25, dec.LevelName, dec.TriggerStations)
		}
	}

	for _, run := range runs {
		if run != nil {
			if err := s.store.CompleteEvaluationRun(run); err != nil {
				log.Printf("scheduler: complete run: %v", err)
			}
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishAlerts(ctx, result.CityAlerts, hour); err != nil {
			log.Printf("scheduler: publish alerts: %v", err)
		}
	}

	if pruned, err := s.store.PruneReadings(hour.Add(-s.retention)); err != nil {
		log.Printf("scheduler: prune readings: %v", err)
	} else if pruned > 0 {
		log.Printf("scheduler: pruned %d readings", pruned)
	}

	metrics.EvaluationsTotal.WithLabelValues(sourceName, "ok").Inc()
	return result, nil
}

// ingestCity fetches and stores one city's hourly readings, returning the
// audit run for later completion.
func (s *Scheduler) ingestCity(ctx context.Context, cityKey string, stations []models.Station, hour time.Time, sourceName string) *store.EvaluationRun {
	run, err := s.store.StartEvaluationRun(sourceName, cityKey)
	if err != nil {
		log.Printf("scheduler: start run %s: %v", cityKey, err)
	}

	var readings map[string]float64
	if s.source == nil {
		readings = catalog.DemoReadings(cityKey)
		if run != nil {
			run.Success = true
		}
	} else {
		readings = s.fetchCityReadings(ctx, cityKey, stations, run)
	}

	for id, pm := range readings {
		snap := models.ReadingSnapshot{StationID: id, ObservedAt: hour, PM25: pm, Source: sourceName}
		if err := s.store.UpsertReading(snap); err != nil {
			log.Printf("scheduler: store reading %s: %v", id, err)
		}
	}

	metrics.StationsMatched.WithLabelValues(cityKey).Set(float64(len(readings)))
	if run != nil {
		run.StationsMatched = sql.NullInt64{Int64: int64(len(readings)), Valid: true}
	}
	return run
}

// fetchCityReadings queries the live source for one city's bounding box and
// matches observations to stations. Any failure yields no readings for the
// city this cycle.
func (s *Scheduler) fetchCityReadings(ctx context.Context, cityKey string, stations []models.Station, run *store.EvaluationRun) map[string]float64 {
	bounds, ok := geomatch.BoundingBox(stations)
	if !ok {
		log.Printf("scheduler: %s has no stations with coordinates", cityKey)
		if run != nil {
			run.Success = true
		}
		return nil
	}

	observations, err := s.source.FetchBounds(ctx, bounds)
	if err != nil {
		log.Printf("scheduler: fetch %s observations: %v", cityKey, err)
		if run != nil {
			run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		}
		return nil
	}

	if run != nil {
		run.Success = true
		run.ObservationsFetched = sql.NullInt64{Int64: int64(len(observations)), Valid: true}
	}
	return geomatch.Nearest(stations, observations)
}
