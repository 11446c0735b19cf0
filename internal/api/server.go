// Package api serves the JSON surface: station catalogs, the latest
// evaluation, alert history, and per-city status badges.
package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lmackenzie/smokewatch/internal/advisory"
	"github.com/lmackenzie/smokewatch/internal/catalog"
	"github.com/lmackenzie/smokewatch/internal/detect"
	"github.com/lmackenzie/smokewatch/internal/store"
)

type Server struct {
	store    *store.Store
	catalogs *catalog.Cache
	port     string
	advisor  *advisory.Generator
}

func NewServer(store *store.Store, catalogs *catalog.Cache, port string) *Server {
	// Advisory text is optional, it needs an API key.
	var advisor *advisory.Generator
	if gen, err := advisory.NewGenerator(); err != nil {
		log.Printf("api: advisory generation disabled: %v", err)
	} else {
		advisor = gen
	}

	return &Server{
		store:    store,
		catalogs: catalogs,
		port:     port,
		advisor:  advisor,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/cities", s.handleCities)
	mux.HandleFunc("/api/stations", s.handleStations)
	mux.HandleFunc("/api/levels", s.handleLevels)
	mux.HandleFunc("/api/evaluation", s.handleEvaluation)
	mux.HandleFunc("/api/alerts", s.handleAlerts)
	mux.HandleFunc("/api/advisory", s.handleAdvisory)
	mux.HandleFunc("/badge/", s.handleBadge)
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("api: listening on :%s", s.port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// latestEvaluation re-runs the pure evaluation against the most recent stored
// snapshot. Returns false when no readings exist yet.
func (s *Server) latestEvaluation() (detect.Result, time.Time, bool, error) {
	hour, ok, err := s.store.GetLatestReadingHour()
	if err != nil || !ok {
		return detect.Result{}, time.Time{}, false, err
	}

	stations, err := s.catalogs.AllStations()
	if err != nil {
		return detect.Result{}, time.Time{}, false, err
	}
	readings, err := s.store.GetReadingsAt(hour)
	if err != nil {
		return detect.Result{}, time.Time{}, false, err
	}
	previous, err := s.store.GetReadingsAt(hour.Add(-time.Hour))
	if err != nil {
		return detect.Result{}, time.Time{}, false, err
	}

	return detect.Evaluate(stations, readings, previous), hour, true, nil
}
