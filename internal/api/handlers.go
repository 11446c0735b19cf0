package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lmackenzie/smokewatch/internal/badge"
	"github.com/lmackenzie/smokewatch/internal/catalog"
	"github.com/lmackenzie/smokewatch/internal/detect"
	"github.com/lmackenzie/smokewatch/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stations, err := s.store.CountStations()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	failures, err := s.store.GetRecentRunErrors(5)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":          "ok",
		"stations":        stations,
		"recent_failures": len(failures),
	})
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	cities := make([]models.City, 0, len(catalog.Cities))
	for _, key := range catalog.CityKeys() {
		cities = append(cities, catalog.Cities[key])
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cities)
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")

	var stations []models.Station
	var err error
	if city == "" {
		stations, err = s.catalogs.AllStations()
	} else {
		if _, ok := catalog.Cities[city]; !ok {
			http.Error(w, "unknown city", http.StatusNotFound)
			return
		}
		stations, err = s.catalogs.Stations(city)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stations)
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detect.Levels)
}

func (s *Server) handleEvaluation(w http.ResponseWriter, r *http.Request) {
	result, hour, ok, err := s.latestEvaluation()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "no readings stored yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		EvaluatedAt time.Time `json:"evaluated_at"`
		detect.Result
	}{hour, result})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	w.Header().Set("Content-Type", "application/json")

	if city == "" {
		latest, err := s.store.GetLatestDecisions()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(latest)
		return
	}

	hours := 24
	if h := r.URL.Query().Get("hours"); h != "" {
		parsed, err := strconv.Atoi(h)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid hours", http.StatusBadRequest)
			return
		}
		hours = parsed
	}

	decisions, err := s.store.GetRecentDecisions(city, time.Duration(hours)*time.Hour)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(decisions)
}

func (s *Server) handleAdvisory(w http.ResponseWriter, r *http.Request) {
	if s.advisor == nil {
		http.Error(w, "advisory generation disabled", http.StatusServiceUnavailable)
		return
	}

	city := r.URL.Query().Get("city")
	if _, ok := catalog.Cities[city]; !ok {
		http.Error(w, "unknown city", http.StatusNotFound)
		return
	}

	latest, err := s.store.GetLatestDecisions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	decision, ok := latest[city]
	if !ok {
		http.Error(w, "no decision for city yet", http.StatusNotFound)
		return
	}

	text, err := s.advisor.Generate(r.Context(), decision.CityAlertDecision)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"city":     city,
		"advisory": text,
	})
}

// handleBadge serves /badge/{city}.png from the latest stored decision. When
// no decision exists yet the badge shows the LOW band.
func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/badge/")
	city := strings.TrimSuffix(name, ".png")
	if city == name || city == "" {
		http.Error(w, "expected /badge/{city}.png", http.StatusNotFound)
		return
	}
	if _, ok := catalog.Cities[city]; !ok {
		http.Error(w, "unknown city", http.StatusNotFound)
		return
	}

	latest, err := s.store.GetLatestDecisions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	decision, ok := latest[city]
	if !ok {
		low := detect.Levels[0]
		decision.CityAlertDecision = models.CityAlertDecision{
			City:      city,
			LevelName: low.Name,
			LevelHex:  low.Hex,
			Health:    low.Health,
		}
	}

	data, err := badge.Render(decision.CityAlertDecision)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=300")
	w.Write(data)
}
