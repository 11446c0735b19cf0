package api_test

import (
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lmackenzie/smokewatch/internal/api"
	"github.com/lmackenzie/smokewatch/internal/catalog"
	"github.com/lmackenzie/smokewatch/internal/models"
	"github.com/lmackenzie/smokewatch/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	if err := s.Migrate(); err != nil {
		t.Fatal(err)
	}
	return s
}

func testCatalog(stations map[string][]models.Station) *catalog.Cache {
	return catalog.NewCache(func(cityKey string) ([]models.Station, error) {
		return stations[cityKey], nil
	})
}

func torontoStation() models.Station {
	return models.Station{
		ID: "61201", CityName: "Sault Ste Marie", TargetCity: "Toronto",
		Tier: 1, DistanceKm: 550, CorrelationR: 0.9, Slope: 1,
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	srv := api.NewServer(s, testCatalog(nil), "8080")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status"`) {
		t.Error("expected status field in JSON response")
	}
}

func TestCitiesEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	srv := api.NewServer(s, testCatalog(nil), "8080")

	req := httptest.NewRequest("GET", "/api/cities", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var cities []models.City
	if err := json.Unmarshal(w.Body.Bytes(), &cities); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cities) != 4 {
		t.Errorf("len(cities) = %d, want 4", len(cities))
	}
}

func TestStationsEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	srv := api.NewServer(s, testCatalog(map[string][]models.Station{
		"Toronto": {torontoStation()},
	}), "8080")

	req := httptest.NewRequest("GET", "/api/stations?city=Toronto", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var stations []models.Station
	if err := json.Unmarshal(w.Body.Bytes(), &stations); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(stations) != 1 || stations[0].ID != "61201" {
		t.Errorf("stations = %+v", stations)
	}

	req = httptest.NewRequest("GET", "/api/stations?city=Atlantis", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != 404 {
		t.Errorf("unknown city: expected 404, got %d", w.Code)
	}
}

func TestEvaluationEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)

	hour := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	if err := s.UpsertReading(models.ReadingSnapshot{StationID: "61201", ObservedAt: hour, PM25: 45, Source: "waqi"}); err != nil {
		t.Fatal(err)
	}

	srv := api.NewServer(s, testCatalog(map[string][]models.Station{
		"Toronto": {torontoStation()},
	}), "8080")

	req := httptest.NewRequest("GET", "/api/evaluation", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		EvaluatedAt time.Time                           `json:"evaluated_at"`
		Stations    []models.StationResult              `json:"stations"`
		CityAlerts  map[string]models.CityAlertDecision `json:"city_alerts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.EvaluatedAt.Equal(hour) {
		t.Errorf("EvaluatedAt = %v, want %v", resp.EvaluatedAt, hour)
	}
	if len(resp.Stations) != 1 {
		t.Fatalf("len(stations) = %d, want 1", len(resp.Stations))
	}
	if dec := resp.CityAlerts["Toronto"]; !dec.AlertFired {
		t.Errorf("decision = %+v, want fired", dec)
	}
}

func TestEvaluationEndpointNoData(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	srv := api.NewServer(s, testCatalog(nil), "8080")

	req := httptest.NewRequest("GET", "/api/evaluation", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != 404 {
		t.Errorf("expected 404 with no readings, got %d", w.Code)
	}
}

func TestAlertsEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)

	at := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	if err := s.UpsertDecision(models.CityAlertDecision{
		City: "Toronto", AlertFired: true, TriggeringRule: "rule1",
		TriggerStations: []string{"Sault Ste Marie"},
		WeightedPM25:    45, MaxPM25: 45, LevelName: "MODERATE", LevelHex: "#eab308",
	}, at); err != nil {
		t.Fatal(err)
	}

	srv := api.NewServer(s, testCatalog(nil), "8080")

	req := httptest.NewRequest("GET", "/api/alerts", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var latest map[string]store.StoredDecision
	if err := json.Unmarshal(w.Body.Bytes(), &latest); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !latest["Toronto"].AlertFired {
		t.Error("latest Toronto decision not fired")
	}

	req = httptest.NewRequest("GET", "/api/alerts?city=Toronto&hours=876000", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var history []store.StoredDecision
	if err := json.Unmarshal(w.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("len(history) = %d, want 1", len(history))
	}

	req = httptest.NewRequest("GET", "/api/alerts?city=Toronto&hours=bogus", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != 400 {
		t.Errorf("bad hours: expected 400, got %d", w.Code)
	}
}

func TestLevelsEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	srv := api.NewServer(s, testCatalog(nil), "8080")

	req := httptest.NewRequest("GET", "/api/levels", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "EXTREME") {
		t.Error("expected EXTREME band in levels response")
	}
}

func TestBadgeEndpoint(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)

	at := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	if err := s.UpsertDecision(models.CityAlertDecision{
		City: "Toronto", AlertFired: true, TriggeringRule: "rule1",
		WeightedPM25: 45, LevelName: "MODERATE", LevelHex: "#eab308",
	}, at); err != nil {
		t.Fatal(err)
	}

	srv := api.NewServer(s, testCatalog(nil), "8080")

	req := httptest.NewRequest("GET", "/badge/Toronto.png", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}

	// No decision yet falls back to the LOW band rather than erroring.
	req = httptest.NewRequest("GET", "/badge/Vancouver.png", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != 200 {
		t.Errorf("fallback badge: expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/badge/Atlantis.png", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != 404 {
		t.Errorf("unknown city: expected 404, got %d", w.Code)
	}
}

func TestAdvisoryDisabledWithoutKey(t *testing.T) {
	s := setupTestStore(t)
	t.Setenv("OPENAI_API_KEY", "")
	srv := api.NewServer(s, testCatalog(nil), "8080")

	req := httptest.NewRequest("GET", "/api/advisory?city=Toronto", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != 503 {
		t.Errorf("expected 503 when advisory disabled, got %d", w.Code)
	}
}
