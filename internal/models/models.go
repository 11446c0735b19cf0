package models

import (
	"database/sql"
	"time"
)

// Station is a monitoring station with a pre-fitted linear regression mapping
// its PM2.5 reading to a predicted concentration for one target city. The same
// physical sensor may appear once per target city with a different fit.
type Station struct {
	ID           string
	CityName     string
	DistanceKm   float64
	Direction    string
	Tier         int
	CorrelationR float64
	Slope        float64
	Intercept    float64
	Lat          sql.NullFloat64
	Lon          sql.NullFloat64
	TargetCity   string
}

// HasCoords reports whether the station can participate in geospatial matching.
func (s Station) HasCoords() bool {
	return s.Lat.Valid && s.Lon.Valid
}

// Observation is a geo-tagged reading from the external observation source,
// already converted to µg/m³.
type Observation struct {
	Lat  float64
	Lon  float64
	PM25 float64
	Name string
}

// StationResult is the per-station output of one evaluation cycle. Derived and
// immutable; never persisted by the detection core.
type StationResult struct {
	StationID    string  `json:"id"`
	CityName     string  `json:"station"`
	DistanceKm   float64 `json:"dist"`
	Direction    string  `json:"dir"`
	Tier         int     `json:"tier"`
	CorrelationR float64 `json:"r"`
	PM25         float64 `json:"pm25"`
	Predicted    float64 `json:"predicted"`
	LevelName    string  `json:"level_name"`
	LevelHex     string  `json:"level_hex"`
	Lead         string  `json:"lead"`
	TargetCity   string  `json:"target_city"`
}

// CityAlertDecision is the per-city output of one evaluation cycle.
type CityAlertDecision struct {
	City            string   `json:"city"`
	AlertFired      bool     `json:"alert"`
	TriggeringRule  string   `json:"rule,omitempty"`
	TriggerStations []string `json:"trigger_stations"`
	WeightedPM25    float64  `json:"weighted_pm25"`
	MaxPM25         float64  `json:"max_pm25"`
	LevelName       string   `json:"level_name"`
	LevelHex        string   `json:"level_hex"`
	Health          string   `json:"health"`
}

// ReadingSnapshot is one station's stored reading for a single hour.
type ReadingSnapshot struct {
	StationID  string
	ObservedAt time.Time
	PM25       float64
	Source     string // "waqi" or "demo"
	CreatedAt  time.Time
}

// City describes a target city served by the early-warning system.
type City struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}
