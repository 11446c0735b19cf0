// Package geomatch assigns external observations to catalog stations by
// nearest-neighbor great-circle distance.
package geomatch

import (
	"math"

	"github.com/lmackenzie/smokewatch/internal/models"
)

const (
	// MaxMatchKm is the strict matching radius: an observation exactly this
	// far away does not match.
	MaxMatchKm = 30.0

	// BoundsPadDegrees pads each city's station bounding box by ~55 km so
	// observations just outside the outermost station still get queried.
	BoundsPadDegrees = 0.5

	earthRadiusKm = 6371
)

// Bounds is a geographic rectangle with (Lat1, Lon1) the SW corner and
// (Lat2, Lon2) the NE corner.
type Bounds struct {
	Lat1, Lon1, Lat2, Lon2 float64
}

// BoundingBox computes the padded box covering every station with
// coordinates. Returns false if no station has coordinates.
func BoundingBox(stations []models.Station) (Bounds, bool) {
	first := true
	var b Bounds
	for _, st := range stations {
		if !st.HasCoords() {
			continue
		}
		lat, lon := st.Lat.Float64, st.Lon.Float64
		if first {
			b = Bounds{Lat1: lat, Lon1: lon, Lat2: lat, Lon2: lon}
			first = false
			continue
		}
		b.Lat1 = math.Min(b.Lat1, lat)
		b.Lon1 = math.Min(b.Lon1, lon)
		b.Lat2 = math.Max(b.Lat2, lat)
		b.Lon2 = math.Max(b.Lon2, lon)
	}
	if first {
		return Bounds{}, false
	}
	b.Lat1 -= BoundsPadDegrees
	b.Lon1 -= BoundsPadDegrees
	b.Lat2 += BoundsPadDegrees
	b.Lon2 += BoundsPadDegrees
	return b, true
}

// Nearest assigns each station the PM2.5 value of the closest observation
// strictly within MaxMatchKm. Stations without coordinates are skipped.
// Ties keep the first observation in slice order, so results are
// deterministic for a given observation ordering.
func Nearest(stations []models.Station, observations []models.Observation) map[string]float64 {
	readings := make(map[string]float64)
	if len(observations) == 0 {
		return readings
	}

	for _, st := range stations {
		if !st.HasCoords() {
			continue
		}
		bestDist := MaxMatchKm
		matched := false
		var bestPM float64
		for _, obs := range observations {
			d := Haversine(st.Lat.Float64, st.Lon.Float64, obs.Lat, obs.Lon)
			if d < bestDist {
				bestDist = d
				bestPM = obs.PM25
				matched = true
			}
		}
		if matched {
			readings[st.ID] = bestPM
		}
	}
	return readings
}

// Haversine returns the great-circle distance in km between two coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
