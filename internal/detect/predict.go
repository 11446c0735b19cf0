package detect

import (
	"math"

	"github.com/lmackenzie/smokewatch/internal/models"
)

// Predict applies a station's fitted regression to its matched reading. The
// prediction is deliberately unclamped; a fit with a negative intercept can
// produce a negative value at low readings and that is what the model says.
func Predict(st models.Station, pm25 float64) models.StationResult {
	predicted := round1(st.Slope*pm25 + st.Intercept)
	lvl := LevelFor(predicted)
	return models.StationResult{
		StationID:    st.ID,
		CityName:     st.CityName,
		DistanceKm:   st.DistanceKm,
		Direction:    st.Direction,
		Tier:         st.Tier,
		CorrelationR: st.CorrelationR,
		PM25:         pm25,
		Predicted:    predicted,
		LevelName:    lvl.Name,
		LevelHex:     lvl.Hex,
		Lead:         LeadTime(st.DistanceKm),
		TargetCity:   st.TargetCity,
	}
}

// LeadTime estimates how far in advance a station's signal precedes
// city-level impact, as a descriptive range keyed off distance. Distant
// stations see smoke a day or more ahead; corridor stations are often near
// simultaneous with arrival.
func LeadTime(distanceKm float64) string {
	switch {
	case distanceKm > 1000:
		return "24-72 hrs"
	case distanceKm > 600:
		return "18-48 hrs"
	case distanceKm > 400:
		return "12-36 hrs"
	case distanceKm > 250:
		return "8-24 hrs"
	case distanceKm > 150:
		return "4-18 hrs"
	default:
		return "2-12 hrs"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
