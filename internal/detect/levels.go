// Package detect implements the station evaluation and three-rule alerting
// engine: per-station regression predictions, reliability-weighted city
// aggregation, and the city-level alert decision.
package detect

// Level is one band of the city alert scale. Bands are contiguous and cover
// [0, +inf); lookup picks the highest band whose Min is <= the value.
type Level struct {
	Name      string
	Min       float64
	Max       float64
	Hex       string
	TextColor string
	Health    string
}

// Levels is the five-band alert scale in ascending severity.
var Levels = []Level{
	{
		Name: "LOW", Min: 0, Max: 20, Hex: "#22c55e", TextColor: "black",
		Health: "No significant risk. No action required.",
	},
	{
		Name: "MODERATE", Min: 20, Max: 60, Hex: "#eab308", TextColor: "black",
		Health: "Sensitive groups (children, elderly, respiratory conditions) should reduce outdoor activity.",
	},
	{
		Name: "HIGH", Min: 60, Max: 80, Hex: "#f97316", TextColor: "black",
		Health: "General population affected. Reduce prolonged outdoor exertion. Use N95/KN95 mask outdoors.",
	},
	{
		Name: "VERY HIGH", Min: 80, Max: 120, Hex: "#ef4444", TextColor: "white",
		Health: "Significant risk for all. Avoid outdoor exertion. Keep doors and windows closed.",
	},
	{
		Name: "EXTREME", Min: 120, Max: 1e9, Hex: "#7f1d1d", TextColor: "white",
		Health: "Emergency conditions. Stay indoors. Close windows. Run HEPA filter. No indoor pollution sources.",
	},
}

// LevelFor returns the alert band for a PM2.5 concentration in µg/m³.
func LevelFor(pm25 float64) Level {
	for i := len(Levels) - 1; i >= 0; i-- {
		if pm25 >= Levels[i].Min {
			return Levels[i]
		}
	}
	return Levels[0]
}

// LevelIndex returns the ordinal of the band for a concentration, 0 = LOW.
func LevelIndex(pm25 float64) int {
	for i := len(Levels) - 1; i >= 0; i-- {
		if pm25 >= Levels[i].Min {
			return i
		}
	}
	return 0
}
