package catalog

import (
	"sort"

	"github.com/lmackenzie/smokewatch/internal/models"
)

// Cities lists the target cities served by the early-warning system, keyed by
// the catalog file prefix.
var Cities = map[string]models.City{
	"Toronto":   {Key: "Toronto", Label: "Toronto", Lat: 43.7479, Lon: -79.2741},
	"Montreal":  {Key: "Montreal", Label: "Montréal", Lat: 45.5027, Lon: -73.6639},
	"Edmonton":  {Key: "Edmonton", Label: "Edmonton", Lat: 53.5482, Lon: -113.3681},
	"Vancouver": {Key: "Vancouver", Label: "Vancouver", Lat: 49.3686, Lon: -123.2767},
}

// CityKeys returns the city keys in a stable order.
func CityKeys() []string {
	keys := make([]string, 0, len(Cities))
	for k := range Cities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// demoReadings holds static per-city readings in µg/m³ for offline operation.
// These bypass AQI conversion entirely.
var demoReadings = map[string]map[string]float64{
	"Toronto": {
		"60106": 85.0, "66201": 78.0, "65701": 72.0, "61201": 90.0,
		"60302": 65.0, "65401": 55.0, "60609": 30.0, "360291007": 20.0, "61502": 18.0,
	},
	"Montreal": {
		"54801": 80.0, "52001": 75.0, "50801": 68.0, "500070012": 55.0,
		"500070014": 50.0, "500070007": 45.0, "60106": 70.0, "60302": 40.0,
	},
	"Edmonton": {
		"92801": 90.0, "90302": 75.0, "94401": 65.0, "90304": 70.0,
		"91901": 55.0, "92901": 80.0,
	},
	"Vancouver": {
		"100316": 60.0, "100313": 55.0, "102301": 85.0, "102302": 80.0,
		"100304": 50.0, "100308": 45.0,
	},
}

// DemoReadings returns the offline readings for one city.
func DemoReadings(cityKey string) map[string]float64 {
	readings := make(map[string]float64, len(demoReadings[cityKey]))
	for id, pm := range demoReadings[cityKey] {
		readings[id] = pm
	}
	return readings
}

// MergedDemoReadings merges the offline readings from every city into one map.
func MergedDemoReadings() map[string]float64 {
	merged := make(map[string]float64)
	for _, cityData := range demoReadings {
		for id, pm := range cityData {
			merged[id] = pm
		}
	}
	return merged
}
