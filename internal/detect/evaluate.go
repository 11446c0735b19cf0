package detect

import (
	"sort"

	"github.com/lmackenzie/smokewatch/internal/models"
)

// Result is the output of one evaluation cycle: all matched station results
// ordered by predicted concentration descending, plus exactly one alert
// decision per target city present in the input station set.
type Result struct {
	Stations   []models.StationResult              `json:"stations"`
	CityAlerts map[string]models.CityAlertDecision `json:"city_alerts"`
}

// Evaluate runs the full station evaluation and three-rule alert decision.
// It is pure: identical inputs produce identical outputs, and no state is
// carried between calls. previousReadings may be nil when no prior-hour
// snapshot exists, which disables rule 2 for the cycle.
func Evaluate(stations []models.Station, readings, previousReadings map[string]float64) Result {
	results := make([]models.StationResult, 0, len(stations))
	for _, st := range stations {
		pm, ok := readings[st.ID]
		if !ok {
			// No reading this cycle: excluded, not an error.
			continue
		}
		results = append(results, Predict(st, pm))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Predicted > results[j].Predicted
	})

	byCity := make(map[string][]models.StationResult)
	for _, r := range results {
		byCity[r.TargetCity] = append(byCity[r.TargetCity], r)
	}

	cityAlerts := make(map[string]models.CityAlertDecision)
	for city, rows := range byCity {
		cityAlerts[city] = decideCity(city, rows, previousReadings)
	}

	// Cities whose stations all went unmatched still get a decision so every
	// configured city has an entry each cycle.
	for _, st := range stations {
		if _, ok := cityAlerts[st.TargetCity]; !ok {
			cityAlerts[st.TargetCity] = noAlertDecision(st.TargetCity, CityAggregate{})
		}
	}

	return Result{Stations: results, CityAlerts: cityAlerts}
}

// decideCity aggregates one city's rows and applies the rules with LOW-band
// suppression: a fired rule whose weighted city prediction still sits in the
// LOW band is discarded, damping one-off spikes diluted by many low readings.
func decideCity(city string, rows []models.StationResult, previous map[string]float64) models.CityAlertDecision {
	agg := Aggregate(rows)
	outcome := evaluateRules(rows, previous)

	if outcome.fired {
		lvl := LevelFor(agg.WeightedPM25)
		if lvl.Name != Levels[0].Name {
			return models.CityAlertDecision{
				City:            city,
				AlertFired:      true,
				TriggeringRule:  outcome.rule,
				TriggerStations: outcome.triggers,
				WeightedPM25:    agg.WeightedPM25,
				MaxPM25:         agg.MaxPM25,
				LevelName:       lvl.Name,
				LevelHex:        lvl.Hex,
				Health:          lvl.Health,
			}
		}
	}

	return noAlertDecision(city, agg)
}

func noAlertDecision(city string, agg CityAggregate) models.CityAlertDecision {
	low := Levels[0]
	return models.CityAlertDecision{
		City:            city,
		AlertFired:      false,
		TriggerStations: []string{},
		WeightedPM25:    agg.WeightedPM25,
		MaxPM25:         agg.MaxPM25,
		LevelName:       low.Name,
		LevelHex:        low.Hex,
		Health:          low.Health,
	}
}
