package detect

import "github.com/lmackenzie/smokewatch/internal/models"

// minStationWeight is the floor weight in the city aggregation. Squaring R
// privileges well-correlated stations; the floor keeps zero-R stations from
// vanishing entirely.
const minStationWeight = 0.1

// CityAggregate is the combined city-level prediction for one cycle.
type CityAggregate struct {
	WeightedPM25 float64
	MaxPM25      float64
}

// StationWeight returns the aggregation weight for a correlation coefficient.
func StationWeight(correlationR float64) float64 {
	w := correlationR * correlationR
	if w < minStationWeight {
		return minStationWeight
	}
	return w
}

// Aggregate combines a city's station results into a single R²-weighted
// prediction plus the per-cycle maximum. An empty result set yields zeros;
// a zero total weight (unreachable with the floor, but guarded anyway) falls
// back to the arithmetic mean.
func Aggregate(results []models.StationResult) CityAggregate {
	if len(results) == 0 {
		return CityAggregate{}
	}

	var weightedSum, weightTotal, sum, maxPred float64
	for i, r := range results {
		w := StationWeight(r.CorrelationR)
		weightedSum += w * r.Predicted
		weightTotal += w
		sum += r.Predicted
		if i == 0 || r.Predicted > maxPred {
			maxPred = r.Predicted
		}
	}

	weighted := sum / float64(len(results))
	if weightTotal > 0 {
		weighted = weightedSum / weightTotal
	}

	return CityAggregate{
		WeightedPM25: round1(weighted),
		MaxPM25:      round1(maxPred),
	}
}
