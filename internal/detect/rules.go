package detect

import "github.com/lmackenzie/smokewatch/internal/models"

// Trigger thresholds for the three-rule detection system, in µg/m³ of raw
// station reading. Adapted from the Toronto PM2.5 Methodology v3.0.
const (
	Rule1Trigger        = 40 // regional station exceeds this → immediate alert
	Rule2DistantTrigger = 35 // distant station (600+ km) trigger
	Rule2Intermediate   = 20 // intermediate station confirmation threshold
	Rule3Corridor       = 40 // upwind corridor station trigger
)

// Forward-looking configuration for a multi-hour event/cooldown tracker that
// the per-cycle evaluation does not enforce. Kept so the eventual event layer
// and this engine agree on numbers.
const (
	CityElevatedThreshold   = 20  // µg/m³ city level that confirms smoke arrival
	EvaluationWindowHours   = 120 // 5 days to check for city elevation
	EventCooldownHours      = 168 // 7 days minimum separation between events
	ConfirmationWindowHours = 96  // 4 days for intermediate confirmation
)

// Rule names as reported in decisions.
const (
	Rule1 = "rule1"
	Rule2 = "rule2"
	Rule3 = "rule3"
)

// Station eligibility partitions, computed per cycle:
//
//	regional:     tier 1 within 600 km
//	distant:      beyond 600 km regardless of tier
//	corridor:     tier 2+ within 400 km
//	intermediate: 200-600 km (rule 2 confirmation only)
func isRegional(r models.StationResult) bool {
	return r.Tier == 1 && r.DistanceKm <= 600
}

func isDistant(r models.StationResult) bool {
	return r.DistanceKm > 600
}

func isCorridor(r models.StationResult) bool {
	return r.Tier >= 2 && r.DistanceKm <= 400
}

func isIntermediate(r models.StationResult) bool {
	return r.DistanceKm >= 200 && r.DistanceKm <= 600
}

// ruleOutcome is the raw trigger decision before city-level suppression.
type ruleOutcome struct {
	fired    bool
	rule     string
	triggers []string
}

// evaluateRules applies the three rules in strict priority order. The first
// rule that fires wins; later rules are not evaluated. Trigger lists report
// only the first qualifying station per leg — downstream alert text depends
// on a single name.
func evaluateRules(cityRows []models.StationResult, previous map[string]float64) ruleOutcome {
	// Rule 1: regional alert.
	for _, r := range cityRows {
		if isRegional(r) && r.PM25 >= Rule1Trigger {
			return ruleOutcome{fired: true, rule: Rule1, triggers: []string{r.CityName}}
		}
	}

	// Rule 2: distant trigger plus sustained intermediate confirmation.
	// Needs a previous-hour snapshot; without one the rule is skipped.
	if len(previous) > 0 {
		var distant, intermediate *models.StationResult
		for i, r := range cityRows {
			if distant == nil && isDistant(r) && r.PM25 >= Rule2DistantTrigger {
				distant = &cityRows[i]
			}
			if intermediate == nil && isIntermediate(r) && r.PM25 >= Rule2Intermediate &&
				previous[r.StationID] >= Rule2Intermediate {
				intermediate = &cityRows[i]
			}
		}
		if distant != nil && intermediate != nil {
			return ruleOutcome{
				fired:    true,
				rule:     Rule2,
				triggers: []string{distant.CityName, intermediate.CityName},
			}
		}
	}

	// Rule 3: corridor detection.
	for _, r := range cityRows {
		if isCorridor(r) && r.PM25 >= Rule3Corridor {
			return ruleOutcome{fired: true, rule: Rule3, triggers: []string{r.CityName}}
		}
	}

	return ruleOutcome{}
}
