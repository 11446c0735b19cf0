package detect

import (
	"reflect"
	"testing"

	"github.com/lmackenzie/smokewatch/internal/models"
)

func regionalStation(id, name string) models.Station {
	return models.Station{
		ID: id, CityName: name, DistanceKm: 300, Tier: 1,
		CorrelationR: 0.9, Slope: 1.0, Intercept: 0, TargetCity: "Toronto",
	}
}

func corridorStation(id, name string) models.Station {
	return models.Station{
		ID: id, CityName: name, DistanceKm: 350, Tier: 2,
		CorrelationR: 0.8, Slope: 1.0, Intercept: 0, TargetCity: "Toronto",
	}
}

func distantStation(id, name string) models.Station {
	return models.Station{
		ID: id, CityName: name, DistanceKm: 1100, Tier: 3,
		CorrelationR: 0.4, Slope: 1.0, Intercept: 0, TargetCity: "Toronto",
	}
}

func intermediateStation(id, name string) models.Station {
	return models.Station{
		ID: id, CityName: name, DistanceKm: 450, Tier: 1,
		CorrelationR: 0.7, Slope: 1.0, Intercept: 0, TargetCity: "Toronto",
	}
}

func TestEvaluateEndToEnd(t *testing.T) {
	stations := []models.Station{regionalStation("R1", "North Bay")}
	readings := map[string]float64{"R1": 45}

	res := Evaluate(stations, readings, nil)

	if len(res.Stations) != 1 {
		t.Fatalf("len(Stations) = %d, want 1", len(res.Stations))
	}
	if res.Stations[0].Predicted != 45.0 {
		t.Errorf("Predicted = %v, want 45.0", res.Stations[0].Predicted)
	}

	dec, ok := res.CityAlerts["Toronto"]
	if !ok {
		t.Fatal("no decision for Toronto")
	}
	if !dec.AlertFired {
		t.Error("AlertFired = false, want true")
	}
	if dec.TriggeringRule != Rule1 {
		t.Errorf("TriggeringRule = %q, want rule1", dec.TriggeringRule)
	}
	if dec.WeightedPM25 != 45.0 {
		t.Errorf("WeightedPM25 = %v, want 45.0", dec.WeightedPM25)
	}
	if dec.LevelName != "MODERATE" {
		t.Errorf("LevelName = %s, want MODERATE", dec.LevelName)
	}
	if !reflect.DeepEqual(dec.TriggerStations, []string{"North Bay"}) {
		t.Errorf("TriggerStations = %v, want [North Bay]", dec.TriggerStations)
	}
}

func TestRulePriorityRule1BeatsRule3(t *testing.T) {
	stations := []models.Station{
		corridorStation("C1", "Corridor Town"),
		regionalStation("R1", "Regional Town"),
	}
	// Both rule 1 and rule 3 conditions hold simultaneously.
	readings := map[string]float64{"C1": 55, "R1": 50}

	res := Evaluate(stations, readings, nil)
	dec := res.CityAlerts["Toronto"]
	if dec.TriggeringRule != Rule1 {
		t.Errorf("TriggeringRule = %q, want rule1 (strict priority)", dec.TriggeringRule)
	}
}

func TestRule1FirstMatchOnly(t *testing.T) {
	stations := []models.Station{
		regionalStation("R1", "First Town"),
		regionalStation("R2", "Second Town"),
	}
	readings := map[string]float64{"R1": 50, "R2": 60}

	res := Evaluate(stations, readings, nil)
	dec := res.CityAlerts["Toronto"]
	if len(dec.TriggerStations) != 1 {
		t.Fatalf("TriggerStations = %v, want exactly one name", dec.TriggerStations)
	}
}

func TestRule2RequiresBothLegs(t *testing.T) {
	stations := []models.Station{
		distantStation("D1", "Far North"),
		intermediateStation("I1", "Midway"),
	}

	tests := []struct {
		name     string
		readings map[string]float64
		previous map[string]float64
		want     string
		fired    bool
	}{
		{
			name:     "both legs satisfied",
			readings: map[string]float64{"D1": 38, "I1": 25},
			previous: map[string]float64{"I1": 22},
			want:     Rule2,
			fired:    true,
		},
		{
			name:     "no sustained confirmation",
			readings: map[string]float64{"D1": 38, "I1": 25},
			previous: map[string]float64{"I1": 15},
			fired:    false,
		},
		{
			name:     "no distant trigger",
			readings: map[string]float64{"D1": 30, "I1": 25},
			previous: map[string]float64{"I1": 22},
			fired:    false,
		},
		{
			name:     "no previous snapshot disables rule 2",
			readings: map[string]float64{"D1": 38, "I1": 25},
			previous: nil,
			fired:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(stations, tt.readings, tt.previous)
			dec := res.CityAlerts["Toronto"]
			if dec.AlertFired != tt.fired {
				t.Errorf("AlertFired = %v, want %v", dec.AlertFired, tt.fired)
			}
			if tt.fired && dec.TriggeringRule != tt.want {
				t.Errorf("TriggeringRule = %q, want %q", dec.TriggeringRule, tt.want)
			}
			if tt.fired && len(dec.TriggerStations) != 2 {
				t.Errorf("TriggerStations = %v, want [distant, intermediate]", dec.TriggerStations)
			}
		})
	}
}

func TestRule3Corridor(t *testing.T) {
	stations := []models.Station{corridorStation("C1", "Corridor Town")}
	readings := map[string]float64{"C1": 45}

	res := Evaluate(stations, readings, nil)
	dec := res.CityAlerts["Toronto"]
	if dec.TriggeringRule != Rule3 {
		t.Errorf("TriggeringRule = %q, want rule3", dec.TriggeringRule)
	}
	if !dec.AlertFired {
		t.Error("AlertFired = false, want true")
	}
}

func TestSuppressionInLowBand(t *testing.T) {
	// One regional station fires rule 1, but four zero-reading stations with
	// strong correlations drag the weighted prediction into the LOW band.
	stations := []models.Station{regionalStation("R1", "Spiky Town")}
	for i, id := range []string{"A", "B", "C", "D"} {
		st := regionalStation(id, "Quiet Town")
		st.CityName = "Quiet Town " + string(rune('A'+i))
		stations = append(stations, st)
	}
	readings := map[string]float64{"R1": 45, "A": 2, "B": 2, "C": 2, "D": 2}

	res := Evaluate(stations, readings, nil)
	dec := res.CityAlerts["Toronto"]

	// Weighted: (45 + 4*2) / 5 = 10.6 → LOW → suppressed.
	if dec.AlertFired {
		t.Error("AlertFired = true, want false (suppressed in LOW band)")
	}
	if dec.TriggeringRule != "" {
		t.Errorf("TriggeringRule = %q, want empty", dec.TriggeringRule)
	}
	if dec.LevelName != "LOW" {
		t.Errorf("LevelName = %s, want LOW", dec.LevelName)
	}
	if dec.WeightedPM25 != 10.6 {
		t.Errorf("WeightedPM25 = %v, want 10.6", dec.WeightedPM25)
	}
	if len(dec.TriggerStations) != 0 {
		t.Errorf("TriggerStations = %v, want empty", dec.TriggerStations)
	}
}

func TestEvaluateSortsByPredictedDesc(t *testing.T) {
	stations := []models.Station{
		regionalStation("R1", "Low"),
		regionalStation("R2", "High"),
		regionalStation("R3", "Mid"),
	}
	readings := map[string]float64{"R1": 5, "R2": 50, "R3": 20}

	res := Evaluate(stations, readings, nil)
	got := []string{res.Stations[0].StationID, res.Stations[1].StationID, res.Stations[2].StationID}
	want := []string{"R2", "R3", "R1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("station order = %v, want %v", got, want)
	}
}

func TestEvaluateUnmatchedCityGetsDefaultDecision(t *testing.T) {
	stations := []models.Station{
		regionalStation("R1", "Toronto Feeder"),
		{
			ID: "V1", CityName: "Island", DistanceKm: 100, Tier: 1,
			CorrelationR: 0.5, Slope: 1, TargetCity: "Vancouver",
		},
	}
	// Only Toronto's station has a reading this cycle.
	readings := map[string]float64{"R1": 10}

	res := Evaluate(stations, readings, nil)
	dec, ok := res.CityAlerts["Vancouver"]
	if !ok {
		t.Fatal("no decision for Vancouver despite catalog presence")
	}
	if dec.AlertFired || dec.WeightedPM25 != 0 || dec.LevelName != "LOW" {
		t.Errorf("default decision = %+v, want no-alert zeros", dec)
	}
}

func TestEvaluateStationsWithoutReadingsExcluded(t *testing.T) {
	stations := []models.Station{
		regionalStation("R1", "Has Reading"),
		regionalStation("R2", "No Reading"),
	}
	readings := map[string]float64{"R1": 12}

	res := Evaluate(stations, readings, nil)
	if len(res.Stations) != 1 || res.Stations[0].StationID != "R1" {
		t.Errorf("Stations = %+v, want only R1", res.Stations)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	stations := []models.Station{
		regionalStation("R1", "A"),
		distantStation("D1", "B"),
		intermediateStation("I1", "C"),
	}
	readings := map[string]float64{"R1": 45, "D1": 38, "I1": 25}
	previous := map[string]float64{"I1": 22}

	first := Evaluate(stations, readings, previous)
	second := Evaluate(stations, readings, previous)
	if !reflect.DeepEqual(first, second) {
		t.Error("Evaluate is not idempotent for identical inputs")
	}
}
