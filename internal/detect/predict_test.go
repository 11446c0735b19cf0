package detect

import (
	"testing"

	"github.com/lmackenzie/smokewatch/internal/models"
)

func TestPredict(t *testing.T) {
	st := models.Station{
		ID:         "61201",
		CityName:   "Sault Ste Marie",
		DistanceKm: 550,
		Tier:       1,
		Slope:      1.1,
		Intercept:  -0.5,
		TargetCity: "Toronto",
	}

	r := Predict(st, 40)
	if r.Predicted != 43.5 {
		t.Errorf("Predicted = %v, want 43.5", r.Predicted)
	}
	if r.LevelName != "MODERATE" {
		t.Errorf("LevelName = %s, want MODERATE", r.LevelName)
	}
	if r.Lead != "12-36 hrs" {
		t.Errorf("Lead = %s, want 12-36 hrs", r.Lead)
	}
	if r.PM25 != 40 {
		t.Errorf("PM25 = %v, want 40", r.PM25)
	}
}

func TestPredictUnclamped(t *testing.T) {
	st := models.Station{ID: "X", Slope: 0.5, Intercept: -10}
	if r := Predict(st, 4); r.Predicted != -8.0 {
		t.Errorf("Predicted = %v, want -8.0 (no clamping)", r.Predicted)
	}
}

func TestLeadTime(t *testing.T) {
	tests := []struct {
		dist float64
		want string
	}{
		{1200, "24-72 hrs"},
		{1000, "18-48 hrs"},
		{601, "18-48 hrs"},
		{600, "12-36 hrs"},
		{401, "12-36 hrs"},
		{400, "8-24 hrs"},
		{251, "8-24 hrs"},
		{250, "4-18 hrs"},
		{151, "4-18 hrs"},
		{150, "2-12 hrs"},
		{0, "2-12 hrs"},
	}

	for _, tt := range tests {
		if got := LeadTime(tt.dist); got != tt.want {
			t.Errorf("LeadTime(%v) = %s, want %s", tt.dist, got, tt.want)
		}
	}
}
